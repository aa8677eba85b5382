package endpoints

import (
	"fmt"
	"net/http"
	"time"
)

type InfoResponse struct {
	Message     string            `json:"message"`
	Status      string            `json:"status"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type UtilsEndpoints interface {
	Info(http.ResponseWriter, *http.Request) error
	Health(http.ResponseWriter, *http.Request) error
}

type utilsEndpoints struct {
	prefix string
	now    func() time.Time
}

func NewUtilsEndpoints(prefix string) UtilsEndpoints {
	return &utilsEndpoints{prefix: prefix, now: time.Now}
}

func (h *utilsEndpoints) Info(w http.ResponseWriter, r *http.Request) error {
	if r.URL.Path != h.prefix+"/" {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("no route for %s", r.URL.Path),
		}
	}
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			return WriteJSON(w, http.StatusOK, InfoResponse{
				Message:     "🕶️ Incognito Wachira Server",
				Status:      "running",
				Description: "Anonymous real-time chat server",
				Endpoints: map[string]string{
					"websocket": h.prefix + "/ws",
					"health":    h.prefix + "/health",
					"rooms":     h.prefix + "/rooms",
					"metrics":   "/metrics",
				},
			})
		},
	})
}

func (h *utilsEndpoints) Health(w http.ResponseWriter, r *http.Request) error {
	return WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}
