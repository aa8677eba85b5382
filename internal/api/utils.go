package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chat-relay-backend/internal/api/middleware"
	"chat-relay-backend/internal/queue"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// MakeHTTPHandleFunc runs f on the request queue behind the shared
// middleware chain and renders returned errors as JSON.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, extra ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		job := queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		}

		s.requestQueueManager.EnqueueJob(job)

		err := <-errc
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				if httpErr.ErrorLog != nil {
					log.Println(httpErr.ErrorLog)
				}
				_ = WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
			} else {
				log.Printf("handler %s: %v", r.URL.Path, err)
				_ = WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
			}
		}
	}

	middlewares := []middleware.Middleware{
		middleware.Logging(),
		middleware.SecureHeaders(),
		middleware.CORS(s.cors),
		middleware.RateLimit(s.limiter),
	}
	middlewares = append(middlewares, extra...)

	return middleware.Chain(baseHandler, middlewares...)
}
