package websocket

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"chat-relay-backend/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Handler struct {
	hub      *Hub
	router   *Router
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, router *Router, opts Options) *Handler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 20
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 40
	}
	h := &Handler{hub: hub, router: router, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin allows requests without an Origin header (non-browser
// clients) and browsers from a configured origin.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	if lo.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	normalized := normalizeOrigin(origin)
	return lo.ContainsBy(h.opts.AllowedOrigins, func(o string) bool {
		return normalizeOrigin(o) == normalized
	})
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		log.Printf("[hub] upgrade from %s failed: %v", r.RemoteAddr, err)
		return nil
	}

	cl := newClient(conn, model.ConnectionID(uuid.NewString()), h.opts)
	h.router.Connect(cl.ID)
	if !h.hub.register(r.Context(), cl) {
		h.router.Disconnect(cl.ID)
		conn.Close()
		return fmt.Errorf("websocket register %s: hub is not running", cl.ID)
	}
	log.Printf("[hub] client %s connected from %s", cl.ID, r.RemoteAddr)

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h.hub, h.router, h.opts.ReadLimit)
	return nil
}

func (h *Handler) Hub() *Hub {
	return h.hub
}

func normalizeOrigin(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
