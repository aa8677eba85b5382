package websocket

import (
	"errors"
	"log"
	"sync"
	"time"

	"chat-relay-backend/internal/model"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type WSClient struct {
	Conn *websocket.Conn
	ID   model.ConnectionID

	send       chan []byte
	done       chan struct{} // closed once the client is shutting down
	registered chan struct{}
	limiter    *rate.Limiter
	closeOnce  sync.Once
	mu         sync.Mutex // serializes writes to Conn
}

func newClient(conn *websocket.Conn, id model.ConnectionID, opts Options) *WSClient {
	return &WSClient{
		Conn:       conn,
		ID:         id,
		send:       make(chan []byte, opts.SendBuffer),
		done:       make(chan struct{}),
		registered: make(chan struct{}),
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst),
	}
}

// enqueue never blocks. It reports false when the buffer is full.
func (cl *WSClient) enqueue(frame []byte) bool {
	select {
	case cl.send <- frame:
		return true
	default:
		return false
	}
}

// close may run under a room lock, so it must not wait on a writer. Close
// is safe to call concurrently with the gorilla write methods.
func (cl *WSClient) close() {
	cl.closeOnce.Do(func() {
		close(cl.done)
		cl.Conn.Close()
	})
}

func (cl *WSClient) closed() bool {
	select {
	case <-cl.done:
		return true
	default:
		return false
	}
}

// shutdown sends a close frame before dropping the connection.
func (cl *WSClient) shutdown() {
	if !cl.closed() {
		_ = cl.Conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait),
		)
	}
	cl.close()
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			if cl.closed() {
				return
			}
			cl.mu.Lock()
			err := cl.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			cl.mu.Unlock()

			if err != nil {
				log.Printf("[hub] ping error for client %s: %v", cl.ID, err)
				cl.close()
				return
			}
		}
	}
}

func (cl *WSClient) writeMessage() {
	defer cl.close()

	for {
		select {
		case <-cl.done:
			return
		case frame := <-cl.send:
			if cl.closed() {
				return
			}
			cl.mu.Lock()
			_ = cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := cl.Conn.WriteMessage(websocket.TextMessage, frame)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("[hub] error sending to client %s: %v", cl.ID, err)
				return
			}
		}
	}
}

// readMessage runs until the connection fails. Every exit path, a panic
// included, ends in the disconnect cascade.
func (cl *WSClient) readMessage(hub *Hub, router *Router, readLimit int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[hub] recovered from panic in read loop of %s: %v", cl.ID, r)
		}
		cl.close()
		router.Disconnect(cl.ID)
		hub.unregister(cl)
		log.Printf("[hub] client %s disconnected", cl.ID)
	}()

	if readLimit > 0 {
		cl.Conn.SetReadLimit(readLimit)
	}
	_ = cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.Conn.SetPongHandler(func(string) error {
		return cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := cl.Conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && (closeErr.Code == websocket.CloseNormalClosure ||
				closeErr.Code == websocket.CloseGoingAway ||
				closeErr.Code == websocket.CloseNoStatusReceived) {
				return
			}
			if !cl.closed() {
				log.Printf("[hub] error reading from client %s: %v", cl.ID, err)
			}
			return
		}
		_ = cl.Conn.SetReadDeadline(time.Now().Add(pongWait))

		if !cl.limiter.Allow() {
			router.reject(cl.ID, "", CodeRateLimited, "too many events, slow down")
			continue
		}
		router.Dispatch(cl.ID, message)
	}
}
