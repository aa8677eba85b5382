package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"chat-relay-backend/internal/dto"
	"chat-relay-backend/internal/service/chat"
	"chat-relay-backend/internal/storage"
	"chat-relay-backend/internal/websocket"
)

type ChatEndpoints interface {
	Rooms(http.ResponseWriter, *http.Request) error
	Websocket(http.ResponseWriter, *http.Request) error
	Attachment(http.ResponseWriter, *http.Request) error
}

type chatEndpoints struct {
	service          *chat.Service
	handler          *websocket.Handler
	store            storage.Store
	attachmentPrefix string
}

func NewChatEndpoints(service *chat.Service, handler *websocket.Handler, store storage.Store, attachmentPrefix string) ChatEndpoints {
	return &chatEndpoints{
		service:          service,
		handler:          handler,
		store:            store,
		attachmentPrefix: attachmentPrefix,
	}
}

func (h *chatEndpoints) Rooms(w http.ResponseWriter, r *http.Request) error {
	summaries := h.service.RoomSummaries()
	rooms := make([]dto.RoomInfo, 0, len(summaries))
	for _, s := range summaries {
		rooms = append(rooms, dto.RoomInfo{Name: s.Name, Members: s.Members})
	}
	return WriteJSON(w, http.StatusOK, rooms)
}

func (h *chatEndpoints) Websocket(w http.ResponseWriter, r *http.Request) error {
	return h.handler.ServeWS(w, r)
}

// Attachment serves the bytes of a shared file by key.
func (h *chatEndpoints) Attachment(w http.ResponseWriter, r *http.Request) error {
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, h.attachmentPrefix), "/")
	if key == "" || strings.Contains(key, "/") {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Attachment not found",
			ErrorLog:   fmt.Errorf("attachment key missing in %s", r.URL.Path),
		}
	}

	attachment, data, err := h.store.Get(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Attachment not found",
			ErrorLog:   fmt.Errorf("attachment %s: %w", key, err),
		}
	}
	if err != nil {
		return fmt.Errorf("load attachment %s: %w", key, err)
	}

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", attachment.Name))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}
