package router

import (
	"net/http"

	"chat-relay-backend/internal/api"
	"chat-relay-backend/internal/api/endpoints"
)

func ChatRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		attachmentPrefix := prefix + "/attachments/"
		chatEndpoints := endpoints.NewChatEndpoints(s.Chat(), s.Handler(), s.Attachments(), attachmentPrefix)

		mux.HandleFunc(prefix+"/rooms", s.MakeHTTPHandleFunc(chatEndpoints.Rooms))
		mux.HandleFunc(prefix+"/ws", s.MakeHTTPHandleFunc(chatEndpoints.Websocket))
		mux.HandleFunc(attachmentPrefix, s.MakeHTTPHandleFunc(chatEndpoints.Attachment))
	}
}
