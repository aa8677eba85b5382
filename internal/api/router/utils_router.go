package router

import (
	"net/http"

	"chat-relay-backend/internal/api"
	"chat-relay-backend/internal/api/endpoints"
)

func UtilsRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		utilsEndpoints := endpoints.NewUtilsEndpoints(prefix)
		mux.HandleFunc(prefix+"/", s.MakeHTTPHandleFunc(utilsEndpoints.Info))
		mux.HandleFunc(prefix+"/health", s.MakeHTTPHandleFunc(utilsEndpoints.Health))
	}
}
