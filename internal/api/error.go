package api

import "net/http"

type HTTPError struct {
	StatusCode int
	Message    string
	ErrorLog   error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.ErrorLog
}

func NotFound(message string, cause error) *HTTPError {
	return &HTTPError{StatusCode: http.StatusNotFound, Message: message, ErrorLog: cause}
}

type ApiError struct {
	Error string `json:"message"`
}
