package middleware

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// captureLog redirects the standard logger for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLoggingGeneratesRequestID(t *testing.T) {
	buf := captureLog(t)
	rec := httptest.NewRecorder()
	Logging()(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	id := rec.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	entry := lastEntry(t, buf)
	require.Equal(t, id, entry.RequestID)
	require.Equal(t, "/rooms", entry.URI)
	require.Equal(t, http.StatusOK, entry.Status)
}

func TestLoggingKeepsSuppliedRequestID(t *testing.T) {
	buf := captureLog(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	Logging()(okHandler)(rec, req)

	require.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	require.Equal(t, "req-42", lastEntry(t, buf).RequestID)
}

func TestLoggingDefaultsStatusWithoutWriteHeader(t *testing.T) {
	buf := captureLog(t)
	silent := func(w http.ResponseWriter, r *http.Request) {}
	Logging()(silent)(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	entry := lastEntry(t, buf)
	require.Equal(t, http.StatusOK, entry.Status)
	require.Zero(t, entry.Size)
}

func TestLoggingRecordsStatusAndSize(t *testing.T) {
	buf := captureLog(t)
	teapot := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}
	Logging()(teapot)(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	entry := lastEntry(t, buf)
	require.Equal(t, http.StatusTeapot, entry.Status)
	require.Equal(t, len("short and stout"), entry.Size)
	require.Equal(t, http.MethodPost, entry.Method)
}

func TestLoggingHijackUnsupported(t *testing.T) {
	captureLog(t)
	var hijackErr error
	handler := func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		_, _, hijackErr = hj.Hijack()
	}
	Logging()(handler)(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.ErrorIs(t, hijackErr, errHijackUnsupported)
}

func TestLoggingUpgradesWebsocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	echo := func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(kind, msg)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", Logging()(echo))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)))
	_, got, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"ping"}`, string(got))
}
