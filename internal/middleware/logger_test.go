package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerRecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestID(Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})))
	req := httptest.NewRequest(http.MethodPost, "/v1/generations", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "rid-1" || line["status"] != float64(http.StatusTeapot) || line["bytes"] != float64(5) {
		t.Fatalf("unexpected log line %v", line)
	}
}
