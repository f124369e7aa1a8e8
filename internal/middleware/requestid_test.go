package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a uuid", seen)
	}
	if rr.Header().Get("X-Request-ID") != seen {
		t.Fatalf("response header %q, context %q", rr.Header().Get("X-Request-ID"), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-7")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "client-7" {
		t.Fatalf("client id not propagated: %q", seen)
	}
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	for _, rid := range []string{"has space", "line\nbreak", string(make([]byte, 200))} {
		if validRequestID(rid) {
			t.Fatalf("validRequestID(%q) = true", rid)
		}
	}
}
