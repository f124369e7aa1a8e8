package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{"forwarded first hop", " 203.0.113.1 , 198.51.100.2 ", "198.51.100.10:1234", "203.0.113.1"},
		{"skips invalid hops", "unknown, 203.0.113.7", "198.51.100.10:1234", "203.0.113.7"},
		{"no valid forwarded ip", "invalid", "198.51.100.10:1234", "198.51.100.10"},
		{"no header", "", "198.51.100.10:1234", "198.51.100.10"},
		{"ipv6 forwarded", "2001:db8::1", net.JoinHostPort("2001:db8::2", "443"), "2001:db8::1"},
		{"ipv6 remote", "", net.JoinHostPort("2001:db8::2", "443"), "2001:db8::2"},
		{"remote without port", "", "203.0.113.1", "203.0.113.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
	if got := ClientIP(nil); got != "" {
		t.Fatalf("ClientIP(nil) = %q", got)
	}
}

func TestRateLimitPerRequester(t *testing.T) {
	h := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	do := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/generations", nil)
		req.RemoteAddr = "198.51.100.10:1234"
		if user != "" {
			req = req.WithContext(ContextWithUserID(req.Context(), user))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	first := do("")
	if first.Code != http.StatusNoContent || first.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("first request: status %d remaining %q", first.Code, first.Header().Get("X-RateLimit-Remaining"))
	}
	if rr := do(""); rr.Code != http.StatusNoContent {
		t.Fatalf("second request: status %d", rr.Code)
	}
	rr := do("")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" || rr.Header().Get("X-RateLimit-Limit") != "2" {
		t.Fatalf("missing limit headers: %v", rr.Header())
	}
	if rr := do("user-1"); rr.Code != http.StatusNoContent {
		t.Fatalf("authenticated requester shares the anonymous bucket: %d", rr.Code)
	}
}

func TestLimiterWindowResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	if ok, _, _ := l.take("a"); !ok {
		t.Fatal("first take denied")
	}
	ok, remaining, resetAt := l.take("a")
	if ok || remaining != 0 || !resetAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("second take = %v %d %v", ok, remaining, resetAt)
	}
	if ok, _, _ := l.take("b"); !ok {
		t.Fatal("keys must not share a window")
	}

	now = now.Add(time.Minute)
	if ok, _, _ := l.take("a"); !ok {
		t.Fatal("window did not reset")
	}
	if _, found := l.windows["b"]; found {
		t.Fatal("expired window was not swept")
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}
}
