package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newLocaleRequest(headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.4:80"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		fallback string
		country  string
		want     string
	}{
		{name: "explicit locale wins", headers: map[string]string{"X-Locale": "ID"}, country: "US", want: "id"},
		{name: "accept-language", headers: map[string]string{"Accept-Language": "fr-CA,en;q=0.5"}, want: "fr"},
		{name: "unsupported explicit locale skipped", headers: map[string]string{"X-Locale": "sw", "Accept-Language": "de-DE"}, want: "de"},
		{name: "country language", country: "JP", want: "ja"},
		{name: "country english", country: "US", want: "en"},
		{name: "configured fallback", fallback: "pt-BR", want: "pt"},
		{name: "nothing known", want: "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := detectLocale(newLocaleRequest(tc.headers), tc.fallback, tc.country)
			if got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := map[string]string{
		"":           "",
		" pt-BR ":    "pt",
		"ID":         "id",
		"es-419":     "es",
		"zh-Hant-TW": "zh",
		"sw":         "",
		"%%bogus%":   "",
	}
	for in, want := range tests {
		if got := normalizeLocale(in); got != want {
			t.Fatalf("normalizeLocale(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveCountry(t *testing.T) {
	failing := func(string) (string, error) { return "", errors.New("lookup failed") }
	tests := []struct {
		name    string
		headers map[string]string
		lookup  CountryLookup
		want    string
	}{
		{name: "proxy header order", headers: map[string]string{"X-Country-Code": "us", "CF-IPCountry": "id"}, want: "US"},
		{name: "explicit locale region", headers: map[string]string{"X-Locale": "en-AU"}, want: "AU"},
		{name: "area code is not a country", headers: map[string]string{"X-Locale": "es-419"}, lookup: failing, want: ""},
		{name: "accept-language region", headers: map[string]string{"Accept-Language": "en-GB,en;q=0.9"}, want: "GB"},
		{name: "bare language has no region", headers: map[string]string{"Accept-Language": "id;q=0.8"}, want: ""},
		{
			name: "geoip lookup",
			lookup: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					return "", errors.New("unexpected ip " + ip)
				}
				return "my", nil
			},
			want: "MY",
		},
		{name: "geoip failure", lookup: failing, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveCountry(newLocaleRequest(tc.headers), tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestI18NMiddleware(t *testing.T) {
	var locale, country string
	h := I18N("en", func(string) (string, error) { return "fr", nil })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), newLocaleRequest(nil))
	if locale != "fr" || country != "FR" {
		t.Fatalf("locale=%q country=%q, want fr FR", locale, country)
	}
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	if got := LocaleFromContext(ctx); got != "en" {
		t.Fatalf("LocaleFromContext() default = %q", got)
	}
	if got := CountryFromContext(ctx); got != "" {
		t.Fatalf("CountryFromContext() default = %q", got)
	}
	ctx = context.WithValue(ctx, LocaleKey, "ja")
	if got := LocaleFromContext(ctx); got != "ja" {
		t.Fatalf("LocaleFromContext() = %q, want ja", got)
	}
}
