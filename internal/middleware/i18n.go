package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// supportedLocales are the languages generated copy can be written in. English first:
// it is what the matcher falls back to.
var supportedLocales = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
	language.Dutch,
	language.Indonesian,
	language.Japanese,
	language.Korean,
	language.SimplifiedChinese,
	language.TraditionalChinese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// countryHeaders are set by CDNs and load balancers in front of the API.
var countryHeaders = []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}

// I18N stores the request locale and country on the context. The locale is forwarded
// to the model provider so generated copy matches the requester's language.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			ctx := context.WithValue(r.Context(), LocaleKey, detectLocale(r, defaultLocale, country))
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale tries X-Locale, Accept-Language, the country's main language and the
// configured fallback, in that order. Only supported locales are returned.
func detectLocale(r *http.Request, fallback, country string) string {
	candidates := []func() string{
		func() string { return normalizeLocale(r.Header.Get("X-Locale")) },
		func() string { return acceptedLocale(r.Header.Get("Accept-Language")) },
		func() string { return countryLocale(country) },
		func() string { return normalizeLocale(fallback) },
	}
	for _, c := range candidates {
		if v := c(); v != "" {
			return v
		}
	}
	return "en"
}

func acceptedLocale(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return matchLocale(tags...)
}

// normalizeLocale maps a BCP 47 tag onto a supported base language, e.g. "pt-BR" to "pt".
func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	return matchLocale(tag)
}

// countryLocale guesses the dominant language of an ISO country code.
func countryLocale(country string) string {
	if country == "" {
		return ""
	}
	region, err := language.ParseRegion(country)
	if err != nil {
		return ""
	}
	tag, err := language.Compose(language.Und, region)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return matchLocale(language.Make(base.String()))
}

func matchLocale(tags ...language.Tag) string {
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	base, _ := supportedLocales[idx].Base()
	return base.String()
}

// ClientIP returns the first valid X-Forwarded-For address, else the remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry finds the requester's country from proxy headers, then the region of
// an explicit locale, then a GeoIP lookup of the client address.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if region := tagRegion(r.Header.Get("X-Locale")); region != "" {
		return region
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		for _, tag := range tags {
			if region := regionOf(tag); region != "" {
				return region
			}
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

func tagRegion(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return ""
	}
	return regionOf(tag)
}

// regionOf returns an explicitly given country subtag. Inferred regions ("en" implies
// US) and area codes like 419 do not count.
func regionOf(tag language.Tag) string {
	region, conf := tag.Region()
	if conf != language.Exact || !region.IsCountry() {
		return ""
	}
	return region.String()
}
