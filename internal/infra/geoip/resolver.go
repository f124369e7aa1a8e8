package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// cacheLimit bounds remembered lookups; the cache is dropped wholesale when full.
const cacheLimit = 4096

// CountryResolver resolves ISO country codes from IP addresses.
type CountryResolver interface {
	CountryCode(ip string) (string, error)
}

// countryReader is the part of *geoip2.Reader the resolver uses.
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// Resolver looks up countries in a MaxMind database. Answers are cached per IP since
// the same clients poll job status repeatedly.
type Resolver struct {
	reader countryReader
	mu     sync.Mutex
	cache  map[string]string
}

// NewResolver opens the GeoIP database at path. An empty path yields a nil resolver.
func NewResolver(path string) (CountryResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return newResolver(reader), nil
}

func newResolver(reader countryReader) *Resolver {
	return &Resolver{reader: reader, cache: make(map[string]string)}
}

// CountryCode returns the upper-case ISO country code for ip, or "" when unknown.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	key := parsed.String()

	r.mu.Lock()
	code, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return code, nil
	}

	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record != nil {
		code = strings.ToUpper(record.Country.IsoCode)
	}

	r.mu.Lock()
	if len(r.cache) >= cacheLimit {
		r.cache = make(map[string]string)
	}
	r.cache[key] = code
	r.mu.Unlock()
	return code, nil
}

func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
