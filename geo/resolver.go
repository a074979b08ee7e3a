// api/geo/resolver.go
package geo

import (
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oschwald/geoip2-golang"

	"visitstats/api/config"
	"visitstats/api/models"
)

// Resolver maps a client address to an ISO country code, or models.Unknown.
type Resolver interface {
	Country(ip string) string
}

var (
	_ Resolver = UnknownResolver{}
	_ Resolver = (*GeoIPResolver)(nil)
)

// UnknownResolver is used when no GeoIP database is configured.
type UnknownResolver struct{}

func (UnknownResolver) Country(string) string { return models.Unknown }

type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// GeoIPResolver looks addresses up in a MaxMind country database and keeps
// recent answers in an expiring LRU.
type GeoIPResolver struct {
	db    countryReader
	cache *expirable.LRU[string, string]
}

func newGeoIPResolver(db countryReader, size int, ttl time.Duration) *GeoIPResolver {
	if size <= 0 {
		size = 1024
	}
	return &GeoIPResolver{
		db:    db,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// OpenGeoIP opens the .mmdb file at path.
func OpenGeoIP(path string, size int, ttl time.Duration) (*GeoIPResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return newGeoIPResolver(db, size, ttl), nil
}

// NewResolver returns a GeoIP-backed resolver when a database is configured
// and readable, and an UnknownResolver otherwise.
func NewResolver(cfg config.GeoConfig) Resolver {
	if cfg.GeoIPPath == "" {
		slog.Info("GEOIP_DB_PATH not set, countries will be recorded as Unknown")
		return UnknownResolver{}
	}
	r, err := OpenGeoIP(cfg.GeoIPPath, cfg.CacheSize, cfg.CacheTTL.Std())
	if err != nil {
		slog.Warn("GeoIP database not available, falling back to Unknown", "path", cfg.GeoIPPath, "error", err)
		return UnknownResolver{}
	}
	slog.Info("GeoIP database loaded", "path", cfg.GeoIPPath)
	return r
}

func (r *GeoIPResolver) Country(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return models.Unknown
	}
	if code, ok := r.cache.Get(ip); ok {
		return code
	}

	code := r.lookup(ip)
	r.cache.Add(ip, code)
	return code
}

func (r *GeoIPResolver) lookup(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return models.Unknown
	}
	record, err := r.db.Country(parsed)
	if err != nil {
		slog.Debug("GeoIP lookup failed", "ip", ip, "error", err)
		return models.Unknown
	}
	if record == nil || record.Country.IsoCode == "" {
		return models.Unknown
	}
	return record.Country.IsoCode
}

func (r *GeoIPResolver) Close() error {
	return r.db.Close()
}
