// Package geoip resolves an IP address to a coarse, city-level location.
package geoip

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Unknown is reported for any location component that cannot be resolved.
const Unknown = "Unknown"

// Location is a city-level position. It never carries the address it was resolved from.
type Location struct {
	Country  string
	Province string
	City     string
}

// UnknownLocation is the location returned when nothing resolves.
func UnknownLocation() Location {
	return Location{Country: Unknown, Province: Unknown, City: Unknown}
}

// Resolver maps an IP to a Location. Implementations must be safe for concurrent use.
// A lookup failure is not fatal to the caller, which falls back to UnknownLocation.
type Resolver interface {
	Lookup(ctx context.Context, ip net.IP) (Location, error)
}

// StubResolver resolves every address to UnknownLocation.
type StubResolver struct{}

// NewStubResolver creates a StubResolver.
func NewStubResolver() *StubResolver {
	return &StubResolver{}
}

// Lookup always returns UnknownLocation.
func (s *StubResolver) Lookup(ctx context.Context, ip net.IP) (Location, error) {
	return UnknownLocation(), nil
}

// MaxMindResolver resolves addresses against a MaxMind GeoIP2/GeoLite2 City database.
type MaxMindResolver struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

// NewMaxMindResolver opens the City database at path.
func NewMaxMindResolver(path string) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip city database: %w", err)
	}
	return &MaxMindResolver{reader: reader}, nil
}

// Lookup returns the English names of the country, first subdivision and city.
// Components missing from the database record are reported as Unknown.
func (m *MaxMindResolver) Lookup(ctx context.Context, ip net.IP) (Location, error) {
	if ip == nil {
		return UnknownLocation(), fmt.Errorf("invalid ip address")
	}
	if err := ctx.Err(); err != nil {
		return UnknownLocation(), err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.reader == nil {
		return UnknownLocation(), fmt.Errorf("geoip reader is closed")
	}

	record, err := m.reader.City(ip)
	if err != nil {
		return UnknownLocation(), fmt.Errorf("geoip lookup failed: %w", err)
	}

	loc := UnknownLocation()
	if name := record.Country.Names["en"]; name != "" {
		loc.Country = name
	} else if record.Country.IsoCode != "" {
		loc.Country = record.Country.IsoCode
	}
	if len(record.Subdivisions) > 0 {
		if name := record.Subdivisions[0].Names["en"]; name != "" {
			loc.Province = name
		}
	}
	if name := record.City.Names["en"]; name != "" {
		loc.City = name
	}

	return loc, nil
}

// Close releases the database. Further lookups fail.
func (m *MaxMindResolver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reader == nil {
		return nil
	}
	err := m.reader.Close()
	m.reader = nil
	return err
}
