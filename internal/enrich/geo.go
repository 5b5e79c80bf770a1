// Package enrich annotates graph nodes with GeoIP and address-scope data.
package enrich

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"github.com/coal/fwdash/internal/graph"
)

// maxCacheEntries bounds the per-address cache. A full cache is dropped
// and refilled.
const maxCacheEntries = 4096

// Geo resolves IP addresses to country ISO codes. A Geo without a database
// only classifies addresses by scope.
type Geo struct {
	db *geoip2.Reader

	mu    sync.RWMutex
	cache map[string]string
	limit int
}

// NewGeo opens the country database at path. An empty path disables lookups.
func NewGeo(path string) (*Geo, error) {
	g := &Geo{cache: make(map[string]string), limit: maxCacheEntries}
	if path == "" {
		return g, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database: %w", err)
	}
	g.db = db
	return g, nil
}

// Close releases the database.
func (g *Geo) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	return g.db.Close()
}

// Country returns the ISO code for ip. Private, loopback and unparseable
// addresses are reported by scope ("LAN", "LO") or "".
func (g *Geo) Country(ip string) string {
	if g == nil {
		return ""
	}
	g.mu.RLock()
	c, ok := g.cache[ip]
	g.mu.RUnlock()
	if ok {
		return c
	}

	c = g.lookup(ip)

	g.mu.Lock()
	if len(g.cache) >= g.limit {
		g.cache = make(map[string]string)
	}
	g.cache[ip] = c
	g.mu.Unlock()
	return c
}

func (g *Geo) lookup(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	switch Scope(ip) {
	case "loopback":
		return "LO"
	case "internal":
		return "LAN"
	}
	if g.db == nil {
		return ""
	}
	rec, err := g.db.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

// Annotate fills Node.Country for every node in place.
func (g *Geo) Annotate(el *graph.Elements) {
	if g == nil {
		return
	}
	for i := range el.Nodes {
		el.Nodes[i].Country = g.Country(el.Nodes[i].Label)
	}
}

// Scope returns "loopback", "internal" or "external".
func Scope(ip net.IP) string {
	if ip.IsLoopback() {
		return "loopback"
	}
	if ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return "internal"
	}
	return "external"
}
