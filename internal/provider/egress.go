package provider

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ProxyRotator round-robins outbound egress addresses.
type ProxyRotator struct {
	mu      sync.Mutex
	proxies []*url.URL
	cursor  int
}

var allowedProxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// NewProxyRotator parses entries into a rotator. Blank entries are dropped
// and entries without a scheme are treated as http.
func NewProxyRotator(entries []string) (*ProxyRotator, error) {
	r := &ProxyRotator{}
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
		}
		if !allowedProxySchemes[strings.ToLower(u.Scheme)] {
			return nil, fmt.Errorf("invalid proxy %q: unsupported scheme %q", raw, u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q: missing host", raw)
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

// Next returns the address under the cursor and advances it.
func (r *ProxyRotator) Next() (*url.URL, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return nil, false
	}
	u := r.proxies[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.proxies)
	return u, true
}

// Len returns the number of configured addresses.
func (r *ProxyRotator) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

// Proxy adapts the rotator to http.Transport.Proxy. A direct connection is
// used when no addresses are configured.
func (r *ProxyRotator) Proxy(*http.Request) (*url.URL, error) {
	u, ok := r.Next()
	if !ok {
		return nil, nil
	}
	return u, nil
}
