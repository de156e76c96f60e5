package provider

import (
	"strings"
	"sync"
)

const clearancePrefix = "cf_clearance="

// Clearance holds the edge-clearance cookie, which can be replaced at runtime.
type Clearance struct {
	mu    sync.RWMutex
	value string
}

// NewClearance returns a holder seeded with value.
func NewClearance(value string) *Clearance {
	c := &Clearance{}
	c.Set(value)
	return c
}

// Set replaces the clearance value. Both "xyz" and "cf_clearance=xyz" are accepted.
func (c *Clearance) Set(value string) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, clearancePrefix)
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// Get returns the bare clearance value.
func (c *Clearance) Get() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Cookie joins the credential with the clearance cookie when one is set.
func (c *Clearance) Cookie(credential string) string {
	v := c.Get()
	if v == "" {
		return credential
	}
	return credential + ";" + clearancePrefix + v
}
