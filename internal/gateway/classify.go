package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
)

// NetworkRule is one category of the network error table.
type NetworkRule struct {
	Category string
	Keywords []string
}

// DefaultNetworkRules matches transport failures worth retrying on the same
// credential. Keywords are compared against the lowercased error text.
var DefaultNetworkRules = []NetworkRule{
	{Category: "timeout", Keywords: []string{"timeout", "timed out", "deadline exceeded", "curl: (28)"}},
	{Category: "connection", Keywords: []string{
		"connection reset", "connection refused", "connection aborted", "broken pipe",
		"curl: (7)", "curl: (52)", "curl: (56)",
	}},
	{Category: "dns", Keywords: []string{"no such host", "name resolution", "could not resolve", "curl: (6)"}},
	{Category: "transfer", Keywords: []string{"unexpected eof", "partial", "curl: (18)"}},
	{Category: "tls", Keywords: []string{"tls", "ssl", "handshake", "curl: (35)"}},
}

// ClassifyError reports whether err is a network failure and its category.
// A nil rules table falls back to DefaultNetworkRules.
func ClassifyError(err error, rules []NetworkRule) (string, bool) {
	if err == nil {
		return "", false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns", true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout", true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout", true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection", true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return "transfer", true
	}

	if rules == nil {
		rules = DefaultNetworkRules
	}
	text := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return r.Category, true
			}
		}
	}
	return "", false
}
