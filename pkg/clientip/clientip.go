package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Common proxy headers, in the order they are usually trusted.
const (
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
)

// Resolver finds the client address of a request. Forwarding headers are
// only read when listed as trusted; otherwise the TCP peer is used.
type Resolver struct {
	trusted []string
}

// New returns a Resolver that consults the trusted headers in order before
// falling back to RemoteAddr. With no headers only RemoteAddr is used,
// which is the safe choice when the service is reachable directly.
func New(trustedHeaders ...string) *Resolver {
	headers := make([]string, 0, len(trustedHeaders))
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{trusted: headers}
}

// IP returns the normalized client address, or "" when none is valid.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.trusted {
		value := r.Header.Get(h)
		if value == "" {
			continue
		}
		if h == HeaderXForwardedFor {
			// the left-most entry is the original client
			value, _, _ = strings.Cut(value, ",")
		}
		if ip := parse(value); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parse(r.RemoteAddr)
	}
	return parse(host)
}

func parse(raw string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	// zones are host-local and would split one client into many keys
	return addr.WithZone("").Unmap().String()
}
