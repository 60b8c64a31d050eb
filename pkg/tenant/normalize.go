package tenant

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// MaxHostLength is the DNS limit for a full host name.
	MaxHostLength = 253
	// MaxLabelLength is the DNS limit for a single label.
	MaxLabelLength = 63
)

// labelPattern: alphanumeric at both ends, hyphens allowed inside.
var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// NormalizeHost turns a raw Host value into the lookup key used by stores.
//
// Policy: surrounding whitespace is trimmed, the port is stripped, a trailing
// dot is removed and the name is Unicode case-folded. IP literals are
// returned in their canonical form. Internationalized names must be supplied
// in their ASCII (punycode) form.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("%w: empty host", ErrExtraction)
	}

	host = strings.TrimSuffix(stripPort(host), ".")
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, raw)
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	// cases.Caser is stateful, so a fresh one is used per call.
	host = cases.Fold().String(host)
	if len(host) > MaxHostLength {
		return "", fmt.Errorf("%w: host exceeds %d characters", ErrInvalidHost, MaxHostLength)
	}

	for _, label := range strings.Split(host, ".") {
		if len(label) > MaxLabelLength || !labelPattern.MatchString(label) {
			return "", fmt.Errorf("%w: %q", ErrInvalidHost, raw)
		}
	}

	return host, nil
}

func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			return host[1:end]
		}
		return host
	}
	// More than one colon without brackets is a bare IPv6 address.
	if strings.Count(host, ":") == 1 {
		if h, _, err := net.SplitHostPort(host); err == nil {
			return h
		}
	}
	return host
}
