package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultHostHeader is read by NewHeaderHostExtractor when no header name is given.
const DefaultHostHeader = "X-Forwarded-Host"

// RequestInfo is the slice of the inbound request needed for tenant
// resolution. The middleware captures it into the request context.
type RequestInfo struct {
	Host   string
	Header http.Header
}

// RequestInfoFromHTTP captures host and headers from r.
// Headers are cloned so later mutations by handlers cannot change the result.
func RequestInfoFromHTTP(r *http.Request) RequestInfo {
	return RequestInfo{
		Host:   r.Host,
		Header: r.Header.Clone(),
	}
}

type requestInfoKey struct{}

// WithRequestInfo stores request data in ctx for host extractors.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the request data captured by WithRequestInfo.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

// HostExtractor returns the raw host of the current request.
// Implementations must be side-effect free: repeated calls with the same
// context return the same result. A missing host is an ErrExtraction error,
// never an empty string.
type HostExtractor interface {
	ExtractHost(ctx context.Context) (string, error)
}

// HostExtractorFunc adapts an ordinary function to HostExtractor.
type HostExtractorFunc func(ctx context.Context) (string, error)

func (f HostExtractorFunc) ExtractHost(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticHostExtractor always returns the same host.
// Useful for tests, CLIs and single-tenant deployments.
type StaticHostExtractor string

func (s StaticHostExtractor) ExtractHost(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("%w: static host is empty", ErrExtraction)
	}
	return string(s), nil
}

// NewRequestHostExtractor reads the HTTP Host of the current request.
func NewRequestHostExtractor() HostExtractor {
	return HostExtractorFunc(func(ctx context.Context) (string, error) {
		info, ok := RequestInfoFromContext(ctx)
		if !ok {
			return "", fmt.Errorf("%w: no request in context", ErrExtraction)
		}
		if strings.TrimSpace(info.Host) == "" {
			return "", fmt.Errorf("%w: request has no host", ErrExtraction)
		}
		return info.Host, nil
	})
}

// NewHeaderHostExtractor reads the host from a request header, defaulting
// to X-Forwarded-Host. For comma-separated values the first (client-facing)
// entry wins. Only use it behind a proxy that overwrites the header.
func NewHeaderHostExtractor(header string) HostExtractor {
	if header == "" {
		header = DefaultHostHeader
	}

	return HostExtractorFunc(func(ctx context.Context) (string, error) {
		info, ok := RequestInfoFromContext(ctx)
		if !ok {
			return "", fmt.Errorf("%w: no request in context", ErrExtraction)
		}

		value := info.Header.Get(header)
		if first, _, found := strings.Cut(value, ","); found {
			value = first
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return "", fmt.Errorf("%w: header %s is empty", ErrExtraction, header)
		}
		return value, nil
	})
}

// NewForwardedHostExtractor reads the host parameter of the first element
// of the RFC 7239 Forwarded header.
func NewForwardedHostExtractor() HostExtractor {
	return HostExtractorFunc(func(ctx context.Context) (string, error) {
		info, ok := RequestInfoFromContext(ctx)
		if !ok {
			return "", fmt.Errorf("%w: no request in context", ErrExtraction)
		}

		element, _, _ := strings.Cut(info.Header.Get("Forwarded"), ",")
		for _, pair := range strings.Split(element, ";") {
			key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
			if !found || !strings.EqualFold(key, "host") {
				continue
			}
			value = strings.Trim(strings.TrimSpace(value), `"`)
			if value != "" {
				return value, nil
			}
		}

		return "", fmt.Errorf("%w: forwarded header has no host", ErrExtraction)
	})
}

// NewCompositeHostExtractor tries extractors in order and returns the first
// host found. Errors from all extractors are joined when none succeeds.
func NewCompositeHostExtractor(extractors ...HostExtractor) HostExtractor {
	return HostExtractorFunc(func(ctx context.Context) (string, error) {
		var errs []error

		for _, ex := range extractors {
			host, err := ex.ExtractHost(ctx)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if host != "" {
				return host, nil
			}
		}

		if len(errs) > 0 {
			return "", fmt.Errorf("%w: %w", ErrExtraction, errors.Join(errs...))
		}
		return "", fmt.Errorf("%w: no extractor produced a host", ErrExtraction)
	})
}
