package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// HostProvider resolves tenants by the host of the current request.
// It is the isolation boundary: every tenant-scoped operation downstream
// trusts the tenant it returns. Safe for concurrent use.
type HostProvider struct {
	extractor     HostExtractor
	store         Store
	cache         Cache
	cacheTTL      time.Duration
	requireActive bool
	logger        *slog.Logger
}

// NewProvider builds a provider. Caching is disabled unless WithCache is given,
// so by default every call resolves against the store.
func NewProvider(extractor HostExtractor, store Store, opts ...ProviderOption) (*HostProvider, error) {
	if extractor == nil {
		return nil, ErrExtractorNil
	}
	if store == nil {
		return nil, ErrStoreNil
	}

	p := &HostProvider{
		extractor:     extractor,
		store:         store,
		requireActive: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Get extracts the host from ctx and resolves it.
func (p *HostProvider) Get(ctx context.Context) (*Tenant, error) {
	host, err := p.extractor.ExtractHost(ctx)
	if err != nil {
		if !errors.Is(err, ErrExtraction) {
			err = fmt.Errorf("%w: %w", ErrExtraction, err)
		}
		return nil, err
	}
	return p.Resolve(ctx, host)
}

// Resolve maps a raw host to its tenant.
func (p *HostProvider) Resolve(ctx context.Context, rawHost string) (*Tenant, error) {
	host, err := NormalizeHost(rawHost)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, host); ok && cached.HasHost(host) {
			if err := p.check(cached); err != nil {
				return nil, err
			}
			return cached, nil
		}
	}

	matches, err := p.store.FindByHost(ctx, host)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, fmt.Errorf("%w: host %q", ErrTenantNotFound, host)
		}
		return nil, fmt.Errorf("tenant lookup for host %q: %w", host, err)
	}

	t, err := p.pick(ctx, host, matches)
	if err != nil {
		return nil, err
	}
	if err := p.check(t); err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, host, t, p.cacheTTL); err != nil {
			p.logger.WarnContext(ctx, "failed to cache tenant",
				logger.Component("tenant"),
				logger.TenantHost(host),
				logger.Error(err))
		}
	}

	return t.Clone(), nil
}

// Invalidate drops a cached host, e.g. after its tenant was updated.
func (p *HostProvider) Invalidate(ctx context.Context, rawHost string) error {
	if p.cache == nil {
		return nil
	}
	host, err := NormalizeHost(rawHost)
	if err != nil {
		return err
	}
	return p.cache.Delete(ctx, host)
}

// pick enforces that exactly one tenant owns host.
func (p *HostProvider) pick(ctx context.Context, host string, matches []*Tenant) (*Tenant, error) {
	unique := make([]*Tenant, 0, len(matches))
	for _, m := range matches {
		if m == nil {
			continue
		}
		duplicate := false
		for _, u := range unique {
			if u.ID.Equal(m.ID) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, m)
		}
	}

	switch len(unique) {
	case 0:
		return nil, fmt.Errorf("%w: host %q", ErrTenantNotFound, host)
	case 1:
		if !unique[0].HasHost(host) {
			p.logger.ErrorContext(ctx, "store returned tenant not registered for host",
				logger.Component("tenant"),
				logger.TenantHost(host),
				slog.String("tenant_id", unique[0].ID.String()))
			return nil, fmt.Errorf("%w: tenant %s does not own host %q", ErrResolutionConflict, unique[0].ID, host)
		}
		return unique[0], nil
	default:
		ids := make([]string, len(unique))
		for i, u := range unique {
			ids[i] = u.ID.String()
		}
		p.logger.ErrorContext(ctx, "tenant resolution conflict: host registered for multiple tenants",
			logger.Component("tenant"),
			logger.TenantHost(host),
			slog.Any("tenant_ids", ids))
		return nil, fmt.Errorf("%w: host %q is claimed by %d tenants", ErrResolutionConflict, host, len(unique))
	}
}

func (p *HostProvider) check(t *Tenant) error {
	if p.requireActive && !t.Active {
		return fmt.Errorf("%w: %s", ErrInactiveTenant, t.ID)
	}
	return nil
}

// ProviderOption configures a HostProvider.
type ProviderOption func(*HostProvider)

// WithCache enables caching of resolved tenants for ttl.
// Non-positive ttl or nil cache keeps caching disabled.
func WithCache(cache Cache, ttl time.Duration) ProviderOption {
	return func(p *HostProvider) {
		if cache == nil || ttl <= 0 {
			return
		}
		p.cache = cache
		p.cacheTTL = ttl
	}
}

// WithRequireActive controls whether inactive tenants are rejected. Defaults to true.
func WithRequireActive(require bool) ProviderOption {
	return func(p *HostProvider) {
		p.requireActive = require
	}
}

// WithProviderLogger sets the logger used for integrity alerts.
func WithProviderLogger(l *slog.Logger) ProviderOption {
	return func(p *HostProvider) {
		if l != nil {
			p.logger = l
		}
	}
}
