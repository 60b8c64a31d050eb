package tenant

import "time"

// Config holds tenant resolution settings loaded from the environment.
type Config struct {
	Store         string        `env:"TENANT_STORE" envDefault:"memory"`              // Store backend: memory, postgres or mongo.
	SeedFile      string        `env:"TENANT_SEED_FILE"`                              // SeedFile is a YAML file loaded into the memory store.
	HostHeader    string        `env:"TENANT_HOST_HEADER"`                            // HostHeader, when set, is read instead of the Host header (trusted proxies only).
	CacheTTL      time.Duration `env:"TENANT_CACHE_TTL" envDefault:"0s"`              // CacheTTL enables resolution caching when positive.
	CacheSize     int           `env:"TENANT_CACHE_SIZE" envDefault:"1000"`           // CacheSize bounds the in-memory cache.
	CacheBackend  string        `env:"TENANT_CACHE_BACKEND" envDefault:"memory"`      // CacheBackend: memory or redis.
	RequireActive bool          `env:"TENANT_REQUIRE_ACTIVE" envDefault:"true"`       // RequireActive rejects inactive tenants.
	SkipPaths     []string      `env:"TENANT_SKIP_PATHS" envDefault:"/health,/hooks"` // SkipPaths bypass resolution.
}

// Extractor returns the host extractor described by the config.
func (c Config) Extractor() HostExtractor {
	if c.HostHeader == "" {
		return NewRequestHostExtractor()
	}
	return NewHeaderHostExtractor(c.HostHeader)
}
