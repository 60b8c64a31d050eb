package pg

import "time"

// Config holds the PostgreSQL pool and migration settings.
type Config struct {
	URL               string        `env:"PG_URL,required"`                        // URL is the postgres connection string.
	MaxConns          int32         `env:"PG_MAX_CONNS" envDefault:"10"`           // MaxConns caps the pool size.
	MinConns          int32         `env:"PG_MIN_CONNS" envDefault:"2"`            // MinConns keeps warm connections for the resolution hot path.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime closes connections idle for longer.
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime recycles connections older than this.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"2s"` // RetryInterval is multiplied by the attempt number between attempts.

	MigrationsPath  string `env:"PG_MIGRATIONS_PATH"`                                    // MigrationsPath overrides the embedded migrations with a directory.
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"tenantkit_migrations"` // MigrationsTable stores the applied goose versions.
}
