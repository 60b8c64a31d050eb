package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/tenantkit/pkg/clientip"
	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	mongokit "github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/queue"
	"github.com/dmitrymomot/tenantkit/pkg/ratelimiter"
	"github.com/dmitrymomot/tenantkit/pkg/redis"
	"github.com/dmitrymomot/tenantkit/pkg/requestid"
	"github.com/dmitrymomot/tenantkit/pkg/subscription"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/tenant/mongostore"
	"github.com/dmitrymomot/tenantkit/pkg/tenant/pgstore"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
	storeMongo    = "mongo"
	backendRedis  = "redis"
)

// queueStorage is what both the enqueuer and the worker need.
type queueStorage interface {
	queue.EnqueuerRepository
	queue.WorkerRepository
}

// deps opens backing services lazily so a command only connects to what
// its configuration selects.
type deps struct {
	log *slog.Logger

	pool     *pgxpool.Pool
	rdb      *goredis.Client
	redisCfg redis.Config
	mdb      *mongo.Database

	tenants    tenant.Store
	queueStore queueStorage
	limits     *ratelimiter.MemoryStore
	checks     []httpserver.Check
}

func newDeps() (*deps, error) {
	var cfg logger.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	log := logger.NewFromConfig(cfg, logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		clientip.LoggerExtractor(),
		tenant.LoggerExtractor(),
	))
	slog.SetDefault(log)
	return &deps{log: log}, nil
}

func (d *deps) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if d.pool != nil {
		return d.pool, nil
	}

	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d.pool = pool
	d.checks = append(d.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
	return pool, nil
}

func (d *deps) redis(ctx context.Context) (*goredis.Client, string, error) {
	if d.rdb != nil {
		return d.rdb, d.redisCfg.KeyPrefix, nil
	}

	if err := config.Load(&d.redisCfg); err != nil {
		return nil, "", err
	}
	client, err := redis.Connect(ctx, d.redisCfg)
	if err != nil {
		return nil, "", err
	}

	d.rdb = client
	d.checks = append(d.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	return client, d.redisCfg.KeyPrefix, nil
}

func (d *deps) mongo(ctx context.Context) (*mongo.Database, error) {
	if d.mdb != nil {
		return d.mdb, nil
	}

	var cfg mongokit.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	db, err := mongokit.ConnectDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d.mdb = db
	d.checks = append(d.checks, httpserver.Check{Name: "mongo", Fn: mongokit.Healthcheck(db.Client())})
	return db, nil
}

// tenantStore returns the store selected by TENANT_STORE.
func (d *deps) tenantStore(ctx context.Context, cfg tenant.Config) (tenant.Store, error) {
	if d.tenants != nil {
		return d.tenants, nil
	}
	store, err := d.openTenantStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.tenants = store
	return store, nil
}

func (d *deps) openTenantStore(ctx context.Context, cfg tenant.Config) (tenant.Store, error) {
	switch cfg.Store {
	case "", storeMemory:
		if cfg.SeedFile == "" {
			d.log.WarnContext(ctx, "memory tenant store without seed file, every host is unknown")
			return tenant.NewMemoryStore()
		}
		store, err := tenant.NewMemoryStoreFromFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	case storePostgres:
		pool, err := d.postgres(ctx)
		if err != nil {
			return nil, err
		}
		store, err := pgstore.New(pool)
		if err != nil {
			return nil, err
		}
		return store, nil
	case storeMongo:
		db, err := d.mongo(ctx)
		if err != nil {
			return nil, err
		}
		store, err := mongostore.New(db, mongostore.DefaultCollection)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown tenant store %q", cfg.Store)
	}
}

// tenantProvider wires the store and optional cache into a provider.
func (d *deps) tenantProvider(ctx context.Context, cfg tenant.Config) (*tenant.HostProvider, error) {
	store, err := d.tenantStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []tenant.ProviderOption{
		tenant.WithRequireActive(cfg.RequireActive),
		tenant.WithProviderLogger(d.log),
	}
	if cfg.CacheTTL > 0 {
		cache, err := d.tenantCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tenant.WithCache(cache, cfg.CacheTTL))
	}

	return tenant.NewProvider(cfg.Extractor(), store, opts...)
}

func (d *deps) tenantCache(ctx context.Context, cfg tenant.Config) (tenant.Cache, error) {
	switch cfg.CacheBackend {
	case "", storeMemory:
		return tenant.NewMemoryCache(cfg.CacheSize), nil
	case backendRedis:
		client, prefix, err := d.redis(ctx)
		if err != nil {
			return nil, err
		}
		return tenant.NewRedisCache(client, prefix+tenant.DefaultRedisKeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown tenant cache backend %q", cfg.CacheBackend)
	}
}

func (d *deps) queue(ctx context.Context, cfg queue.Config) (queueStorage, error) {
	if d.queueStore != nil {
		return d.queueStore, nil
	}

	switch cfg.Storage {
	case "", storeMemory:
		d.queueStore = queue.NewMemoryStorage(queue.WithRetryBackoff(cfg.RetryBackoff))
	case storePostgres:
		pool, err := d.postgres(ctx)
		if err != nil {
			return nil, err
		}
		storage, err := queue.NewPostgresStorage(pool, cfg.RetryBackoff)
		if err != nil {
			return nil, err
		}
		d.queueStore = storage
	default:
		return nil, fmt.Errorf("unknown queue storage %q", cfg.Storage)
	}
	return d.queueStore, nil
}

func (d *deps) publisher(ctx context.Context, qcfg queue.Config, scfg subscription.Config) (*subscription.Publisher, error) {
	storage, err := d.queue(ctx, qcfg)
	if err != nil {
		return nil, err
	}
	enqueuer, err := queue.NewEnqueuer(storage, queue.WithDefaultMaxRetries(scfg.MaxRetries))
	if err != nil {
		return nil, err
	}
	return subscription.NewPublisher(enqueuer), nil
}

func (d *deps) idempotencyStore(ctx context.Context, cfg subscription.Config) (subscription.IdempotencyStore, error) {
	if cfg.IdempotencyBackend != backendRedis {
		return cfg.IdempotencyStore(nil, "")
	}
	client, prefix, err := d.redis(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.IdempotencyStore(client, prefix+subscription.DefaultRedisIdempotencyPrefix)
}

func (d *deps) rateLimiter(ctx context.Context, cfg ratelimiter.Config) (*ratelimiter.Bucket, error) {
	var client goredis.UniversalClient
	prefix := ratelimiter.DefaultRedisKeyPrefix
	if cfg.Backend == backendRedis {
		rdb, p, err := d.redis(ctx)
		if err != nil {
			return nil, err
		}
		client, prefix = rdb, p+prefix
	}

	store, err := cfg.Store(client, prefix)
	if err != nil {
		return nil, err
	}
	if ms, ok := store.(*ratelimiter.MemoryStore); ok {
		d.limits = ms
	}
	return ratelimiter.NewBucket(store, cfg)
}

func (d *deps) Close() {
	if d.limits != nil {
		_ = d.limits.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
	if d.rdb != nil {
		if err := d.rdb.Close(); err != nil {
			d.log.Warn("failed to close redis client", logger.Error(err))
		}
	}
	if d.mdb != nil {
		if err := d.mdb.Client().Disconnect(context.Background()); err != nil {
			d.log.Warn("failed to disconnect mongo client", logger.Error(err))
		}
	}
}
