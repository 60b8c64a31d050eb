// Package pg bootstraps the PostgreSQL layer used by the tenant store and the
// task queue: a pgx/v5 connection pool with retries, a health probe, goose
// migrations and a couple of error classifiers.
//
// Migrations ship inside the binary (see the migrations package) and are
// applied with MigrateFS; Migrate runs them from a directory instead, which
// is handy while iterating on a schema locally.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, migrations.FS, cfg, slog.Default()); err != nil {
//		return err
//	}
//
// Use IsDuplicateKeyError and IsNotFoundError to classify pgx errors inside
// repositories instead of matching SQLSTATE codes inline.
package pg
