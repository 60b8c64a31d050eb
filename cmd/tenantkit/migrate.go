package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantkit/migrations"
	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL migrations for tenants and the task queue",
		Long: "Apply the PostgreSQL migrations for tenants and the task queue.\n" +
			"The embedded migrations are used unless PG_MIGRATIONS_PATH points to a directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			var cfg pg.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			pool, err := d.postgres(ctx)
			if err != nil {
				return err
			}

			if cfg.MigrationsPath != "" {
				return pg.Migrate(ctx, pool, cfg, d.log)
			}
			return pg.MigrateFS(ctx, pool, migrations.FS, cfg, d.log)
		},
	}
}
