package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// tenantAdmin is implemented by the postgres and mongo tenant stores.
type tenantAdmin interface {
	Create(ctx context.Context, t *tenant.Tenant) error
	Get(ctx context.Context, id tenant.ID) (*tenant.Tenant, error)
	AddHosts(ctx context.Context, id tenant.ID, hosts ...string) error
	RemoveHost(ctx context.Context, host string) error
	SetActive(ctx context.Context, id tenant.ID, active bool) error
	Delete(ctx context.Context, id tenant.ID) error
}

var errReadOnlyStore = errors.New("tenant store is read-only, set TENANT_STORE to postgres or mongo")

func tenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants and their hosts",
	}
	cmd.AddCommand(
		tenantCreateCommand(),
		tenantResolveCommand(),
		tenantHostsCommand(),
		tenantActivateCommand("activate", true),
		tenantActivateCommand("deactivate", false),
		tenantDeleteCommand(),
	)
	return cmd
}

// withTenantStore opens the configured store and runs fn with it.
func withTenantStore(ctx context.Context, fn func(d *deps, cfg tenant.Config, store tenant.Store) error) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	var cfg tenant.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	store, err := d.tenantStore(ctx, cfg)
	if err != nil {
		return err
	}
	return fn(d, cfg, store)
}

func withTenantAdmin(ctx context.Context, fn func(admin tenantAdmin) error) error {
	return withTenantStore(ctx, func(_ *deps, _ tenant.Config, store tenant.Store) error {
		admin, ok := store.(tenantAdmin)
		if !ok {
			return errReadOnlyStore
		}
		return fn(admin)
	})
}

func printTenant(cmd *cobra.Command, t *tenant.Tenant) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

func tenantCreateCommand() *cobra.Command {
	var (
		name     string
		plan     string
		hosts    []string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withTenantAdmin(ctx, func(admin tenantAdmin) error {
				t := &tenant.Tenant{
					ID:     tenant.NewID(),
					Name:   name,
					Hosts:  hosts,
					PlanID: plan,
					Active: !inactive,
				}
				if err := admin.Create(ctx, t); err != nil {
					return err
				}
				created, err := admin.Get(ctx, t.ID)
				if err != nil {
					return err
				}
				return printTenant(cmd, created)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "tenant name")
	cmd.Flags().StringVar(&plan, "plan", "", "plan id")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "host the tenant is reachable on (repeatable)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the tenant inactive")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

func tenantResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve HOST",
		Short: "Resolve a host the way the HTTP middleware does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withTenantStore(ctx, func(d *deps, cfg tenant.Config, store tenant.Store) error {
				provider, err := tenant.NewProvider(cfg.Extractor(), store,
					tenant.WithRequireActive(cfg.RequireActive),
					tenant.WithProviderLogger(d.log),
				)
				if err != nil {
					return err
				}
				t, err := provider.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				return printTenant(cmd, t)
			})
		},
	}
}

func tenantHostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Add or remove tenant hosts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add TENANT_ID HOST...",
		Short: "Register hosts for a tenant",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := tenant.ParseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withTenantAdmin(ctx, func(admin tenantAdmin) error {
				return admin.AddHosts(ctx, id, args[1:]...)
			})
		},
	}, &cobra.Command{
		Use:   "remove HOST",
		Short: "Unregister a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withTenantAdmin(ctx, func(admin tenantAdmin) error {
				return admin.RemoveHost(ctx, args[0])
			})
		},
	})
	return cmd
}

func tenantActivateCommand(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " TENANT_ID",
		Short: fmt.Sprintf("Mark a tenant %sd", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := tenant.ParseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withTenantAdmin(ctx, func(admin tenantAdmin) error {
				return admin.SetActive(ctx, id, active)
			})
		},
	}
}

func tenantDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TENANT_ID",
		Short: "Delete a tenant and its hosts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := tenant.ParseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withTenantAdmin(ctx, func(admin tenantAdmin) error {
				return admin.Delete(ctx, id)
			})
		},
	}
}
