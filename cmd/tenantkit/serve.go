package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantkit/pkg/clientip"
	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/queue"
	"github.com/dmitrymomot/tenantkit/pkg/ratelimiter"
	"github.com/dmitrymomot/tenantkit/pkg/requestid"
	"github.com/dmitrymomot/tenantkit/pkg/subscription"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

const webhookPath = "/hooks/subscriptions"

func serveCommand() *cobra.Command {
	var withWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: "Start the HTTP server that resolves tenants by host and ingests subscription webhooks.\n" +
			"With the memory queue the subscription worker always runs in-process.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, withWorker)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "also run the subscription worker in this process")
	return cmd
}

func runServe(ctx context.Context, withWorker bool) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	var (
		httpCfg   httpserver.Config
		tenantCfg tenant.Config
		queueCfg  queue.Config
		subCfg    subscription.Config
		ipCfg     clientip.Config
		limitCfg  ratelimiter.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&tenantCfg) },
		func() error { return config.Load(&queueCfg) },
		func() error { return config.Load(&subCfg) },
		func() error { return config.Load(&ipCfg) },
		func() error { return config.Load(&limitCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	provider, err := d.tenantProvider(ctx, tenantCfg)
	if err != nil {
		return err
	}
	publisher, err := d.publisher(ctx, queueCfg, subCfg)
	if err != nil {
		return err
	}
	hooks, err := subscription.NewWebhookHandler(publisher,
		append(subCfg.WebhookOptions(), subscription.WithWebhookLogger(d.log))...)
	if err != nil {
		return err
	}

	limiter, err := d.rateLimiter(ctx, limitCfg)
	if err != nil {
		return err
	}
	ips := ipCfg.Resolver()

	var worker *queue.Worker
	if withWorker || queueCfg.Storage == "" || queueCfg.Storage == storeMemory {
		if worker, err = d.subscriptionWorker(ctx, tenantCfg, queueCfg, subCfg); err != nil {
			return err
		}
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(ips.Middleware)
	r.Use(tenant.Middleware(provider,
		tenant.WithSkipPaths(tenantCfg.SkipPaths...),
		tenant.WithLogger(d.log),
	))

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(d.log, 2*time.Second, d.checks...))
	r.With(ratelimiter.Middleware(limiter, ratelimiter.ByIP(ips), ratelimiter.WithLogger(d.log))).
		Post(webhookPath, hooks.ServeHTTP)
	r.With(ratelimiter.Middleware(limiter, ratelimiter.Composite(byTenant, ratelimiter.ByIP(ips)), ratelimiter.WithLogger(d.log))).
		Get("/tenant", currentTenant)

	g, ctx := errgroup.WithContext(ctx)

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(d.log))
	g.Go(func() error { return srv.Run(ctx, r) })

	if worker != nil {
		g.Go(func() error { return worker.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		d.log.ErrorContext(ctx, "server stopped with error", logger.Error(err))
		return err
	}
	return nil
}

// byTenant keys requests by the resolved tenant.
func byTenant(r *http.Request) string {
	if id, ok := tenant.IDFromContext(r.Context()); ok {
		return "tenant:" + id.String()
	}
	return ""
}

// currentTenant answers with the tenant resolved for the request host.
func currentTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unknown tenant", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t)
}
