package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/queue"
	"github.com/dmitrymomot/tenantkit/pkg/subscription"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process subscription messages from the queue",
		Long:  "Process subscription messages from the queue. Requires QUEUE_STORAGE=postgres to share tasks with serve.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			var (
				tenantCfg tenant.Config
				queueCfg  queue.Config
				subCfg    subscription.Config
			)
			if err := config.Load(&tenantCfg); err != nil {
				return err
			}
			if err := config.Load(&queueCfg); err != nil {
				return err
			}
			if err := config.Load(&subCfg); err != nil {
				return err
			}

			if queueCfg.Storage == "" || queueCfg.Storage == storeMemory {
				d.log.WarnContext(ctx, "memory queue is not shared with serve, only locally enqueued tasks run")
			}

			worker, err := d.subscriptionWorker(ctx, tenantCfg, queueCfg, subCfg)
			if err != nil {
				return err
			}
			return worker.Run(ctx)
		},
	}
}

func (d *deps) subscriptionWorker(ctx context.Context, tenantCfg tenant.Config, queueCfg queue.Config, subCfg subscription.Config) (*queue.Worker, error) {
	storage, err := d.queue(ctx, queueCfg)
	if err != nil {
		return nil, err
	}
	idem, err := d.idempotencyStore(ctx, subCfg)
	if err != nil {
		return nil, err
	}
	store, err := d.tenantStore(ctx, tenantCfg)
	if err != nil {
		return nil, err
	}

	consumer, err := subscription.NewConsumer(activateTenant(store, d.log),
		subscription.WithIdempotencyStore(idem),
		subscription.WithClaimTTL(subCfg.ClaimTTL),
		subscription.WithLeaseTTL(subCfg.LeaseTTL),
		subscription.WithConsumerLogger(d.log),
	)
	if err != nil {
		return nil, err
	}

	worker, err := queue.NewWorker(storage, append(
		queueCfg.WorkerOptions(subscription.QueueName),
		queue.WithWorkerLogger(d.log),
	)...)
	if err != nil {
		return nil, err
	}
	if err := worker.RegisterHandlers(consumer.Handler()); err != nil {
		return nil, err
	}
	return worker, nil
}

// tenantActivator is implemented by the persistent tenant stores.
type tenantActivator interface {
	SetActive(ctx context.Context, id tenant.ID, active bool) error
}

// activateTenant marks the tenant named by the payload's tenant_id (top level
// or under custom_data) active. Payloads without a tenant are only logged.
func activateTenant(store tenant.Store, log *slog.Logger) subscription.ProcessFunc {
	activator, _ := store.(tenantActivator)

	return func(ctx context.Context, msg subscription.CreatedMessage) error {
		subID, _ := msg.SubscriptionID()
		log := log.With(logger.SubscriptionID(subID))

		raw, ok := tenantIDFromPayload(msg.Payload())
		if !ok {
			log.InfoContext(ctx, "subscription without tenant reference")
			return nil
		}
		id, err := tenant.ParseID(raw)
		if err != nil {
			// malformed references never succeed on retry
			log.WarnContext(ctx, "subscription references invalid tenant id", logger.Error(err))
			return nil
		}
		if activator == nil {
			log.InfoContext(ctx, "tenant store is read-only, activation skipped", logger.TenantID(id))
			return nil
		}

		if err := activator.SetActive(ctx, id, true); err != nil {
			return err
		}
		log.InfoContext(ctx, "tenant activated", logger.TenantID(id))
		return nil
	}
}

func tenantIDFromPayload(payload map[string]any) (string, bool) {
	if id, ok := payload["tenant_id"].(string); ok && id != "" {
		return id, true
	}
	if custom, ok := payload["custom_data"].(map[string]any); ok {
		if id, ok := custom["tenant_id"].(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}
