package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". Nil errors produce an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the package or subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// TenantID records a tenant identifier. Accepts any fmt.Stringer-compatible value.
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// TenantHost records the host used for tenant resolution.
func TenantHost(host string) slog.Attr {
	return slog.String("tenant_host", host)
}

// RequestID records the id of the inbound request.
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

// SubscriptionID records a billing subscription identifier.
func SubscriptionID(id string) slog.Attr {
	return slog.String("subscription_id", id)
}

// TaskID records a queue task identifier.
func TaskID(id any) slog.Attr {
	return slog.Any("task_id", id)
}

// Queue records a queue name.
func Queue(name string) slog.Attr {
	return slog.String("queue", name)
}

func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
