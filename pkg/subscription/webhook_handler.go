package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/webhook"
)

// DefaultMaxBodySize limits webhook bodies.
const DefaultMaxBodySize int64 = 1 << 20

// MessagePublisher publishes subscription messages.
type MessagePublisher interface {
	PublishCreated(ctx context.Context, msg CreatedMessage) (uuid.UUID, error)
}

// Event is the envelope accepted by WebhookHandler.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// WebhookHandler ingests subscription events over HTTP and publishes
// subscription.created ones to the queue. Other event types are
// acknowledged with 204 and dropped.
type WebhookHandler struct {
	publisher   MessagePublisher
	secret      string
	maxAge      time.Duration
	maxBodySize int64
	logger      *slog.Logger
}

// WebhookOption configures a WebhookHandler.
type WebhookOption func(*WebhookHandler)

// WithWebhookSecret enables signature verification.
func WithWebhookSecret(secret string) WebhookOption {
	return func(h *WebhookHandler) {
		h.secret = secret
	}
}

// WithSignatureMaxAge sets the accepted signature age.
func WithSignatureMaxAge(d time.Duration) WebhookOption {
	return func(h *WebhookHandler) {
		if d > 0 {
			h.maxAge = d
		}
	}
}

func WithMaxBodySize(n int64) WebhookOption {
	return func(h *WebhookHandler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

func WithWebhookLogger(log *slog.Logger) WebhookOption {
	return func(h *WebhookHandler) {
		if log != nil {
			h.logger = log
		}
	}
}

func NewWebhookHandler(publisher MessagePublisher, opts ...WebhookOption) (*WebhookHandler, error) {
	if publisher == nil {
		return nil, ErrPublisherNil
	}

	h := &WebhookHandler{
		publisher:   publisher,
		maxAge:      webhook.DefaultMaxAge,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("subscription.webhook"))
	return h, nil
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if h.secret != "" {
		if err := h.verify(r.Header, body); err != nil {
			h.logger.WarnContext(ctx, "webhook signature rejected", logger.Error(err))
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	event, err := decodeEvent(body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if event.Type != CreatedTaskName {
		h.logger.DebugContext(ctx, "webhook event ignored", slog.String("event_type", event.Type))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	taskID, err := h.publisher.PublishCreated(ctx, NewCreatedMessage(event.Data))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to publish subscription message", logger.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"task_id": taskID.String()})
}

func (h *WebhookHandler) verify(header http.Header, body []byte) error {
	sig, err := webhook.FromHTTPHeader(header)
	if err != nil {
		return err
	}
	return webhook.Verify(h.secret, body, sig, h.maxAge)
}

func decodeEvent(body []byte) (Event, error) {
	var event Event
	if err := decodeJSON(body, &event); err != nil {
		return Event{}, errors.Join(ErrInvalidWebhookBody, err)
	}
	if event.Type == "" {
		return Event{}, errors.Join(ErrInvalidWebhookBody, errors.New("event type is required"))
	}
	if event.Type == CreatedTaskName && event.Data == nil {
		return Event{}, errors.Join(ErrInvalidWebhookBody, errors.New("event data is required"))
	}
	return event, nil
}
