package subscription_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/subscription"
	"github.com/dmitrymomot/tenantkit/pkg/webhook"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []subscription.CreatedMessage
	err  error
}

func (p *fakePublisher) PublishCreated(_ context.Context, msg subscription.CreatedMessage) (uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return uuid.Nil, p.err
	}
	p.msgs = append(p.msgs, msg)
	return uuid.New(), nil
}

func serve(t *testing.T, h http.Handler, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/hooks/subscriptions", strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewWebhookHandler(t *testing.T) {
	t.Parallel()

	_, err := subscription.NewWebhookHandler(nil)
	assert.ErrorIs(t, err, subscription.ErrPublisherNil)
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	created := `{"type":"subscription.created","data":{"id":"sub_123","status":"active"}}`

	tests := []struct {
		name      string
		body      string
		status    int
		published bool
	}{
		{name: "created", body: created, status: http.StatusAccepted, published: true},
		{name: "other event", body: `{"type":"subscription.updated","data":{"id":"sub_1"}}`, status: http.StatusNoContent},
		{name: "malformed json", body: `{"type":`, status: http.StatusBadRequest},
		{name: "missing type", body: `{"data":{"id":"sub_1"}}`, status: http.StatusBadRequest},
		{name: "missing data", body: `{"type":"subscription.created"}`, status: http.StatusBadRequest},
		{name: "too large", body: `{"type":"subscription.created","data":{"id":"` + strings.Repeat("x", 256) + `"}}`, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub := &fakePublisher{}
			h, err := subscription.NewWebhookHandler(pub,
				subscription.WithMaxBodySize(200),
				subscription.WithWebhookLogger(quietLogger()),
			)
			require.NoError(t, err)

			rec := serve(t, h, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)

			if !tt.published {
				assert.Empty(t, pub.msgs)
				return
			}
			require.Len(t, pub.msgs, 1)
			assert.Equal(t, map[string]any{"id": "sub_123", "status": "active"}, pub.msgs[0].Payload())

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			_, err = uuid.Parse(resp["task_id"])
			assert.NoError(t, err)
		})
	}
}

func TestWebhookHandler_KeepsLargeIntegers(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	h, err := subscription.NewWebhookHandler(pub, subscription.WithWebhookLogger(quietLogger()))
	require.NoError(t, err)

	body := `{"type":"subscription.created","data":{"id":"sub_123","amount":9007199254740993}}`
	rec := serve(t, h, body, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, json.Number("9007199254740993"), pub.msgs[0].Payload()["amount"])

	rec = serve(t, h, `{"type":"subscription.created","data":{"id":"sub_1"}} trailing`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_PublishFailure(t *testing.T) {
	t.Parallel()

	h, err := subscription.NewWebhookHandler(&fakePublisher{err: errors.New("queue down")},
		subscription.WithWebhookLogger(quietLogger()),
	)
	require.NoError(t, err)

	rec := serve(t, h, `{"type":"subscription.created","data":{"id":"sub_1"}}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error\n", rec.Body.String())
}

func TestWebhookHandler_Signature(t *testing.T) {
	t.Parallel()

	const secret = "whsec"
	body := `{"type":"subscription.created","data":{"id":"sub_1"}}`

	signed := func(secret string, at time.Time) http.Header {
		sig, err := webhook.Sign(secret, []byte(body), at)
		require.NoError(t, err)
		h := http.Header{}
		sig.Apply(h)
		return h
	}

	tests := []struct {
		name   string
		header http.Header
		status int
	}{
		{name: "valid", header: signed(secret, time.Now()), status: http.StatusAccepted},
		{name: "unsigned", header: nil, status: http.StatusUnauthorized},
		{name: "wrong secret", header: signed("other", time.Now()), status: http.StatusUnauthorized},
		{name: "replayed", header: signed(secret, time.Now().Add(-time.Hour)), status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub := &fakePublisher{}
			h, err := subscription.NewWebhookHandler(pub,
				subscription.WithWebhookSecret(secret),
				subscription.WithSignatureMaxAge(time.Minute),
				subscription.WithWebhookLogger(quietLogger()),
			)
			require.NoError(t, err)

			rec := serve(t, h, body, tt.header)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status == http.StatusAccepted, len(pub.msgs) == 1)
		})
	}
}
