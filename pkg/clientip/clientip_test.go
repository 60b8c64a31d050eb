package clientip_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tenantkit/pkg/clientip"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

func TestResolver_IP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted headers ignored",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1", "X-Real-IP": "198.51.100.2"},
			want:       "10.0.0.1",
		},
		{
			name:       "first trusted header wins",
			trusted:    []string{clientip.HeaderCFConnectingIP, clientip.HeaderXForwardedFor},
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.9", "X-Forwarded-For": "198.51.100.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "forwarded chain uses left-most",
			trusted:    []string{clientip.HeaderXForwardedFor},
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.2, 10.0.0.3"},
			want:       "198.51.100.1",
		},
		{
			name:       "invalid header falls through",
			trusted:    []string{"x-real-ip"},
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "<script>"},
			want:       "10.0.0.1",
		},
		{
			name:       "ipv6 remote",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "ipv4 mapped",
			trusted:    []string{clientip.HeaderXRealIP},
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "::ffff:192.0.2.1"},
			want:       "192.0.2.1",
		},
		{
			name:       "zone dropped",
			remoteAddr: "[fe80::1%eth0]:80",
			want:       "fe80::1",
		},
		{
			name:       "remote without port",
			remoteAddr: "192.0.2.5",
			want:       "192.0.2.5",
		},
		{
			name:       "garbage remote",
			remoteAddr: "not-an-ip",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.New(tt.trusted...).IP(req))
		})
	}
}

func TestConfig_Resolver(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:80"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")

	res := clientip.Config{TrustedHeaders: []string{" ", "X-Forwarded-For"}}.Resolver()
	assert.Equal(t, "198.51.100.1", res.IP(req))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(clientip.LoggerExtractor()))

	var got string
	h := clientip.New().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
		log.InfoContext(r.Context(), "request")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.10", got)
	assert.Contains(t, buf.String(), `"client_ip":"192.0.2.10"`)
	assert.Empty(t, clientip.FromContext(context.Background()))
}
