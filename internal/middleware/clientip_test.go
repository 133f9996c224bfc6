package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		trusted    []string
		expected   string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.0.2.1:1234",
			expected:   "192.0.2.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.1",
			expected:   "192.0.2.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			expected:   "2001:db8::1",
		},
		{
			name:       "forwarded header ignored without trust",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{HeaderXForwardedFor: "203.0.113.5"},
			expected:   "10.0.0.1",
		},
		{
			name:       "first forwarded address when trusted",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{HeaderXForwardedFor: "203.0.113.5, 10.0.0.9"},
			trustProxy: true,
			expected:   "203.0.113.5",
		},
		{
			name:       "real ip fallback",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{HeaderXRealIP: "203.0.113.7"},
			trustProxy: true,
			expected:   "203.0.113.7",
		},
		{
			name:       "garbage forwarded value falls back",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{HeaderXForwardedFor: "not-an-ip", HeaderXRealIP: "203.0.113.7"},
			trustProxy: true,
			expected:   "203.0.113.7",
		},
		{
			name:       "untrusted peer",
			remoteAddr: "10.0.0.2:80",
			headers:    map[string]string{HeaderXForwardedFor: "203.0.113.5"},
			trustProxy: true,
			trusted:    []string{"10.0.0.1"},
			expected:   "10.0.0.2",
		},
		{
			name:       "listed peer",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{HeaderXForwardedFor: "203.0.113.5"},
			trustProxy: true,
			trusted:    []string{"10.0.0.1"},
			expected:   "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := ClientIP(tt.trustProxy, tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetClientIP(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expected, got)
		})
	}
}
