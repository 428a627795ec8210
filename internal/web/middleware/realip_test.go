package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "10.0.0.5:4242",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "10.0.0.5:4242",
		},
		{
			name:       "trusted CIDR uses X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.5:4242",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "trusted single address uses first forwarded hop",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"},
			want:       "198.51.100.7",
		},
		{
			name:       "untrusted peer keeps address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.0.2.1:4242",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "192.0.2.1:4242",
		},
		{
			name:       "garbage header keeps address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.5:4242",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.5:4242",
		},
		{
			name:       "invalid entries are skipped",
			trusted:    []string{"bogus", " ", "::1"},
			remoteAddr: "[::1]:4242",
			headers:    map[string]string{"X-Real-IP": "2001:db8::1"},
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}
