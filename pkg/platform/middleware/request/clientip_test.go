package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certifier/pkg/requestcontext"
)

func TestClientIP(t *testing.T) {
	mw, err := NewClientIP([]string{"10.0.0.0/8", "::1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct peer", "203.0.113.9:5000", nil, "203.0.113.9"},
		{"untrusted peer ignores xff", "203.0.113.9:5000", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.9"},
		{"trusted peer uses first xff hop", "10.1.2.3:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.1.2.3"}, "198.51.100.1"},
		{"trusted peer with invalid xff", "10.1.2.3:5000", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.1.2.3"},
		{"trusted peer with oversized xff", "10.1.2.3:5000", map[string]string{"X-Forwarded-For": strings.Repeat("1", MaxXFFHeaderLength+1)}, "10.1.2.3"},
		{"trusted peer uses x-real-ip", "10.1.2.3:5000", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"trusted v6 loopback", "[::1]:5000", map[string]string{"X-Forwarded-For": "2001:db8::1"}, "2001:db8::1"},
		{"empty remote", "", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := mw.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = requestcontext.ClientIP(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewClientIPRejectsGarbage(t *testing.T) {
	_, err := NewClientIP([]string{"10.0.0.0/33"})
	assert.Error(t, err)

	_, err = NewClientIP([]string{"proxy.internal"})
	assert.Error(t, err)
}
