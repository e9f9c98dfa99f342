package request

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"certifier/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds X-Forwarded-For before it is parsed.
const MaxXFFHeaderLength = 500

// ClientIP resolves the caller address and stores it with
// requestcontext.WithClientIP. Forwarding headers are honoured only when
// the direct peer is inside one of trusted.
type ClientIP struct {
	trusted []netip.Prefix
}

// NewClientIP parses CIDR prefixes. Bare addresses are accepted as /32 or /128.
func NewClientIP(trusted []string) (*ClientIP, error) {
	m := &ClientIP{}
	for _, raw := range trusted {
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("parse trusted proxy %q: %w", raw, err)
			}
			m.trusted = append(m.trusted, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("parse trusted proxy %q: %w", raw, err)
		}
		m.trusted = append(m.trusted, prefix)
	}
	return m, nil
}

func (m *ClientIP) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientIP(r.Context(), m.resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *ClientIP) resolve(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}
	if !m.isTrusted(remoteIP) {
		return remoteIP
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && len(xri) <= MaxXFFHeaderLength {
			if _, err := netip.ParseAddr(xri); err == nil {
				return xri
			}
		}
		return remoteIP
	}
	if len(xff) > MaxXFFHeaderLength {
		return remoteIP
	}

	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)
	if _, err := netip.ParseAddr(first); err != nil {
		return remoteIP
	}
	return first
}

func (m *ClientIP) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr strips the port from host:port and [v6]:port.
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]")); err == nil {
		return addr.String()
	}
	return remoteAddr
}
