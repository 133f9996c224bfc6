package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

const (
	// HeaderXForwardedFor lists the client and any proxies in front of us.
	HeaderXForwardedFor = "X-Forwarded-For"
	// HeaderXRealIP carries the client address set by a single proxy.
	HeaderXRealIP = "X-Real-IP"
)

// ClientIP returns a middleware that stores the client address in context.
// Forwarding headers are honored only when trustProxy is set and, if
// trustedProxies is non-empty, only when the peer is one of them.
func ClientIP(trustProxy bool, trustedProxies []string) Middleware {
	trusted := make(map[string]struct{}, len(trustedProxies))
	for _, ip := range trustedProxies {
		trusted[ip] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractClientIP(r, trustProxy, trusted)
			ctx := context.WithValue(r.Context(), ClientIPKey, ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractClientIP(r *http.Request, trustProxy bool, trusted map[string]struct{}) string {
	peer := hostOnly(r.RemoteAddr)
	if !trustProxy {
		return peer
	}
	if len(trusted) > 0 {
		if _, ok := trusted[peer]; !ok {
			return peer
		}
	}

	if xff := r.Header.Get(HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(HeaderXRealIP)); net.ParseIP(ip) != nil {
		return ip
	}
	return peer
}

// hostOnly strips the port from a host:port address.
func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
