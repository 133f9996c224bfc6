// Package middleware contains the HTTP middleware wrapped around every route.
package middleware

import (
	"context"
	"net/http"

	"github.com/tinylink/tinylink/pkg/logger"
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

type contextKey string

const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey contextKey = "request_id"
	// ClientIPKey is the context key for the client IP.
	ClientIPKey contextKey = "client_ip"
)

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetClientIP retrieves the client IP from context.
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ClientIPKey).(string)
	return ip
}

// Chain holds a sequence of middlewares. The first one is outermost.
type Chain struct {
	middlewares []Middleware
}

// New creates a chain from the given middlewares.
func New(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: append([]Middleware{}, middlewares...)}
}

// Then wraps h with the chain.
func (c *Chain) Then(h http.Handler) http.Handler {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}

// Append returns a new chain with middlewares added at the inner end.
// c is not modified.
func (c *Chain) Append(middlewares ...Middleware) *Chain {
	merged := make([]Middleware, 0, len(c.middlewares)+len(middlewares))
	merged = append(merged, c.middlewares...)
	merged = append(merged, middlewares...)
	return &Chain{middlewares: merged}
}

// Options configure the standard stack.
type Options struct {
	Logger         *logger.Logger
	TrustProxy     bool
	TrustedProxies []string
}

// Standard returns the chain every route runs behind: panic recovery,
// request ID, client IP, access logging, then metrics.
func Standard(opts Options) *Chain {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return New(
		Recovery(log),
		RequestID(),
		ClientIP(opts.TrustProxy, opts.TrustedProxies),
		Logging(log),
		Metrics(),
	)
}
