package api

import (
	"context"
	"time"
)

// QueryTimeout bounds a single document store call
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// Detached returns a context that outlives the request, for best-effort work that
// must finish after the response has been written
func Detached() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), QueryTimeout)
}
