// Package context provides timeout helpers for background probes.
package context

import (
	"context"
	"time"
)

// ProbeTimeout bounds health probes against dependencies.
const ProbeTimeout = 3 * time.Second

// WithProbeTimeout returns a background context that expires after ProbeTimeout.
// Health checkers run outside any request, so they start from Background.
func WithProbeTimeout() (context.Context, context.CancelFunc) {
	return WithTimeout(ProbeTimeout)
}

// WithTimeout returns a background context that expires after d.
func WithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
