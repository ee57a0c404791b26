package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backoff bounds for waiting on a backend that is still starting.
var (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

const (
	maxPingAttempts = 10
	pingTimeout     = 5 * time.Second
)

// waitFor calls ping until it succeeds, ctx ends, or the attempts run out,
// doubling the pause between tries.
func waitFor(ctx context.Context, backend string, ping func(context.Context) error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == maxPingAttempts || ctx.Err() != nil {
			break
		}

		slog.Warn(backend+" not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return fmt.Errorf("pinging %s: %w", backend, err)
}
