package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	prevInitial, prevMax := initialBackoff, maxBackoff
	initialBackoff, maxBackoff = time.Millisecond, 2*time.Millisecond
	t.Cleanup(func() { initialBackoff, maxBackoff = prevInitial, prevMax })
}

func TestWaitFor_RecoversAfterFailures(t *testing.T) {
	fastBackoff(t)
	calls := 0
	err := waitFor(context.Background(), "redis", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitFor_GivesUp(t *testing.T) {
	fastBackoff(t)
	calls := 0
	err := waitFor(context.Background(), "mariadb", func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	assert.EqualError(t, err, "pinging mariadb: connection refused")
	assert.Equal(t, maxPingAttempts, calls)
}

func TestWaitFor_StopsOnCancel(t *testing.T) {
	fastBackoff(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := waitFor(ctx, "redis", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("connection refused")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
