package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/casa-helloworld/internal/config"
)

// NewRedis connects to the sessions and OTP store and waits for it to
// answer.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = "casa-helloworld"
	}
	client := redis.NewClient(opts)

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := waitFor(ctx, "redis", ping); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
