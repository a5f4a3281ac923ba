package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters shared by the rate limiter
// and the realtime bridge.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const defaultRedisTimeout = 5 * time.Second

// Options converts the configuration into go-redis universal options.
// Comma separated addresses select cluster mode.
func (c RedisConfig) Options() *redis.UniversalOptions {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	var addrs []string
	for _, addr := range strings.Split(c.Address, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, addr)
		}
	}

	opts := &redis.UniversalOptions{
		Addrs:        addrs,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewRedisClient creates a Redis client and pings it so misconfiguration is
// surfaced during application startup.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	opts := cfg.Options()
	if len(opts.Addrs) == 0 {
		return nil, errors.New("redis: address is required")
	}

	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Address, err)
	}
	return client, nil
}
