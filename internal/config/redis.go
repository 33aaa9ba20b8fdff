package config

// Redis backs the booking rate limiter and the catalog response cache.
// Both switch themselves off when NewRedisClient returns nil.

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Enabled     bool
	Addr        string
	Password    string
	DB          int
	TLS         bool
	DialTimeout time.Duration
}

// LoadRedisConfig reads REDIS_* variables.  REDIS_HOST and REDIS_PORT
// together override REDIS_ADDR.
func LoadRedisConfig() RedisConfig {
	cfg := RedisConfig{
		Enabled:     envBool("REDIS_ENABLED", true),
		Addr:        envStr("REDIS_ADDR", "localhost:6379"),
		Password:    envStr("REDIS_PASSWORD", ""),
		DB:          envInt("REDIS_DB", 0),
		TLS:         envBool("REDIS_TLS", false),
		DialTimeout: envDur("REDIS_DIAL_TIMEOUT", 2*time.Second),
	}
	host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", "")
	if host != "" && port != "" {
		cfg.Addr = net.JoinHostPort(host, port)
	}
	return cfg
}

// NewRedisClient connects and pings.  It returns nil when Redis is
// disabled or unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if !cfg.Enabled {
		logrus.Info("redis disabled, rate limiting and caching off")
		return nil
	}
	opts := &redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Addr).Warn("redis unavailable, rate limiting and caching disabled")
		_ = client.Close()
		return nil
	}
	logrus.WithField("addr", cfg.Addr).Info("redis connected")
	return client
}
