package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx, config.Config{
		DBUser: "cinema", DBHost: "127.0.0.1", DBPort: "1", DBName: "cinema",
		Port: "0", BcryptCost: 4,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open database")
}

func TestPurgerWithoutRedis(t *testing.T) {
	purge := purger(nil, config.CacheConfig{Enabled: true, Prefix: "c"}, "c:showtimes")
	assert.NotPanics(t, func() { purge(context.Background()) })
}
