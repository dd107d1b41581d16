package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("0.1.0").Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "0.1.0", status.Version)
	assert.Empty(t, status.Checks)
}

func TestCompositeHealthChecker_AggregatesFailures(t *testing.T) {
	c := NewCompositeHealthChecker("0.1.0")
	c.AddCheck("postgres", NewPingCheck(pingerFunc(func(context.Context) error { return nil })))
	c.AddCheck("redis", NewPingCheck(pingerFunc(func(context.Context) error { return errors.New("connection refused") })))

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	require.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["postgres"].Healthy)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
	assert.Equal(t, "checks failed: redis", status.Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	c := NewCompositeHealthChecker("")
	c.SetTimeout(10 * time.Millisecond)
	c.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"].Message)
}
