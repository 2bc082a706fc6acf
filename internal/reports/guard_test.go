package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryGuard(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()
	key := GuardKey(7, FormatPDF)

	release, err := g.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = g.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	other, err := g.Acquire(ctx, GuardKey(7, FormatExcel))
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := g.Acquire(ctx, key)
	require.NoError(t, err)
	again()
}

func TestGuardKey(t *testing.T) {
	assert.Equal(t, "taskflow:report:3:xlsx", GuardKey(3, FormatExcel))
}

// scriptedRedis answers SET itself and fails every other command, so the
// guard can be exercised without a server.
type scriptedRedis struct{}

func (scriptedRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "set" {
			cmd.(*redis.BoolCmd).SetVal(true)
			return nil
		}
		err := errors.New("connection reset by peer")
		cmd.SetErr(err)
		return err
	}
}

func (scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisGuard_LogsFailedRelease(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(scriptedRedis{})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zap.WarnLevel)
	g := NewRedisGuard(client, time.Minute, zap.New(core))

	release, err := g.Acquire(context.Background(), GuardKey(5, FormatPDF))
	require.NoError(t, err)
	release()
	release()

	entries := logs.FilterMessageSnippet("Failed to release report lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, GuardKey(5, FormatPDF), entries[0].ContextMap()["key"])
}
