package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_RunsJobsUntilCancelled(t *testing.T) {
	var ticks, failures int32
	ctx, cancel := context.WithCancel(context.Background())

	s := New(zap.NewNop(),
		Job{Name: "count", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			atomic.AddInt32(&ticks, 1)
			return nil
		}},
		Job{Name: "fail", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			atomic.AddInt32(&failures, 1)
			return errors.New("boom")
		}},
		Job{Name: "panic", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			panic("job exploded")
		}},
		Job{Name: "disabled", Interval: 0, Run: func(context.Context) error {
			t.Error("disabled job must not run")
			return nil
		}},
	)
	s.Start(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 2 && atomic.LoadInt32(&failures) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
