// Package scheduler runs the periodic automation jobs of the server.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job on its own ticker until the context is cancelled.
type Scheduler struct {
	jobs []Job
	log  *zap.Logger
	wg   sync.WaitGroup
}

func New(log *zap.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, log: log}
}

// Start launches one goroutine per job with a positive interval and returns
// immediately. A job never overlaps with itself: a tick that fires while the
// previous run is still going is dropped by the ticker.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		if job.Interval <= 0 || job.Run == nil {
			s.log.Info("Scheduler job disabled", zap.String("job", job.Name))
			continue
		}

		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.loop(ctx, job)
		}(job)
	}
}

// Wait blocks until every job loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	s.log.Info("Scheduler job started",
		zap.String("job", job.Name),
		zap.Duration("interval", job.Interval))

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler job stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Scheduler job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()

	if err := job.Run(ctx); err != nil {
		s.log.Error("Scheduler job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}
	s.log.Info("Scheduler job finished",
		zap.String("job", job.Name),
		zap.Duration("duration", time.Since(start)))
}
