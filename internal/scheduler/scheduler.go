package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a recurring unit of work triggered on an interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time) error
}

// Scheduler drives a set of interval jobs on time.Ticker goroutines.
type Scheduler struct {
	logger   *slog.Logger
	jobs     []Job
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{logger: logger, jobs: jobs}
}

// Start begins ticking every registered job. Each job also fires once
// immediately so a fresh deployment does not wait a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})

	for _, job := range s.jobs {
		if job.Interval <= 0 || job.Run == nil {
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.runOnce(ctx, job, time.Now())
	for {
		select {
		case t := <-ticker.C:
			s.runOnce(ctx, job, t)
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job, now time.Time) {
	if err := job.Run(ctx, now); err != nil {
		s.logger.Error("scheduled job failed", "job", job.Name, "error", err)
	}
}

// Stop halts all job goroutines and waits for in-flight runs to finish.
// The stop channel is only ever closed, never reassigned, so a loop that is
// mid-job when Stop is called still observes the close on its next select.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}
