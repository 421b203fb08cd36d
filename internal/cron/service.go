package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/metrics"
)

const defaultInterval = time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Interval is the tick. Jobs wrapped with Every run on their own,
	// longer cadence.
	Interval time.Duration
}

// Service ticks at a fixed interval and, while holding the cluster lock, runs
// every job that is due. Only this process's view of last runs is tracked, so
// a restart runs every job on the first tick.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
	lastRun  map[string]time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      time.Now,
		lastRun:  map[string]time.Time{},
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	due := s.dueJobs()
	if len(due) == 0 {
		return nil
	}

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.IncLockSkip()
		s.logg.Debug(ctx, "cron lock held elsewhere; skipping cycle")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	failed := 0
	for _, job := range due {
		if err := s.runJob(ctx, job); err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"jobs_due":    len(due),
			"jobs_failed": failed,
		}), "cron cycle finished with failures")
	}
	return nil
}

// dueJobs returns the jobs whose cadence has elapsed. A failed run still
// counts as a run so a broken dependency is not hammered every tick.
func (s *Service) dueJobs() []Job {
	now := s.now()
	var due []Job
	for _, job := range s.registry.Jobs() {
		every := cadenceOf(job)
		last, ran := s.lastRun[job.Name()]
		if every <= 0 || !ran || now.Sub(last) >= every {
			due = append(due, job)
		}
	}
	return due
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   name,
		"event": "cron.job",
	})
	start := s.now()
	s.lastRun[name] = start
	err := job.Run(jobCtx)
	finished := s.now()
	elapsed := finished.Sub(start)
	s.metrics.ObserveRun(name, elapsed, err, finished)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return err
	}
	s.logg.Debug(jobCtx, "job completed")
	return nil
}
