package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	registry := NewRegistry(&testJob{name: "booking-hold-expiry"}, &testJob{name: "payout-status-sync", err: errors.New("provider down")})
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &fakeLock{},
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx := context.Background()
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if success, ok := jobs[0].(*testJob); ok {
		if success.runs != 1 {
			t.Fatalf("expected success job to run once, ran %d", success.runs)
		}
	} else {
		t.Fatalf("first job type mismatch")
	}
	if failure, ok := jobs[1].(*testJob); ok {
		if failure.runs != 1 {
			t.Fatalf("expected failure job to run once, ran %d", failure.runs)
		}
	} else {
		t.Fatalf("second job type mismatch")
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "booking-hold-expiry"}
	lock := &fakeLock{acquired: true}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped while another worker holds the lock, ran %d", job.runs)
	}
}

func TestServiceHonoursJobCadence(t *testing.T) {
	sweep := &testJob{name: "booking-hold-expiry"}
	retention := &testJob{name: "outbox-retention"}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: NewRegistry(sweep, Every(retention, 24*time.Hour)),
		Lock:     &fakeLock{},
		Interval: time.Minute,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := service.runCycle(ctx); err != nil {
			t.Fatalf("run cycle: %v", err)
		}
		now = now.Add(time.Minute)
	}
	if sweep.runs != 3 {
		t.Fatalf("expected sweep on every tick, ran %d", sweep.runs)
	}
	if retention.runs != 1 {
		t.Fatalf("expected retention once per day, ran %d", retention.runs)
	}

	now = now.Add(24 * time.Hour)
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if retention.runs != 2 {
		t.Fatalf("expected retention to run again after a day, ran %d", retention.runs)
	}
}

func TestServiceSkipsLockWhenNothingDue(t *testing.T) {
	job := &testJob{name: "outbox-retention"}
	lock := &countingLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: NewRegistry(Every(job, time.Hour)),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx := context.Background()
	_ = service.runCycle(ctx)
	_ = service.runCycle(ctx)
	if job.runs != 1 || lock.acquires != 1 {
		t.Fatalf("expected one run and one acquire, got runs=%d acquires=%d", job.runs, lock.acquires)
	}
}

type countingLock struct {
	acquires int
}

func (c *countingLock) Acquire(context.Context) (bool, error) {
	c.acquires++
	return true, nil
}

func (c *countingLock) Release(context.Context) error { return nil }
