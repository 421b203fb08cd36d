package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

// scriptedPurger returns counts in order and zero once they run out.
type scriptedPurger struct {
	counts  []int64
	err     error
	cutoffs []time.Time
	limits  []int
}

func (p *scriptedPurger) DeletePublishedBefore(_ context.Context, cutoff time.Time, limit int) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	p.limits = append(p.limits, limit)
	if p.err != nil {
		return 0, p.err
	}
	if len(p.counts) == 0 {
		return 0, nil
	}
	n := p.counts[0]
	p.counts = p.counts[1:]
	return n, nil
}

func retentionJob(t *testing.T, purger *scriptedPurger, keep time.Duration, batch int) *outboxRetentionJob {
	t.Helper()
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Repository: purger,
		Retention:  keep,
		BatchSize:  batch,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	return job.(*outboxRetentionJob)
}

func TestRetentionStopsOnShortRound(t *testing.T) {
	purger := &scriptedPurger{counts: []int64{3, 3, 1, 3}}
	job := retentionJob(t, purger, 48*time.Hour, 3)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 19800))
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(purger.cutoffs) != 3 {
		t.Fatalf("rounds = %d, want 3", len(purger.cutoffs))
	}
	want := time.Date(2026, 2, 27, 6, 30, 0, 0, time.UTC)
	for i, c := range purger.cutoffs {
		if !c.Equal(want) || c.Location() != time.UTC {
			t.Fatalf("round %d cutoff = %s, want %s", i, c, want)
		}
		if purger.limits[i] != 3 {
			t.Fatalf("round %d limit = %d", i, purger.limits[i])
		}
	}
}

func TestRetentionCapsRoundsPerRun(t *testing.T) {
	counts := make([]int64, maxPurgeRounds+5)
	for i := range counts {
		counts[i] = 10
	}
	purger := &scriptedPurger{counts: counts}
	job := retentionJob(t, purger, 0, 10)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(purger.cutoffs) != maxPurgeRounds {
		t.Fatalf("rounds = %d, want %d", len(purger.cutoffs), maxPurgeRounds)
	}
}

func TestRetentionDefaults(t *testing.T) {
	job := retentionJob(t, &scriptedPurger{}, 0, 0)
	if job.keep != defaultOutboxRetention || job.batch != defaultPurgeBatch {
		t.Fatalf("defaults = %s/%d", job.keep, job.batch)
	}
	if _, err := NewOutboxRetentionJob(OutboxRetentionJobParams{}); err == nil {
		t.Fatal("expected missing logger to fail")
	}
}

func TestRetentionWrapsPurgeError(t *testing.T) {
	cause := errors.New("statement timeout")
	job := retentionJob(t, &scriptedPurger{err: cause}, time.Hour, 5)

	err := job.Run(context.Background())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "purge published outbox rows") {
		t.Fatalf("unexpected message %q", err)
	}
}
