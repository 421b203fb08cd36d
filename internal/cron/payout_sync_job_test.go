package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type fakePayoutSyncer struct {
	settled int
	err     error
	calls   int
}

func (f *fakePayoutSyncer) SyncProcessing(ctx context.Context) (int, error) {
	f.calls++
	return f.settled, f.err
}

func TestPayoutSyncJobRunsSync(t *testing.T) {
	syncer := &fakePayoutSyncer{settled: 3}
	job, err := NewPayoutSyncJob(PayoutSyncJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Payouts: syncer,
	})
	if err != nil {
		t.Fatalf("NewPayoutSyncJob: %v", err)
	}
	if job.Name() != "payout-status-sync" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if syncer.calls != 1 {
		t.Fatalf("expected one sync call, got %d", syncer.calls)
	}
}

func TestPayoutSyncJobPropagatesError(t *testing.T) {
	job, err := NewPayoutSyncJob(PayoutSyncJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Payouts: &fakePayoutSyncer{err: errors.New("provider down")},
	})
	if err != nil {
		t.Fatalf("NewPayoutSyncJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
