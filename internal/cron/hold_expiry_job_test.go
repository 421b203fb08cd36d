package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type fakeHoldExpirer struct {
	count int
	err   error
	calls []time.Time
}

func (f *fakeHoldExpirer) ExpireStaleHolds(ctx context.Context, now time.Time) (int, error) {
	f.calls = append(f.calls, now)
	return f.count, f.err
}

func newHoldExpiryJobTest(t *testing.T, bookings, purchases *fakeHoldExpirer) *holdExpiryJob {
	t.Helper()
	params := HoldExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Bookings: bookings,
	}
	if purchases != nil {
		params.Purchases = purchases
	}
	jobIface, err := NewHoldExpiryJob(params)
	if err != nil {
		t.Fatalf("NewHoldExpiryJob: %v", err)
	}
	job, ok := jobIface.(*holdExpiryJob)
	if !ok {
		t.Fatalf("expected holdExpiryJob, got %T", jobIface)
	}
	return job
}

func TestHoldExpiryJobSweepsBookingsAndPurchases(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	bookings := &fakeHoldExpirer{count: 2}
	purchases := &fakeHoldExpirer{count: 1}
	job := newHoldExpiryJobTest(t, bookings, purchases)
	job.now = func() time.Time { return now }

	if job.Name() != "booking-hold-expiry" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bookings.calls) != 1 || !bookings.calls[0].Equal(now) {
		t.Fatalf("expected one booking sweep at %s, got %v", now, bookings.calls)
	}
	if len(purchases.calls) != 1 || !purchases.calls[0].Equal(now) {
		t.Fatalf("expected one purchase sweep at %s, got %v", now, purchases.calls)
	}
}

func TestHoldExpiryJobRunsPurchasesWhenBookingsFail(t *testing.T) {
	bookings := &fakeHoldExpirer{err: errors.New("db down")}
	purchases := &fakeHoldExpirer{}
	job := newHoldExpiryJobTest(t, bookings, purchases)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected booking sweep error")
	}
	if len(purchases.calls) != 1 {
		t.Fatalf("expected purchase sweep despite booking failure, got %d calls", len(purchases.calls))
	}
}

func TestHoldExpiryJobRequiresBookings(t *testing.T) {
	_, err := NewHoldExpiryJob(HoldExpiryJobParams{Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard})})
	if err == nil {
		t.Fatal("expected error without booking expirer")
	}
}
