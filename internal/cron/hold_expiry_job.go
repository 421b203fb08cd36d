package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"go.uber.org/multierr"
)

// holdExpirer is implemented by every payable that holds stock or access
// while its payment is pending.
type holdExpirer interface {
	ExpireStaleHolds(ctx context.Context, now time.Time) (int, error)
}

// ExpirerFunc adapts a plain sweep function to the job.
type ExpirerFunc func(ctx context.Context, now time.Time) (int, error)

func (f ExpirerFunc) ExpireStaleHolds(ctx context.Context, now time.Time) (int, error) {
	return f(ctx, now)
}

// HoldExpiryJobParams configure the booking-hold-expiry sweep.
type HoldExpiryJobParams struct {
	Logger    *logger.Logger
	Bookings  holdExpirer
	Purchases holdExpirer
}

// NewHoldExpiryJob builds the cron job that expires lapsed booking and video
// purchase holds.
func NewHoldExpiryJob(params HoldExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking expirer required")
	}
	return &holdExpiryJob{
		logg:      params.Logger,
		bookings:  params.Bookings,
		purchases: params.Purchases,
		now:       time.Now,
	}, nil
}

type holdExpiryJob struct {
	logg      *logger.Logger
	bookings  holdExpirer
	purchases holdExpirer
	now       func() time.Time
}

func (j *holdExpiryJob) Name() string { return "booking-hold-expiry" }

// Run sweeps bookings then purchases. A failure in one sweep does not skip
// the other.
func (j *holdExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs error

	bookings, err := j.bookings.ExpireStaleHolds(ctx, now)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("expire booking holds: %w", err))
	}
	purchases := 0
	if j.purchases != nil {
		purchases, err = j.purchases.ExpireStaleHolds(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire purchase holds: %w", err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"bookings_expired":  bookings,
		"purchases_expired": purchases,
	})
	j.logg.Info(logCtx, "hold expiry sweep complete")
	return errs
}
