package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type processingWithdrawalSyncer interface {
	SyncProcessing(ctx context.Context) (int, error)
}

type PayoutSyncJobParams struct {
	Logger  *logger.Logger
	Payouts processingWithdrawalSyncer
}

// NewPayoutSyncJob builds the job that polls providers for withdrawals still
// in processing and applies terminal statuses.
func NewPayoutSyncJob(params PayoutSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout service required")
	}
	return &payoutSyncJob{logg: params.Logger, payouts: params.Payouts}, nil
}

type payoutSyncJob struct {
	logg    *logger.Logger
	payouts processingWithdrawalSyncer
}

func (j *payoutSyncJob) Name() string { return "payout-status-sync" }

func (j *payoutSyncJob) Run(ctx context.Context) error {
	settled, err := j.payouts.SyncProcessing(ctx)
	logCtx := j.logg.WithField(ctx, "withdrawals_settled", settled)
	if err != nil {
		return fmt.Errorf("sync processing withdrawals: %w", err)
	}
	j.logg.Info(logCtx, "payout status sync complete")
	return nil
}
