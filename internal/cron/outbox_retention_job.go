package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultPurgeBatch      = 500
	maxPurgeRounds         = 20
)

type publishedOutboxPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository publishedOutboxPurger
	// Retention is how long published rows are kept. Unpublished and
	// dead-lettered rows are never purged.
	Retention time.Duration
	BatchSize int
}

type outboxRetentionJob struct {
	logg   *logger.Logger
	purger publishedOutboxPurger
	keep   time.Duration
	batch  int
	now    func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Repository == nil:
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:   params.Logger,
		purger: params.Repository,
		keep:   params.Retention,
		batch:  params.BatchSize,
		now:    time.Now,
	}
	if job.keep <= 0 {
		job.keep = defaultOutboxRetention
	}
	if job.batch <= 0 {
		job.batch = defaultPurgeBatch
	}
	return job, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes in bounded rounds; whatever is left waits for the next run.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.keep)
	var total int64
	rounds := 0
	for rounds < maxPurgeRounds {
		rounds++
		n, err := j.purger.DeletePublishedBefore(ctx, cutoff, j.batch)
		if err != nil {
			return fmt.Errorf("purge published outbox rows before %s: %w", cutoff.Format(time.RFC3339), err)
		}
		total += n
		if n < int64(j.batch) {
			break
		}
	}
	if total == 0 {
		j.logg.Debug(ctx, "no published outbox rows to purge")
		return nil
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": total,
		"rounds":  rounds,
	}), "published outbox rows purged")
	return nil
}
