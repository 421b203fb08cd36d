package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DeadLetter is the operator view of a dead-lettered event.
type DeadLetter struct {
	EventID       uuid.UUID                  `json:"eventId"`
	EventType     enums.OutboxEventType      `json:"eventType"`
	AggregateType enums.OutboxAggregateType  `json:"aggregateType"`
	AggregateID   uuid.UUID                  `json:"aggregateId"`
	Reason        enums.OutboxDLQErrorReason `json:"reason"`
	Retryable     bool                       `json:"retryable"`
	Error         string                     `json:"error,omitempty"`
	Attempts      int                        `json:"attempts"`
	FailedAt      time.Time                  `json:"failedAt"`
}

type DeadLetterPage struct {
	Items  []DeadLetter `json:"items"`
	Cursor string       `json:"cursor,omitempty"`
}

// DeadLetters lists terminal publish failures and puts them back in the
// publisher's queue.
type DeadLetters struct {
	db     txRunner
	events *Repository
	dlq    *DLQRepository
	logg   *logger.Logger
}

func NewDeadLetters(db txRunner, events *Repository, dlq *DLQRepository, logg *logger.Logger) (*DeadLetters, error) {
	if db == nil || events == nil || dlq == nil || logg == nil {
		return nil, errors.New("dead letters: db, repositories and logger are required")
	}
	return &DeadLetters{db: db, events: events, dlq: dlq, logg: logg}, nil
}

func (d *DeadLetters) List(ctx context.Context, params pagination.Params) (*DeadLetterPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := d.dlq.List(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dead letters")
	}
	page := &DeadLetterPage{Items: make([]DeadLetter, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, toDeadLetter(row))
	}
	if next != nil {
		page.Cursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// Replay makes the event publishable again and clears its failures. A row
// already removed from outbox_events is recreated from the stored payload.
func (d *DeadLetters) Replay(ctx context.Context, eventID uuid.UUID) (*DeadLetter, error) {
	var replayed DeadLetter
	err := d.db.WithTx(ctx, func(tx *gorm.DB) error {
		entry, err := d.dlq.LatestForEventTx(tx, eventID)
		if err != nil {
			return err
		}
		reset, err := d.events.ResetTx(tx, eventID)
		if err != nil {
			return err
		}
		if !reset {
			err := d.events.Insert(tx, entry.Requeued())
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "event was already published")
			}
			if err != nil {
				return err
			}
		}
		if _, err := d.dlq.DeleteForEventTx(tx, eventID); err != nil {
			return err
		}
		replayed = toDeadLetter(*entry)
		return nil
	})
	switch {
	case errors.Is(err, ErrDeadLetterNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no dead letter for event")
	case err != nil:
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replay dead letter")
	}

	d.logg.Info(d.logg.WithFields(ctx, map[string]any{
		"event_id":       eventID.String(),
		"event_type":     replayed.EventType,
		"aggregate_type": replayed.AggregateType,
		"aggregate_id":   replayed.AggregateID.String(),
	}), "dead letter requeued")
	return &replayed, nil
}

func toDeadLetter(row models.OutboxDLQ) DeadLetter {
	view := DeadLetter{
		EventID:       row.EventID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		Reason:        row.ErrorReason,
		Retryable:     row.ErrorReason.Retryable(),
		Attempts:      row.AttemptCount,
		FailedAt:      row.FailedAt,
	}
	if row.ErrorMessage != nil {
		view.Error = *row.ErrorMessage
	}
	return view
}
