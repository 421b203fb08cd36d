package outbox

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/dbtest"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
)

func newDeadLetters(t *testing.T) (*DeadLetters, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	d, err := NewDeadLetters(dbpkg.NewFromConn(db), NewRepository(db), NewDLQRepository(db),
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return d, db
}

func deadLetter(t *testing.T, db *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, failedAt time.Time) {
	t.Helper()
	msg := "publish failed"
	require.NoError(t, NewDLQRepository(db).InsertTx(db, models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  10,
		FailedAt:      failedAt,
		CreatedAt:     failedAt,
	}))
}

func dlqCount(t *testing.T, db *gorm.DB, eventID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.OutboxDLQ{}).Where("event_id = ?", eventID).Count(&n).Error)
	return n
}

func TestReplayResetsParkedEvent(t *testing.T) {
	d, db := newDeadLetters(t)
	now := time.Now().UTC()
	event := seedEvent(t, db, now, func(e *models.OutboxEvent) { e.AttemptCount = 10 })
	deadLetter(t, db, event, enums.OutboxDLQReasonMaxAttempts, now.Add(-time.Minute))
	deadLetter(t, db, event, enums.OutboxDLQReasonNonRetryable, now)

	replayed, err := d.Replay(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, replayed.Reason)
	assert.False(t, replayed.Retryable)
	assert.Equal(t, "publish failed", replayed.Error)

	stored := loadEvent(t, db, event.ID)
	assert.Zero(t, stored.AttemptCount)
	assert.Nil(t, stored.LastError)
	assert.Zero(t, dlqCount(t, db, event.ID))
}

func TestReplayRecreatesMissingEvent(t *testing.T) {
	d, db := newDeadLetters(t)
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventWithdrawalRequested,
		AggregateType: enums.AggregateVendor,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"data":{}}`),
	}
	deadLetter(t, db, event, enums.OutboxDLQReasonMaxAttempts, time.Now().UTC())

	_, err := d.Replay(context.Background(), event.ID)
	require.NoError(t, err)

	stored := loadEvent(t, db, event.ID)
	assert.Equal(t, event.EventType, stored.EventType)
	assert.Equal(t, event.AggregateID, stored.AggregateID)
	assert.Nil(t, stored.PublishedAt)
	assert.JSONEq(t, string(event.Payload), string(stored.Payload))
}

func TestReplayRejectsPublishedEvent(t *testing.T) {
	d, db := newDeadLetters(t)
	now := time.Now().UTC()
	event := seedEvent(t, db, now, func(e *models.OutboxEvent) { e.PublishedAt = &now })
	deadLetter(t, db, event, enums.OutboxDLQReasonMaxAttempts, now)

	_, err := d.Replay(context.Background(), event.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.EqualValues(t, 1, dlqCount(t, db, event.ID))
}

func TestReplayUnknownEvent(t *testing.T) {
	d, _ := newDeadLetters(t)

	_, err := d.Replay(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListDeadLetters(t *testing.T) {
	d, db := newDeadLetters(t)
	now := time.Now().UTC()
	older := seedEvent(t, db, now, nil)
	newer := seedEvent(t, db, now, nil)
	deadLetter(t, db, older, enums.OutboxDLQReasonMaxAttempts, now.Add(-time.Minute))
	deadLetter(t, db, newer, enums.OutboxDLQReasonMaxAttempts, now)

	page, err := d.List(context.Background(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newer.ID, page.Items[0].EventID)
	assert.True(t, page.Items[0].Retryable)
	assert.Empty(t, page.Cursor)

	_, err = d.List(context.Background(), pagination.Params{Cursor: "%%%"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
