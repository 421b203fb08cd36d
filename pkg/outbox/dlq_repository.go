package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
)

var ErrDeadLetterNotFound = errors.New("dead letter not found")

// DLQRepository is the outbox_dlq table: one row per terminal publish
// failure, kept until an operator replays it.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errTxRequired
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil && len(*entry.ErrorMessage) > maxStoredError {
		msg := (*entry.ErrorMessage)[:maxStoredError]
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

// List pages newest first.
func (r *DLQRepository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.OutboxDLQ, *pagination.Cursor, error) {
	var rows []models.OutboxDLQ
	if err := r.db.WithContext(ctx).Scopes(pagination.Keyset(cursor, limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(rows, limit, func(row models.OutboxDLQ) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}

// LatestForEventTx returns the most recent failure recorded for an outbox
// event.
func (r *DLQRepository) LatestForEventTx(tx *gorm.DB, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	var row models.OutboxDLQ
	err := tx.Where("event_id = ?", eventID).Order("failed_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeadLetterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteForEventTx drops every failure recorded for an event.
func (r *DLQRepository) DeleteForEventTx(tx *gorm.DB, eventID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, errTxRequired
	}
	res := tx.Where("event_id = ?", eventID).Delete(&models.OutboxDLQ{})
	return res.RowsAffected, res.Error
}
