package earnings

import (
	"context"
	"errors"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for vendor earnings entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOnce(ctx context.Context, entry *models.VendorEarning) (bool, error)
	FindEntry(ctx context.Context, entryType enums.EarningEntryType, sourceType string, sourceID uuid.UUID) (*models.VendorEarning, error)
	Balance(ctx context.Context, vendorID uuid.UUID) (int64, error)
	List(ctx context.Context, params listParams) ([]models.VendorEarning, *pagination.Cursor, error)
}

type listParams struct {
	VendorID uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an earnings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOnce inserts the entry unless one already exists for its source and
// reports whether a row was written.
func (r *repository) CreateOnce(ctx context.Context, entry *models.VendorEarning) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindEntry(ctx context.Context, entryType enums.EarningEntryType, sourceType string, sourceID uuid.UUID) (*models.VendorEarning, error) {
	var entry models.VendorEarning
	err := r.db.WithContext(ctx).
		Where("entry_type = ? AND source_type = ? AND source_id = ?", entryType, sourceType, sourceID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Balance(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.VendorEarning{}).
		Where("vendor_id = ?", vendorID).
		Select("COALESCE(SUM(net_minor), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.VendorEarning, *pagination.Cursor, error) {
	var entries []models.VendorEarning
	err := r.db.WithContext(ctx).
		Model(&models.VendorEarning{}).
		Where("vendor_id = ?", params.VendorID).
		Scopes(pagination.Keyset(params.Cursor, params.Limit)).
		Find(&entries).Error
	if err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(entries, params.Limit, func(e models.VendorEarning) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return page, next, nil
}
