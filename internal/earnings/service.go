package earnings

import (
	"context"
	"fmt"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source types recorded against earnings entries.
const (
	SourcePayment    = "payment_transaction"
	SourceWithdrawal = "vendor_withdrawal"
)

var ErrInsufficientBalance = pkgerrors.New(pkgerrors.CodeBusinessRule, "withdrawal exceeds available balance")

// Service records vendor balance movements. Every entry is unique per
// (entry type, source), so retries never double count.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (*models.VendorEarning, bool, error)
	DebitRefund(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID) (bool, error)
	Hold(ctx context.Context, tx *gorm.DB, input HoldInput) error
	ReleaseHold(ctx context.Context, tx *gorm.DB, input HoldInput) (bool, error)
	Balance(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (int64, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// CreditInput describes a completed sale owed to a vendor.
type CreditInput struct {
	VendorID   uuid.UUID
	SourceID   uuid.UUID
	GrossMinor int64
	Currency   enums.Currency
}

// HoldInput reserves part of the balance for a withdrawal.
type HoldInput struct {
	VendorID     uuid.UUID
	WithdrawalID uuid.UUID
	AmountMinor  int64
	Currency     enums.Currency
}

type ListParams struct {
	VendorID uuid.UUID
	Limit    int
	Cursor   string
}

type ListResult struct {
	Items        []models.VendorEarning `json:"items"`
	BalanceMinor int64                  `json:"balanceMinor"`
	Cursor       string                 `json:"cursor,omitempty"`
}

type service struct {
	repo          Repository
	commissionBps int64
}

// NewService wires an earnings service; commissionBps is the platform cut of
// every sale.
func NewService(repo Repository, commissionBps int64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if commissionBps < 0 || commissionBps > 10000 {
		return nil, fmt.Errorf("commission bps out of range: %d", commissionBps)
	}
	return &service{repo: repo, commissionBps: commissionBps}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (*models.VendorEarning, bool, error) {
	if input.VendorID == uuid.Nil {
		return nil, false, fmt.Errorf("vendor id is required")
	}
	if input.SourceID == uuid.Nil {
		return nil, false, fmt.Errorf("source id is required")
	}
	if input.GrossMinor <= 0 {
		return nil, false, fmt.Errorf("gross amount must be positive")
	}

	commission := money.BasisPoints(input.GrossMinor, s.commissionBps)
	entry := &models.VendorEarning{
		ID:              uuid.New(),
		VendorID:        input.VendorID,
		EntryType:       enums.EarningSaleCredit,
		SourceType:      SourcePayment,
		SourceID:        input.SourceID,
		GrossMinor:      input.GrossMinor,
		CommissionMinor: commission,
		NetMinor:        input.GrossMinor - commission,
		Currency:        input.Currency,
	}
	created, err := s.insertOnce(ctx, tx, entry)
	if err != nil {
		return nil, false, err
	}
	return entry, created, nil
}

// DebitRefund claws back the net credit of a refunded payment. It is a no-op
// when the payment never credited a vendor.
func (s *service) DebitRefund(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID) (bool, error) {
	credit, err := s.repo.WithTx(tx).FindEntry(ctx, enums.EarningSaleCredit, SourcePayment, sourceID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale credit")
	}
	if credit == nil {
		return false, nil
	}

	return s.insertOnce(ctx, tx, &models.VendorEarning{
		ID:              uuid.New(),
		VendorID:        credit.VendorID,
		EntryType:       enums.EarningRefundDebit,
		SourceType:      SourcePayment,
		SourceID:        sourceID,
		GrossMinor:      -credit.GrossMinor,
		CommissionMinor: -credit.CommissionMinor,
		NetMinor:        -credit.NetMinor,
		Currency:        credit.Currency,
	})
}

func (s *service) Hold(ctx context.Context, tx *gorm.DB, input HoldInput) error {
	if input.AmountMinor <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}
	balance, err := s.Balance(ctx, tx, input.VendorID)
	if err != nil {
		return err
	}
	if input.AmountMinor > balance {
		return ErrInsufficientBalance
	}
	created, err := s.insertOnce(ctx, tx, &models.VendorEarning{
		ID:         uuid.New(),
		VendorID:   input.VendorID,
		EntryType:  enums.EarningWithdrawalHold,
		SourceType: SourceWithdrawal,
		SourceID:   input.WithdrawalID,
		GrossMinor: -input.AmountMinor,
		NetMinor:   -input.AmountMinor,
		Currency:   input.Currency,
	})
	if err != nil {
		return err
	}
	if !created {
		return pkgerrors.New(pkgerrors.CodeConflict, "withdrawal already holds funds")
	}
	return nil
}

// ReleaseHold credits back a failed withdrawal's hold once.
func (s *service) ReleaseHold(ctx context.Context, tx *gorm.DB, input HoldInput) (bool, error) {
	return s.insertOnce(ctx, tx, &models.VendorEarning{
		ID:         uuid.New(),
		VendorID:   input.VendorID,
		EntryType:  enums.EarningWithdrawalReversal,
		SourceType: SourceWithdrawal,
		SourceID:   input.WithdrawalID,
		GrossMinor: input.AmountMinor,
		NetMinor:   input.AmountMinor,
		Currency:   input.Currency,
	})
}

func (s *service) Balance(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (int64, error) {
	if vendorID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	balance, err := s.repo.WithTx(tx).Balance(ctx, vendorID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum vendor earnings")
	}
	return balance, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	query := listParams{VendorID: params.VendorID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor earnings")
	}
	balance, err := s.Balance(ctx, nil, params.VendorID)
	if err != nil {
		return nil, err
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, BalanceMinor: balance, Cursor: cursor}, nil
}

func (s *service) insertOnce(ctx context.Context, tx *gorm.DB, entry *models.VendorEarning) (bool, error) {
	created, err := s.repo.WithTx(tx).CreateOnce(ctx, entry)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record vendor earning")
	}
	return created, nil
}
