package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/reelpass-backend/internal/catalog"
	"github.com/angelmondragon/reelpass-backend/internal/pricing"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/reference"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	referencePrefix = "VP"
	listLimit       = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type CreateInput struct {
	UserID       uuid.UUID
	VideoID      uuid.UUID
	PurchaseType enums.PurchaseType
}

// Access describes a user's right to stream a video.
type Access struct {
	PurchaseID   uuid.UUID
	PurchaseType enums.PurchaseType
	// ExpiresAt is nil for outright purchases.
	ExpiresAt *time.Time
}

type ServiceParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repo       *Repository
	Outbox     outbox.Emitter
	HoldWindow time.Duration
	SweepBatch int
	Tax        pricing.TaxPolicy
}

// Service sells video rentals and purchases. Payment runs through the shared
// reconciliation flow via Fulfiller.
type Service struct {
	logg       *logger.Logger
	db         txRunner
	repo       *Repository
	outbox     outbox.Emitter
	holdWindow time.Duration
	sweepBatch int
	tax        pricing.TaxPolicy
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.HoldWindow <= 0 {
		return nil, fmt.Errorf("hold window must be positive")
	}
	return &Service{
		logg:       params.Logger,
		db:         params.DB,
		repo:       params.Repo,
		outbox:     params.Outbox,
		holdWindow: params.HoldWindow,
		sweepBatch: params.SweepBatch,
		tax:        params.Tax,
		now:        time.Now,
	}, nil
}

// CreatePurchase opens a pending purchase priced from the video. A user has
// at most one live purchase per video.
func (s *Service) CreatePurchase(ctx context.Context, input CreateInput) (*models.VideoPurchase, error) {
	if input.UserID == uuid.Nil || input.VideoID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and video are required")
	}
	if !input.PurchaseType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase type must be rent or buy")
	}
	now := s.now().UTC()

	var purchase *models.VideoPurchase
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		video, err := repo.FindVideo(ctx, input.VideoID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.ErrVideoNotFound
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load video")
		}
		if !catalog.Available(video, now) {
			return ErrVideoUnavailable
		}

		active, err := repo.FindActive(ctx, input.UserID, input.VideoID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active purchase")
		}
		if active != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrActivePurchase, "active purchase exists").
				WithDetails(map[string]any{
					"purchaseId":    active.ID,
					"paymentStatus": active.PaymentStatus,
				})
		}

		unit := video.BuyPrice
		if input.PurchaseType == enums.PurchaseTypeRent {
			unit = video.RentPrice
		}
		quote, err := pricing.Quote(pricing.Input{
			UnitPrice: unit,
			Quantity:  1,
			Fees:      decimal.Zero,
			Discount:  decimal.Zero,
			Currency:  video.Currency,
		}, s.tax)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price purchase")
		}

		purchase = &models.VideoPurchase{
			ID:            uuid.New(),
			UserID:        input.UserID,
			VideoID:       video.ID,
			VendorID:      video.VendorID,
			PurchaseType:  input.PurchaseType,
			BaseAmount:    quote.Base,
			TaxAmount:     quote.Tax,
			FinalAmount:   quote.Final,
			Currency:      quote.Currency,
			PaymentStatus: enums.PaymentStatusPending,
			ExpiresAt:     now.Add(s.holdWindow),
		}
		return s.insertWithReference(ctx, tx, purchase, now)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"purchase_id":   purchase.ID.String(),
		"video_id":      purchase.VideoID.String(),
		"purchase_type": purchase.PurchaseType,
	}), "video purchase created")
	return purchase, nil
}

func (s *Service) insertWithReference(ctx context.Context, tx *gorm.DB, purchase *models.VideoPurchase, now time.Time) error {
	for attempt := 0; attempt < reference.MaxRetries; attempt++ {
		ref, err := reference.New(referencePrefix, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate purchase reference")
		}
		purchase.Reference = ref
		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.repo.WithTx(sp).Create(ctx, purchase)
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "reference") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert purchase")
		}
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique purchase reference")
}

// CheckAccess reports whether the user may stream the video now.
func (s *Service) CheckAccess(ctx context.Context, userID, videoID uuid.UUID) (*Access, error) {
	purchase, err := s.repo.LatestPaid(ctx, userID, videoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase == nil {
		return nil, ErrNoAccess
	}
	if purchase.AccessExpiresAt != nil && !s.now().Before(*purchase.AccessExpiresAt) {
		return nil, ErrAccessExpired
	}
	return &Access{
		PurchaseID:   purchase.ID,
		PurchaseType: purchase.PurchaseType,
		ExpiresAt:    purchase.AccessExpiresAt,
	}, nil
}

func (s *Service) GetPurchase(ctx context.Context, purchaseID, userID uuid.UUID) (*models.VideoPurchase, error) {
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.UserID != userID {
		return nil, ErrPurchaseNotFound
	}
	return purchase, nil
}

func (s *Service) ListPurchases(ctx context.Context, userID uuid.UUID) ([]models.VideoPurchase, error) {
	rows, err := s.repo.ListByUser(ctx, userID, listLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return rows, nil
}

// ExpireStaleHolds fails pending purchases whose payment window closed.
func (s *Service) ExpireStaleHolds(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	stale, err := s.repo.FindStale(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query stale purchases")
	}
	var (
		expired int
		errs    error
	)
	for _, purchase := range stale {
		affected, err := s.repo.transition(ctx, purchase.ID, enums.PaymentStatusPending, map[string]any{
			"payment_status": enums.PaymentStatusFailed,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire purchase %s: %w", purchase.ID, err))
			continue
		}
		expired += int(affected)
	}
	return expired, errs
}
