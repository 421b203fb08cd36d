package vendors

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/angelmondragon/reelpass-backend/internal/pricing"
	"github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/reelpass-backend/pkg/reference"
	"github.com/angelmondragon/reelpass-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	referencePrefix   = "VF"
	minPasswordLength = 8
	listLimit         = 100
)

var (
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type RegisterInput struct {
	Email        string
	Password     string
	BusinessName string
	Phone        string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Vendor      *models.Vendor
}

type BankDetails struct {
	AccountHolder string
	AccountNumber string
	IFSC          string
	BankName      string
}

type ServiceParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Repo      *Repository
	Outbox    outbox.Emitter
	JWT       config.JWTConfig
	Password  config.PasswordConfig
	FeeAmount decimal.Decimal
	Currency  enums.Currency
	Tax       pricing.TaxPolicy
}

// Service onboards vendors: registration with an application fee, admin
// review and payout bank details.
type Service struct {
	logg      *logger.Logger
	db        txRunner
	repo      *Repository
	outbox    outbox.Emitter
	jwt       config.JWTConfig
	password  config.PasswordConfig
	feeAmount decimal.Decimal
	currency  enums.Currency
	tax       pricing.TaxPolicy
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.FeeAmount.IsNegative() {
		return nil, fmt.Errorf("vendor fee cannot be negative")
	}
	currency := params.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	return &Service{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repo,
		outbox:    params.Outbox,
		jwt:       params.JWT,
		password:  params.Password,
		feeAmount: params.FeeAmount,
		currency:  currency,
		tax:       params.Tax,
		now:       time.Now,
	}, nil
}

// Register creates a pending application together with its unpaid fee.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.Vendor, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	businessName := strings.TrimSpace(input.BusinessName)
	if businessName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	quote, err := pricing.Quote(pricing.Input{
		UnitPrice: s.feeAmount,
		Quantity:  1,
		Currency:  s.currency,
	}, s.tax)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "price vendor fee")
	}

	now := s.now().UTC()
	vendor := &models.Vendor{
		ID:               uuid.New(),
		Email:            email,
		PasswordHash:     hash,
		BusinessName:     businessName,
		Phone:            strings.TrimSpace(input.Phone),
		Status:           enums.VendorStatusPending,
		FeeBaseAmount:    quote.Base,
		FeeTaxAmount:     quote.Tax,
		FeeFinalAmount:   quote.Final,
		Currency:         quote.Currency,
		FeePaymentStatus: enums.PaymentStatusPending,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.insertWithReference(ctx, tx, vendor, now); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorRegistered,
			AggregateType: enums.AggregateVendor,
			AggregateID:   vendor.ID,
			Actor:         &outbox.ActorRef{UserID: vendor.ID, VendorID: &vendor.ID, Role: enums.RoleVendor.String()},
			OccurredAt:    now,
			Data: payloads.VendorRegisteredEvent{
				VendorID:     vendor.ID,
				Email:        vendor.Email,
				BusinessName: vendor.BusinessName,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "vendor_id", vendor.ID.String()), "vendor registered")
	return vendor, nil
}

func (s *Service) insertWithReference(ctx context.Context, tx *gorm.DB, vendor *models.Vendor, now time.Time) error {
	for attempt := 0; attempt < reference.MaxRetries; attempt++ {
		ref, err := reference.New(referencePrefix, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate fee reference")
		}
		vendor.FeeReference = ref
		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.repo.WithTx(sp).Create(ctx, vendor)
		})
		if err == nil {
			return nil
		}
		switch {
		case db.IsUniqueViolation(err, "email"):
			return ErrEmailTaken
		case db.IsUniqueViolation(err, "fee_reference"):
			continue
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert vendor")
		}
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique fee reference")
}

// Login authenticates a vendor and mints a vendor-scoped access token.
// Pending vendors may sign in to pay their fee.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	vendor, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrVendorNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup vendor")
	}
	valid, err := security.VerifyPassword(input.Password, vendor.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		s.logg.SecurityWarn(s.logg.WithField(ctx, "vendor_id", vendor.ID.String()), "vendor login failed")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if vendor.Status == enums.VendorStatusRejected {
		return nil, ErrVendorRejected
	}
	if security.NeedsRehash(vendor.PasswordHash, s.password) {
		s.rehash(ctx, vendor.ID, input.Password)
	}

	now := s.now().UTC()
	vendorID := vendor.ID
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		UserID:   vendor.ID,
		VendorID: &vendorID,
		Role:     enums.RoleVendor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   now.Add(s.jwt.TokenTTL()),
		Vendor:      vendor,
	}, nil
}

func (s *Service) GetVendor(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) (*models.Vendor, error) {
	if !actor.OwnsVendor(&vendorID) {
		return nil, ErrForbidden
	}
	return s.repo.FindByID(ctx, vendorID)
}

// UpdateBankDetails replaces the payout account and forgets provider payees
// registered for the old one.
func (s *Service) UpdateBankDetails(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, bank BankDetails) (*models.Vendor, error) {
	if !actor.OwnsVendor(&vendorID) {
		return nil, ErrForbidden
	}
	bank, err := normalizeBank(bank)
	if err != nil {
		return nil, err
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, vendorID); err != nil {
			return err
		}
		if err := repo.UpdateBankDetails(ctx, vendorID, bank); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bank details")
		}
		// TODO: rotate the payee ref as well; providers that already know the
		// deterministic ref keep paying the old account until it is replaced.
		if err := repo.DeletePayees(ctx, vendorID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cached payees")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "vendor_id", vendorID.String()), "vendor bank details updated")
	return s.repo.FindByID(ctx, vendorID)
}

// Approve accepts a pending application once its fee is paid.
func (s *Service) Approve(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) (*models.Vendor, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.FeePaymentStatus != enums.PaymentStatusCompleted {
		return nil, ErrFeeUnpaid
	}
	now := s.now().UTC()
	affected, err := s.repo.Review(ctx, vendorID, map[string]any{
		"status":           enums.VendorStatusApproved,
		"approved_at":      now,
		"rejection_reason": nil,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve vendor")
	}
	if affected == 0 {
		return nil, ErrNotPending
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"vendor_id": vendorID.String(),
		"admin_id":  actor.UserID.String(),
	}), "vendor approved")
	return s.repo.FindByID(ctx, vendorID)
}

func (s *Service) Reject(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, reason string) (*models.Vendor, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a rejection reason is required")
	}
	if _, err := s.repo.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}
	affected, err := s.repo.Review(ctx, vendorID, map[string]any{
		"status":           enums.VendorStatusRejected,
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject vendor")
	}
	if affected == 0 {
		return nil, ErrNotPending
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"vendor_id": vendorID.String(),
		"admin_id":  actor.UserID.String(),
	}), "vendor rejected")
	return s.repo.FindByID(ctx, vendorID)
}

func (s *Service) ListPending(ctx context.Context, actor auth.Actor) ([]models.Vendor, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	rows, err := s.repo.ListByStatus(ctx, enums.VendorStatusPending, listLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return rows, nil
}

func normalizeBank(bank BankDetails) (BankDetails, error) {
	bank.AccountHolder = strings.TrimSpace(bank.AccountHolder)
	bank.AccountNumber = strings.ReplaceAll(strings.TrimSpace(bank.AccountNumber), " ", "")
	bank.IFSC = strings.ToUpper(strings.TrimSpace(bank.IFSC))
	bank.BankName = strings.TrimSpace(bank.BankName)

	fields := map[string]any{}
	if bank.AccountHolder == "" {
		fields["accountHolder"] = "required"
	}
	if !accountPattern.MatchString(bank.AccountNumber) {
		fields["accountNumber"] = "must be 9 to 18 digits"
	}
	if !ifscPattern.MatchString(bank.IFSC) {
		fields["ifsc"] = "must look like ABCD0123456"
	}
	if len(fields) > 0 {
		return bank, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidBankInfo, "invalid bank details").WithDetails(fields)
	}
	return bank, nil
}

// rehash upgrades a stored hash to the current cost settings. Failures only
// log: the login itself already succeeded.
func (s *Service) rehash(ctx context.Context, vendorID uuid.UUID, password string) {
	hash, err := security.HashPassword(password, s.password)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, vendorID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"vendor_id": vendorID.String(),
			"error":     err.Error(),
		}), "password rehash failed")
	}
}
