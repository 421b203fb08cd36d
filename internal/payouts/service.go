package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/reelpass-backend/internal/earnings"
	"github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/metrics"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	providers "github.com/angelmondragon/reelpass-backend/pkg/payouts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultSyncBatch = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Logger          *logger.Logger
	DB              txRunner
	Repo            *Repository
	Earnings        earnings.Service
	Outbox          outbox.Emitter
	Providers       []providers.Provider
	DefaultProvider enums.PayoutProvider
	MinAmount       decimal.Decimal
	TransferMode    string
	SyncBatch       int
	Metrics         *metrics.PayoutMetrics
}

// Service moves vendor earnings to their bank accounts. Funds are held
// against the earnings ledger from request until the provider settles.
type Service struct {
	logg            *logger.Logger
	db              txRunner
	repo            *Repository
	earnings        earnings.Service
	outbox          outbox.Emitter
	providers       map[enums.PayoutProvider]providers.Provider
	defaultProvider enums.PayoutProvider
	minAmount       decimal.Decimal
	transferMode    string
	syncBatch       int
	metrics         *metrics.PayoutMetrics
	now             func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	byName := make(map[enums.PayoutProvider]providers.Provider, len(params.Providers))
	for _, p := range params.Providers {
		if p == nil {
			continue
		}
		byName[p.Name()] = p
	}
	if _, ok := byName[params.DefaultProvider]; !ok {
		return nil, fmt.Errorf("default payout provider %q not configured", params.DefaultProvider)
	}
	syncBatch := params.SyncBatch
	if syncBatch <= 0 {
		syncBatch = defaultSyncBatch
	}
	return &Service{
		logg:            params.Logger,
		db:              params.DB,
		repo:            params.Repo,
		earnings:        params.Earnings,
		outbox:          params.Outbox,
		providers:       byName,
		defaultProvider: params.DefaultProvider,
		minAmount:       params.MinAmount,
		transferMode:    params.TransferMode,
		syncBatch:       syncBatch,
		metrics:         params.Metrics,
		now:             time.Now,
	}, nil
}

type RequestInput struct {
	VendorID uuid.UUID
	Amount   decimal.Decimal
	Actor    auth.Actor
}

// RequestWithdrawal holds the amount against the vendor's balance and queues
// the payout. The vendor row lock keeps concurrent requests from spending
// the same balance twice.
func (s *Service) RequestWithdrawal(ctx context.Context, input RequestInput) (*models.VendorWithdrawal, error) {
	if !input.Actor.OwnsVendor(&input.VendorID) {
		return nil, ErrForbidden
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}
	if input.Amount.LessThan(s.minAmount) {
		return nil, ErrBelowMinimum
	}

	var withdrawal *models.VendorWithdrawal
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendor, err := repo.LockVendor(ctx, input.VendorID)
		if err != nil {
			return notFoundOr(err, ErrVendorNotFound, "load vendor")
		}
		if vendor.Status != enums.VendorStatusApproved {
			return ErrVendorNotApproved
		}
		if !vendor.HasBankDetails() {
			return ErrNoBankDetails
		}
		minor, err := money.ToMinor(input.Amount, vendor.Currency)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "convert amount")
		}

		id := uuid.New()
		withdrawal = &models.VendorWithdrawal{
			ID:          id,
			VendorID:    vendor.ID,
			AmountMinor: minor,
			Currency:    vendor.Currency,
			Status:      enums.WithdrawalStatusPending,
			Provider:    s.defaultProvider,
			TransferID:  providers.TransferID(id),
			PayeeStage:  enums.PayeeStageNone,
			RequestedAt: s.now().UTC(),
		}
		if err := repo.Create(ctx, withdrawal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
		}
		if err := s.earnings.Hold(ctx, tx, earnings.HoldInput{
			VendorID:     vendor.ID,
			WithdrawalID: id,
			AmountMinor:  minor,
			Currency:     vendor.Currency,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateVendorWithdrawal,
			AggregateID:   id,
			Actor:         actorRef(input.Actor),
			OccurredAt:    withdrawal.RequestedAt,
			Data: payloads.WithdrawalRequestedEvent{
				WithdrawalID: id,
				VendorID:     vendor.ID,
				AmountMinor:  minor,
				Currency:     vendor.Currency,
				TransferID:   withdrawal.TransferID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"withdrawal_id": withdrawal.ID.String(),
		"vendor_id":     withdrawal.VendorID.String(),
		"amount_minor":  withdrawal.AmountMinor,
	}), "withdrawal requested")
	return withdrawal, nil
}

type ProcessInput struct {
	WithdrawalID uuid.UUID
	VendorID     uuid.UUID
	Amount       decimal.Decimal
	Bank         providers.BankDetails
	Contact      providers.Contact
}

type Result struct {
	TransferID string             `json:"transferId"`
	PayeeID    string             `json:"payeeId"`
	Status     enums.PayoutStatus `json:"status"`
}

// ProcessWithdrawal runs the two provider steps for a claimed withdrawal:
// resolve the vendor's payee, then transfer under the withdrawal's
// deterministic transfer id.
func (s *Service) ProcessWithdrawal(ctx context.Context, input ProcessInput) (*Result, error) {
	withdrawal, err := s.repo.FindByID(ctx, input.WithdrawalID)
	if err != nil {
		return nil, notFoundOr(err, ErrWithdrawalNotFound, "load withdrawal")
	}
	if withdrawal.VendorID != input.VendorID {
		return nil, ErrForbidden
	}
	minor, err := money.ToMinor(input.Amount, withdrawal.Currency)
	if err != nil || minor != withdrawal.AmountMinor {
		return nil, ErrAmountMismatch
	}
	provider, err := s.provider(withdrawal.Provider)
	if err != nil {
		return nil, err
	}

	claimed, err := s.repo.Claim(ctx, withdrawal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim withdrawal")
	}
	if claimed == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrNotProcessable, "withdrawal already "+withdrawal.Status.String())
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"withdrawal_id": withdrawal.ID.String(),
		"vendor_id":     withdrawal.VendorID.String(),
		"provider":      provider.Name().String(),
		"transfer_id":   withdrawal.TransferID,
	})

	payeeID, err := s.resolvePayee(logCtx, provider, withdrawal, input)
	if err != nil {
		return nil, s.stepFailed(logCtx, withdrawal, "payee", err)
	}

	transfer, err := provider.Transfer(ctx, providers.TransferRequest{
		TransferID: withdrawal.TransferID,
		PayeeID:    payeeID,
		Amount:     input.Amount,
		Currency:   withdrawal.Currency,
		Mode:       s.transferMode,
		Remarks:    "Payout " + withdrawal.TransferID,
	})
	if err != nil {
		s.metrics.IncTransfer(provider.Name().String(), "error")
		return nil, s.stepFailed(logCtx, withdrawal, "transfer", err)
	}
	s.metrics.IncTransfer(provider.Name().String(), transfer.Status.String())

	result := &Result{TransferID: withdrawal.TransferID, PayeeID: payeeID, Status: transfer.Status}
	if transfer.Status == enums.PayoutStatusPending {
		if err := s.repo.MarkSubmitted(ctx, withdrawal.ID, transfer.ProviderRef, transfer.Raw); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transfer")
		}
		s.logg.Info(logCtx, "payout submitted")
		return result, nil
	}
	if _, err := s.settle(logCtx, withdrawal, transfer); err != nil {
		return nil, err
	}
	if transfer.Status == enums.PayoutStatusFailed {
		return result, pkgerrors.Wrap(pkgerrors.CodeGateway, ErrWithdrawalFailed, failureReason(transfer))
	}
	return result, nil
}

// ProcessRequested loads the withdrawal and its vendor's payout details and
// processes it. The payouts consumer and operator retries go through here.
func (s *Service) ProcessRequested(ctx context.Context, withdrawalID uuid.UUID) (*Result, error) {
	withdrawal, err := s.repo.FindByID(ctx, withdrawalID)
	if err != nil {
		return nil, notFoundOr(err, ErrWithdrawalNotFound, "load withdrawal")
	}
	vendor, err := s.repo.FindVendor(ctx, withdrawal.VendorID)
	if err != nil {
		return nil, notFoundOr(err, ErrVendorNotFound, "load vendor")
	}
	amount, err := money.FromMinor(withdrawal.AmountMinor, withdrawal.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "convert amount")
	}
	return s.ProcessWithdrawal(ctx, ProcessInput{
		WithdrawalID: withdrawal.ID,
		VendorID:     vendor.ID,
		Amount:       amount,
		Bank: providers.BankDetails{
			AccountHolder: vendor.BankAccountHolder,
			AccountNumber: vendor.BankAccountNumber,
			IFSC:          vendor.BankIFSC,
			BankName:      vendor.BankName,
		},
		Contact: providers.Contact{
			Name:  vendor.BusinessName,
			Email: vendor.Email,
			Phone: vendor.Phone,
		},
	})
}

// RetryWithdrawal re-runs a failed withdrawal whose funds are still held.
func (s *Service) RetryWithdrawal(ctx context.Context, withdrawalID uuid.UUID, actor auth.Actor) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.ProcessRequested(ctx, withdrawalID)
}

// CancelWithdrawal gives up on a failed withdrawal and returns its funds to
// the vendor's balance.
func (s *Service) CancelWithdrawal(ctx context.Context, withdrawalID uuid.UUID, actor auth.Actor) (*models.VendorWithdrawal, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	withdrawal, err := s.repo.FindByID(ctx, withdrawalID)
	if err != nil {
		return nil, notFoundOr(err, ErrWithdrawalNotFound, "load withdrawal")
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).ReleaseFailed(ctx, withdrawal.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release withdrawal")
		}
		if affected == 0 {
			return ErrNotProcessable
		}
		if _, err := s.earnings.ReleaseHold(ctx, tx, holdOf(withdrawal)); err != nil {
			return err
		}
		return s.emitOutcome(ctx, tx, withdrawal, enums.EventWithdrawalFailed, enums.WithdrawalStatusFailed, "cancelled by operator")
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, withdrawal.ID)
}

// GetTransferStatus asks the provider for the normalized status of a
// transfer without changing local state.
func (s *Service) GetTransferStatus(ctx context.Context, transferID string) (enums.PayoutStatus, error) {
	withdrawal, err := s.repo.FindByTransferID(ctx, transferID)
	if err != nil {
		return "", notFoundOr(err, ErrWithdrawalNotFound, "load withdrawal")
	}
	provider, err := s.provider(withdrawal.Provider)
	if err != nil {
		return "", err
	}
	transfer, err := provider.TransferStatus(ctx, transferID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "fetch transfer status")
	}
	return transfer.Status, nil
}

// SyncProcessing polls the provider for withdrawals still in processing and
// applies terminal statuses. One failing withdrawal does not stop the batch.
func (s *Service) SyncProcessing(ctx context.Context) (int, error) {
	rows, err := s.repo.ListProcessing(ctx, s.syncBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list processing withdrawals")
	}
	settled := 0
	var errs []error
	for i := range rows {
		withdrawal := &rows[i]
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"withdrawal_id": withdrawal.ID.String(),
			"transfer_id":   withdrawal.TransferID,
		})
		provider, err := s.provider(withdrawal.Provider)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		transfer, err := provider.TransferStatus(ctx, withdrawal.TransferID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "transfer status lookup failed")
			errs = append(errs, err)
			continue
		}
		if !transfer.Status.Terminal() {
			continue
		}
		s.metrics.IncTransfer(provider.Name().String(), transfer.Status.String())
		applied, err := s.settle(logCtx, withdrawal, transfer)
		if err != nil {
			s.logg.Error(logCtx, "failed to settle withdrawal", err)
			errs = append(errs, err)
			continue
		}
		if applied {
			settled++
		}
	}
	return settled, errors.Join(errs...)
}

func (s *Service) GetWithdrawal(ctx context.Context, withdrawalID uuid.UUID, actor auth.Actor) (*models.VendorWithdrawal, error) {
	withdrawal, err := s.repo.FindByID(ctx, withdrawalID)
	if err != nil {
		return nil, notFoundOr(err, ErrWithdrawalNotFound, "load withdrawal")
	}
	if !actor.OwnsVendor(&withdrawal.VendorID) {
		return nil, ErrWithdrawalNotFound
	}
	return withdrawal, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, vendorID uuid.UUID, limit int, actor auth.Actor) ([]models.VendorWithdrawal, error) {
	if !actor.OwnsVendor(&vendorID) {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	return rows, nil
}

// resolvePayee returns the payee for the withdrawal, reusing what an earlier
// attempt or withdrawal already created.
func (s *Service) resolvePayee(ctx context.Context, provider providers.Provider, withdrawal *models.VendorWithdrawal, input ProcessInput) (string, error) {
	if withdrawal.PayeeStage == enums.PayeeStageReady && withdrawal.PayeeID != nil && *withdrawal.PayeeID != "" {
		return *withdrawal.PayeeID, nil
	}
	cached, err := s.repo.FindPayee(ctx, withdrawal.VendorID, provider.Name())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor payee")
	}
	if cached != nil {
		if err := s.repo.MarkPayeeReady(ctx, withdrawal.ID, cached.PayeeID); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payee")
		}
		return cached.PayeeID, nil
	}

	payeeRef := providers.PayeeRef(withdrawal.VendorID)
	res := provider.EnsurePayee(ctx, providers.PayeeRequest{
		PayeeRef: payeeRef,
		Bank:     input.Bank,
		Contact:  input.Contact,
	})
	if !res.Ready() {
		if res.Err == nil {
			res.Err = gateways.NewError(provider.Name().String(), gateways.CodeBadResponse, "payee id missing")
		}
		return "", res.Err
	}
	s.logg.Info(s.logg.WithField(ctx, "payee_outcome", res.Outcome.String()), "payee resolved")

	if err := s.repo.SavePayee(ctx, &models.VendorPayee{
		ID:       uuid.New(),
		VendorID: withdrawal.VendorID,
		Provider: provider.Name(),
		PayeeRef: payeeRef,
		PayeeID:  res.PayeeID,
	}); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save vendor payee")
	}
	if err := s.repo.MarkPayeeReady(ctx, withdrawal.ID, res.PayeeID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payee")
	}
	return res.PayeeID, nil
}

// stepFailed leaves the withdrawal failed with the provider error attached.
// The hold stays in place so an operator can retry or cancel.
func (s *Service) stepFailed(ctx context.Context, withdrawal *models.VendorWithdrawal, step string, cause error) error {
	reason := step + ": " + cause.Error()
	var raw []byte
	if gwErr, ok := gateways.AsGatewayError(cause); ok {
		reason = step + ": " + gwErr.Message
		raw = gwErr.Raw
	}
	s.logg.Error(s.logg.WithField(ctx, "step", step), "payout step failed", cause)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).Settle(ctx, withdrawal.ID, enums.WithdrawalStatusFailed, reason, raw, false, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark withdrawal failed")
		}
		if affected == 0 {
			return nil
		}
		return s.emitOutcome(ctx, tx, withdrawal, enums.EventWithdrawalFailed, enums.WithdrawalStatusFailed, reason)
	})
	if err != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, ErrWithdrawalFailed, reason)
}

// settle applies a terminal provider status. A failed transfer moved no
// money, so its hold goes back to the vendor's balance.
func (s *Service) settle(ctx context.Context, withdrawal *models.VendorWithdrawal, transfer *providers.Transfer) (bool, error) {
	now := s.now().UTC()
	applied := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		switch transfer.Status {
		case enums.PayoutStatusSuccess:
			affected, err := repo.Settle(ctx, withdrawal.ID, enums.WithdrawalStatusSuccess, "", transfer.Raw, false, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark withdrawal paid")
			}
			if affected == 0 {
				return nil
			}
			applied = true
			return s.emitOutcome(ctx, tx, withdrawal, enums.EventWithdrawalCompleted, enums.WithdrawalStatusSuccess, "")
		case enums.PayoutStatusFailed:
			reason := failureReason(transfer)
			affected, err := repo.Settle(ctx, withdrawal.ID, enums.WithdrawalStatusFailed, reason, transfer.Raw, true, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark withdrawal failed")
			}
			if affected == 0 {
				return nil
			}
			if _, err := s.earnings.ReleaseHold(ctx, tx, holdOf(withdrawal)); err != nil {
				return err
			}
			applied = true
			return s.emitOutcome(ctx, tx, withdrawal, enums.EventWithdrawalFailed, enums.WithdrawalStatusFailed, reason)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		s.logg.Info(s.logg.WithField(ctx, "status", transfer.Status), "withdrawal settled")
	}
	return applied, nil
}

func (s *Service) emitOutcome(ctx context.Context, tx *gorm.DB, withdrawal *models.VendorWithdrawal, eventType enums.OutboxEventType, status enums.WithdrawalStatus, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateVendorWithdrawal,
		AggregateID:   withdrawal.ID,
		OccurredAt:    s.now().UTC(),
		Data: payloads.WithdrawalOutcomeEvent{
			WithdrawalID: withdrawal.ID,
			VendorID:     withdrawal.VendorID,
			TransferID:   withdrawal.TransferID,
			Status:       status,
			Reason:       reason,
		},
	})
}

func (s *Service) provider(name enums.PayoutProvider) (providers.Provider, error) {
	if name == "" {
		name = s.defaultProvider
	}
	p, ok := s.providers[name]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payout provider not configured").
			WithDetails(map[string]any{"provider": name})
	}
	return p, nil
}

func holdOf(withdrawal *models.VendorWithdrawal) earnings.HoldInput {
	return earnings.HoldInput{
		VendorID:     withdrawal.VendorID,
		WithdrawalID: withdrawal.ID,
		AmountMinor:  withdrawal.AmountMinor,
		Currency:     withdrawal.Currency,
	}
}

func failureReason(transfer *providers.Transfer) string {
	if transfer.FailureReason != "" {
		return transfer.FailureReason
	}
	if transfer.RawStatus != "" {
		return "transfer " + transfer.RawStatus
	}
	return "transfer failed"
}

func actorRef(actor auth.Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil && actor.VendorID == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, VendorID: actor.VendorID, Role: actor.Role.String()}
}

func notFoundOr(err, notFound error, msg string) error {
	if errors.Is(err, notFound) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
