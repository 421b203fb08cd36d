package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Outcome describes what a completion attempt did.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeAlreadyDone      Outcome = "already_done"
	OutcomeNeedsReview      Outcome = "needs_review"
	OutcomeDuplicateCapture Outcome = "duplicate_capture"
)

type ServiceParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repo       *Repository
	Gateways   *gateways.Registry
	Fulfillers []Fulfiller
	Earnings   earnings.Service
	Outbox     outbox.Emitter
	Guard      DeliveryGuard
	Metrics    *metrics.PaymentMetrics
}

// Service reconciles gateway payments with their targets. Every path into
// completion (client verify, webhook, direct record) converges on complete,
// which is safe to run any number of times for the same transaction.
type Service struct {
	logg       *logger.Logger
	db         txRunner
	repo       *Repository
	gateways   *gateways.Registry
	fulfillers map[enums.PayableType]Fulfiller
	earnings   earnings.Service
	outbox     outbox.Emitter
	guard      DeliveryGuard
	metrics    *metrics.PaymentMetrics
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
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Gateways == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	fulfillers := make(map[enums.PayableType]Fulfiller, len(params.Fulfillers))
	for _, f := range params.Fulfillers {
		if f == nil {
			continue
		}
		fulfillers[f.TargetType()] = f
	}
	if len(fulfillers) == 0 {
		return nil, fmt.Errorf("at least one fulfiller required")
	}
	return &Service{
		logg:       params.Logger,
		db:         params.DB,
		repo:       params.Repo,
		gateways:   params.Gateways,
		fulfillers: fulfillers,
		earnings:   params.Earnings,
		outbox:     params.Outbox,
		guard:      params.Guard,
		metrics:    params.Metrics,
		now:        time.Now,
	}, nil
}

type CreateOrderInput struct {
	TargetType enums.PayableType
	TargetID   uuid.UUID
	Gateway    string
	Actor      auth.Actor
}

type OrderResult struct {
	Transaction   *models.PaymentTransaction `json:"transaction"`
	Gateway       enums.Gateway              `json:"gateway"`
	OrderID       string                     `json:"orderId"`
	Receipt       string                     `json:"receipt"`
	AmountMinor   int64                      `json:"amountMinor"`
	Currency      enums.Currency             `json:"currency"`
	ClientPayload map[string]any             `json:"clientPayload,omitempty"`
}

// CreateOrder opens a gateway order for a pending target and records the
// attempt as a pending transaction.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error) {
	fulfiller, err := s.fulfiller(input.TargetType)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateways.Get(input.Gateway)
	if err != nil {
		return nil, err
	}
	payable, err := s.payable(ctx, fulfiller, input.TargetID)
	if err != nil {
		return nil, err
	}
	if !canPay(input.Actor, payable) {
		return nil, ErrForbidden
	}
	if err := s.payableNow(payable); err != nil {
		return nil, err
	}

	attempts, err := s.repo.CountAttempts(ctx, payable.TargetType, payable.TargetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payment attempts")
	}
	attempt := int(attempts) + 1
	receipt := receiptFor(payable.Reference, attempt)

	order, err := gw.CreateOrder(ctx, gateways.OrderRequest{
		Amount:   payable.Amount,
		Currency: payable.Currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"target_type": string(payable.TargetType),
			"target_id":   payable.TargetID.String(),
		},
		Customer: gatewayCustomer(payable),
	})
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"gateway":   gw.Name(),
			"target_id": payable.TargetID.String(),
			"error":     err.Error(),
		}), "gateway order creation failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "create gateway order")
	}

	amountMinor := order.AmountMinor
	if amountMinor == 0 {
		if amountMinor, err = money.ToMinor(payable.Amount, payable.Currency); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "convert amount")
		}
	}
	txn := &models.PaymentTransaction{
		ID:              uuid.New(),
		TargetType:      payable.TargetType,
		TargetID:        payable.TargetID,
		UserID:          payable.UserID,
		Gateway:         gw.Name(),
		GatewayOrderID:  order.OrderID,
		Receipt:         receipt,
		Attempt:         attempt,
		AmountMinor:     amountMinor,
		Currency:        payable.Currency,
		Status:          enums.TransactionStatusPending,
		GatewayResponse: []byte(order.Raw),
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment transaction")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txn.ID.String(),
		"gateway":        gw.Name(),
		"order_id":       order.OrderID,
		"attempt":        attempt,
	}), "payment order created")
	return &OrderResult{
		Transaction:   txn,
		Gateway:       gw.Name(),
		OrderID:       order.OrderID,
		Receipt:       receipt,
		AmountMinor:   amountMinor,
		Currency:      payable.Currency,
		ClientPayload: order.ClientPayload,
	}, nil
}

type VerifyInput struct {
	TargetType enums.PayableType
	// TargetID is optional; when set the transaction must belong to it.
	TargetID  uuid.UUID
	Gateway   string
	OrderID   string
	PaymentID string
	Signature string
	Actor     auth.Actor
}

type CompletionResult struct {
	Transaction *models.PaymentTransaction `json:"transaction"`
	Outcome     Outcome                    `json:"outcome"`
}

// VerifyAndComplete handles the client callback after checkout. The
// signature is checked locally before anything is read or written.
func (s *Service) VerifyAndComplete(ctx context.Context, input VerifyInput) (*CompletionResult, error) {
	gw, err := s.gateways.Get(input.Gateway)
	if err != nil {
		return nil, err
	}
	if !gw.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
		s.logg.SecurityWarn(s.logg.WithFields(ctx, map[string]any{
			"gateway":  gw.Name(),
			"order_id": input.OrderID,
		}), "payment signature rejected")
		s.metrics.IncCompletion(gw.Name().String(), "verify", "bad_signature")
		return nil, ErrSignatureInvalid
	}

	txn, err := s.repo.FindByOrder(ctx, gw.Name(), input.OrderID)
	if err != nil {
		return nil, notFoundOr(err, "load payment transaction")
	}
	if input.TargetType != "" && txn.TargetType != input.TargetType {
		return nil, ErrTransactionNotFound
	}
	if input.TargetID != uuid.Nil && txn.TargetID != input.TargetID {
		return nil, ErrTransactionNotFound
	}
	fulfiller, err := s.fulfiller(txn.TargetType)
	if err != nil {
		return nil, err
	}
	payable, err := s.payable(ctx, fulfiller, txn.TargetID)
	if err != nil {
		return nil, err
	}
	if !canPay(input.Actor, payable) {
		return nil, ErrForbidden
	}
	if txn.Status == enums.TransactionStatusSuccess || payable.Status == enums.PaymentStatusCompleted {
		return &CompletionResult{Transaction: txn, Outcome: OutcomeAlreadyDone}, nil
	}

	record, err := gw.FetchPayment(ctx, gateways.PaymentRef{OrderID: txn.GatewayOrderID, PaymentID: input.PaymentID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "fetch payment")
	}
	if err := s.checkCapture(ctx, txn, record); err != nil {
		s.metrics.IncCompletion(gw.Name().String(), "verify", outcomeLabel(err))
		return nil, err
	}

	result, err := s.complete(ctx, txn, capture{
		PaymentID:   record.PaymentID,
		AmountMinor: record.AmountMinor,
		Method:      record.Method,
		Raw:         record.Raw,
	}, "verify")
	if err != nil {
		return nil, err
	}
	return result, reviewError(result)
}

type RecordPaymentInput struct {
	TargetType           enums.PayableType
	Gateway              string
	Method               string
	Amount               decimal.Decimal
	Currency             enums.Currency
	GatewayOrderID       string
	GatewayTransactionID string
	GatewayResponse      json.RawMessage
	Actor                auth.Actor
}

// RecordPayment accepts a payment reported directly by the client. The
// reported figures are only a claim; the gateway's own record decides.
func (s *Service) RecordPayment(ctx context.Context, targetID uuid.UUID, input RecordPaymentInput) (*CompletionResult, error) {
	targetType := input.TargetType
	if targetType == "" {
		targetType = enums.PayableBooking
	}
	if strings.TrimSpace(input.GatewayTransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway transaction id is required")
	}
	fulfiller, err := s.fulfiller(targetType)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateways.Get(input.Gateway)
	if err != nil {
		return nil, err
	}
	payable, err := s.payable(ctx, fulfiller, targetID)
	if err != nil {
		return nil, err
	}
	if !canPay(input.Actor, payable) {
		return nil, ErrForbidden
	}
	if payable.Status == enums.PaymentStatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if payable.Status != enums.PaymentStatusPending {
		return nil, ErrNotPayable
	}
	expected, err := money.ToMinor(payable.Amount, payable.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "convert amount")
	}
	if input.Currency != "" && input.Currency != payable.Currency {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency does not match the booking")
	}
	if !input.Amount.IsZero() {
		claimed, err := money.ToMinor(input.Amount, payable.Currency)
		if err != nil || claimed != expected {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match the amount due")
		}
	}

	record, err := gw.FetchPayment(ctx, gateways.PaymentRef{OrderID: input.GatewayOrderID, PaymentID: input.GatewayTransactionID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "fetch payment")
	}

	txn, err := s.transactionForRecord(ctx, gw.Name(), payable, record, expected, input)
	if err != nil {
		return nil, err
	}
	if txn.Status == enums.TransactionStatusSuccess {
		return &CompletionResult{Transaction: txn, Outcome: OutcomeAlreadyDone}, nil
	}
	if err := s.checkCapture(ctx, txn, record); err != nil {
		s.metrics.IncCompletion(gw.Name().String(), "record", outcomeLabel(err))
		return nil, err
	}

	method := record.Method
	if method == "" {
		method = input.Method
	}
	raw := record.Raw
	if len(raw) == 0 {
		raw = input.GatewayResponse
	}
	result, err := s.complete(ctx, txn, capture{
		PaymentID:   record.PaymentID,
		AmountMinor: record.AmountMinor,
		Method:      method,
		Raw:         raw,
	}, "record")
	if err != nil {
		return nil, err
	}
	return result, reviewError(result)
}

// transactionForRecord finds the order's transaction or opens one for a
// payment that never went through CreateOrder.
func (s *Service) transactionForRecord(ctx context.Context, gateway enums.Gateway, payable *Payable, record *gateways.PaymentRecord, amountMinor int64, input RecordPaymentInput) (*models.PaymentTransaction, error) {
	orderID := record.OrderID
	if orderID == "" {
		orderID = input.GatewayOrderID
	}
	if orderID == "" {
		orderID = record.PaymentID
	}
	txn, err := s.repo.FindByOrder(ctx, gateway, orderID)
	if err == nil {
		if txn.TargetType != payable.TargetType || txn.TargetID != payable.TargetID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment belongs to a different order")
		}
		return txn, nil
	}
	if !errors.Is(err, ErrTransactionNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment transaction")
	}

	attempts, err := s.repo.CountAttempts(ctx, payable.TargetType, payable.TargetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payment attempts")
	}
	txn = &models.PaymentTransaction{
		ID:             uuid.New(),
		TargetType:     payable.TargetType,
		TargetID:       payable.TargetID,
		UserID:         payable.UserID,
		Gateway:        gateway,
		GatewayOrderID: orderID,
		Receipt:        receiptFor(payable.Reference, int(attempts)+1),
		Attempt:        int(attempts) + 1,
		AmountMinor:    amountMinor,
		Currency:       payable.Currency,
		Method:         input.Method,
		Status:         enums.TransactionStatusPending,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment transaction")
	}
	return txn, nil
}

// checkCapture rejects anything but a captured payment for the stored
// amount. An amount mismatch is parked for review.
func (s *Service) checkCapture(ctx context.Context, txn *models.PaymentTransaction, record *gateways.PaymentRecord) error {
	if record.Status != gateways.PaymentCaptured {
		return pkgerrors.Wrap(pkgerrors.CodeBusinessRule, ErrPaymentNotCaptured, "payment is "+string(record.Status)).
			WithDetails(map[string]any{"status": record.Status})
	}
	if record.AmountMinor != txn.AmountMinor || (record.Currency != "" && record.Currency != txn.Currency) {
		if err := s.flagMismatch(ctx, txn, record.AmountMinor); err != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrAmountMismatch, "captured amount does not match").
			WithDetails(map[string]any{"expectedMinor": txn.AmountMinor, "capturedMinor": record.AmountMinor})
	}
	return nil
}

func (s *Service) flagMismatch(ctx context.Context, txn *models.PaymentTransaction, capturedMinor int64) error {
	s.logg.SecurityWarn(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txn.ID.String(),
		"expected_minor": txn.AmountMinor,
		"captured_minor": capturedMinor,
	}), "captured amount mismatch")
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.flagReview(ctx, tx, txn, ReviewAmountMismatch)
	})
}

// complete applies a confirmed capture in one transaction. The conditional
// transaction update elects a single winner; losers observe the stored
// result and run no side effects.
func (s *Service) complete(ctx context.Context, txn *models.PaymentTransaction, c capture, path string) (*CompletionResult, error) {
	fulfiller, err := s.fulfiller(txn.TargetType)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	result := &CompletionResult{}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stored, err := repo.FindByID(ctx, txn.ID)
		if err != nil {
			return err
		}
		if outcome, ok := parkedOutcome(stored); ok {
			result.Transaction = stored
			result.Outcome = outcome
			return nil
		}

		affected, err := repo.MarkSuccess(ctx, txn.ID, c, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction success")
		}
		current, err := repo.FindByID(ctx, txn.ID)
		if err != nil {
			return err
		}
		result.Transaction = current
		if affected == 0 {
			result.Outcome = OutcomeAlreadyDone
			return nil
		}

		completion, err := fulfiller.Complete(ctx, tx, current.TargetID, current, now)
		if errors.Is(err, ErrHoldLapsed) {
			s.logg.SecurityWarn(s.logg.WithFields(ctx, map[string]any{
				"transaction_id": current.ID.String(),
				"target_type":    current.TargetType,
				"target_id":      current.TargetID.String(),
				"path":           path,
			}), "payment captured after hold lapsed")
			result.Outcome = OutcomeNeedsReview
			return s.park(ctx, tx, current, ReviewLateSuccess)
		}
		if err != nil {
			return err
		}
		if completion == CompletionAlreadyDone {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"transaction_id": current.ID.String(),
				"target_id":      current.TargetID.String(),
			}), "second capture for a completed target")
			result.Outcome = OutcomeDuplicateCapture
			return s.park(ctx, tx, current, ReviewDuplicateCapture)
		}

		payable, err := fulfiller.Payable(ctx, tx, current.TargetID)
		if err != nil {
			return err
		}
		if payable.VendorID != nil {
			if _, _, err := s.earnings.Credit(ctx, tx, earnings.CreditInput{
				VendorID:   *payable.VendorID,
				SourceID:   current.ID,
				GrossMinor: current.AmountMinor,
				Currency:   current.Currency,
			}); err != nil {
				return err
			}
		}
		result.Outcome = OutcomeApplied
		return s.emit(ctx, tx, enums.EventPaymentCompleted, current, "", now)
	})
	if err != nil {
		s.metrics.IncCompletion(txn.Gateway.String(), path, "error")
		return nil, err
	}

	s.metrics.IncCompletion(txn.Gateway.String(), path, string(result.Outcome))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txn.ID.String(),
		"target_type":    txn.TargetType,
		"outcome":        result.Outcome,
		"path":           path,
	}), "payment reconciled")
	return result, nil
}

// park undoes the success transition of a capture that could not complete
// its target, so a target never has more than one successful transaction.
// The captured payment id and response stay on the pending row for review.
func (s *Service) park(ctx context.Context, tx *gorm.DB, txn *models.PaymentTransaction, reason string) error {
	if _, err := s.repo.WithTx(tx).Unsettle(ctx, txn.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "park captured transaction")
	}
	txn.Status = enums.TransactionStatusPending
	txn.ProcessedAt = nil
	return s.flagReview(ctx, tx, txn, reason)
}

// parkedOutcome reports a capture that was already parked, so redelivery
// does not flag it again.
func parkedOutcome(txn *models.PaymentTransaction) (Outcome, bool) {
	if txn.Status != enums.TransactionStatusPending || txn.ReviewReason == nil {
		return "", false
	}
	switch *txn.ReviewReason {
	case ReviewLateSuccess:
		return OutcomeNeedsReview, true
	case ReviewDuplicateCapture:
		return OutcomeDuplicateCapture, true
	}
	return "", false
}

// flagReview parks a transaction and its target for manual reconciliation.
func (s *Service) flagReview(ctx context.Context, tx *gorm.DB, txn *models.PaymentTransaction, reason string) error {
	if err := s.repo.WithTx(tx).SetReviewReason(ctx, txn.ID, reason); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag transaction for review")
	}
	txn.ReviewReason = &reason
	if fulfiller, ok := s.fulfillers[txn.TargetType]; ok {
		if err := fulfiller.FlagReview(ctx, tx, txn.TargetID, reason); err != nil {
			return err
		}
	}
	return s.emit(ctx, tx, enums.EventPaymentNeedsReview, txn, reason, s.now().UTC())
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, txn *models.PaymentTransaction, reason string, now time.Time) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePaymentTransaction,
		AggregateID:   txn.ID,
		OccurredAt:    now,
		Data: payloads.PaymentEvent{
			TransactionID:  txn.ID,
			TargetType:     txn.TargetType,
			TargetID:       txn.TargetID,
			Gateway:        txn.Gateway,
			GatewayOrderID: txn.GatewayOrderID,
			AmountMinor:    txn.AmountMinor,
			Currency:       txn.Currency,
			Reason:         reason,
		},
	}
	if txn.UserID != nil {
		event.Actor = &outbox.ActorRef{UserID: *txn.UserID, Role: enums.RoleUser.String()}
	}
	if txn.GatewayPaymentID != nil {
		data := event.Data.(payloads.PaymentEvent)
		data.GatewayPaymentID = *txn.GatewayPaymentID
		event.Data = data
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *Service) fulfiller(targetType enums.PayableType) (Fulfiller, error) {
	f, ok := s.fulfillers[targetType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment target").
			WithDetails(map[string]any{"targetType": targetType})
	}
	return f, nil
}

func (s *Service) payable(ctx context.Context, fulfiller Fulfiller, targetID uuid.UUID) (*Payable, error) {
	if targetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target id is required")
	}
	var payable *Payable
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		payable, err = fulfiller.Payable(ctx, tx, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payable, nil
}

// payableNow reports whether a new order may be opened for the target.
func (s *Service) payableNow(payable *Payable) error {
	switch {
	case payable.Status == enums.PaymentStatusCompleted:
		return ErrAlreadyCompleted
	case payable.Status != enums.PaymentStatusPending || !payable.Open:
		return ErrNotPayable
	case payable.ExpiresAt != nil && !s.now().Before(*payable.ExpiresAt):
		return ErrHoldExpired
	}
	return nil
}

func canPay(actor auth.Actor, payable *Payable) bool {
	if actor.IsAdmin() {
		return true
	}
	if payable.UserID != nil {
		return actor.CanAccess(*payable.UserID)
	}
	return actor.OwnsVendor(payable.PayerVendorID)
}

// receiptFor keeps the first attempt on the bare reference. Later attempts
// get a suffix since some providers use the receipt as their order id.
func receiptFor(reference string, attempt int) string {
	if attempt <= 1 {
		return reference
	}
	return fmt.Sprintf("%s-%d", reference, attempt)
}

func gatewayCustomer(payable *Payable) gateways.Customer {
	customer := gateways.Customer{
		Name:  payable.Customer.Name,
		Email: payable.Customer.Email,
		Phone: payable.Customer.Phone,
	}
	switch {
	case payable.UserID != nil:
		customer.ID = payable.UserID.String()
	case payable.PayerVendorID != nil:
		customer.ID = payable.PayerVendorID.String()
	}
	return customer
}

func reviewError(result *CompletionResult) error {
	switch result.Outcome {
	case OutcomeNeedsReview, OutcomeDuplicateCapture:
		return ErrUnderReview
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, ErrTransactionNotFound) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrPaymentNotCaptured):
		return "not_captured"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	}
	return "error"
}
