package payments

import pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"

var (
	ErrTransactionNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "payment transaction not found")
	ErrSignatureInvalid    = pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature verification failed")
	ErrNotPayable          = pkgerrors.New(pkgerrors.CodeBusinessRule, "target is not awaiting payment")
	ErrHoldExpired         = pkgerrors.New(pkgerrors.CodeBusinessRule, "payment window has expired")
	ErrAlreadyCompleted    = pkgerrors.New(pkgerrors.CodeBusinessRule, "payment already completed")
	ErrPaymentNotCaptured  = pkgerrors.New(pkgerrors.CodeBusinessRule, "payment has not been captured")
	ErrNotRefundable       = pkgerrors.New(pkgerrors.CodeBusinessRule, "only completed payments can be refunded")
	ErrAlreadyRefunded     = pkgerrors.New(pkgerrors.CodeBusinessRule, "payment already refunded")
	ErrPartialRefund       = pkgerrors.New(pkgerrors.CodeValidation, "refund amount must equal the captured amount")
	ErrAmountMismatch      = pkgerrors.New(pkgerrors.CodeStateConflict, "captured amount does not match the order")
	ErrUnderReview         = pkgerrors.New(pkgerrors.CodeStateConflict, "payment captured but held for manual reconciliation")
	ErrRefundFailed        = pkgerrors.New(pkgerrors.CodeGateway, "gateway rejected the refund")
	ErrForbidden           = pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to pay for this target")
)

// Review reasons recorded on transactions and targets.
const (
	ReviewLateSuccess      = "late_success_after_hold_lapsed"
	ReviewDuplicateCapture = "duplicate_capture"
	ReviewAmountMismatch   = "amount_mismatch"
	ReviewUnexpectedRefund = "refund_not_initiated_here"
	reviewRefundFailed     = "refund_failed: "
)
