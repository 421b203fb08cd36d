package payouts

import (
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
)

var (
	ErrWithdrawalNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
	ErrVendorNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	ErrVendorNotApproved  = pkgerrors.New(pkgerrors.CodeForbidden, "vendor is not approved for payouts")
	ErrNoBankDetails      = pkgerrors.New(pkgerrors.CodeBusinessRule, "bank details are required before withdrawing")
	ErrBelowMinimum       = pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount is below the minimum")
	ErrNotProcessable     = pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is not in a processable state")
	ErrAmountMismatch     = pkgerrors.New(pkgerrors.CodeValidation, "amount does not match the withdrawal")
	// ErrWithdrawalFailed reports a provider step failure. The withdrawal is
	// left failed for operator review.
	ErrWithdrawalFailed = pkgerrors.New(pkgerrors.CodeGateway, "payout provider step failed")
	ErrForbidden        = pkgerrors.New(pkgerrors.CodeForbidden, "withdrawal belongs to another vendor")
)
