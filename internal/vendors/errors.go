package vendors

import pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"

const invalidCredentialsMessage = "invalid credentials"

var (
	ErrVendorNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	ErrEmailTaken      = pkgerrors.New(pkgerrors.CodeConflict, "a vendor with this email already exists")
	ErrForbidden       = pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to manage this vendor")
	ErrNotPending      = pkgerrors.New(pkgerrors.CodeStateConflict, "vendor application is not pending")
	ErrFeeUnpaid       = pkgerrors.New(pkgerrors.CodeBusinessRule, "application fee has not been paid")
	ErrVendorRejected  = pkgerrors.New(pkgerrors.CodeForbidden, "vendor application was rejected")
	ErrInvalidBankInfo = pkgerrors.New(pkgerrors.CodeValidation, "invalid bank details")
)
