package tickets

import pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"

var (
	ErrTicketNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
	ErrTicketAlreadyUsed = pkgerrors.New(pkgerrors.CodeBusinessRule, "ticket has already been used")
	ErrInvalidSignature  = pkgerrors.New(pkgerrors.CodeSignatureInvalid, "ticket signature is invalid")
)
