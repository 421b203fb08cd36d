package purchases

import pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"

var (
	ErrPurchaseNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	ErrVideoUnavailable = pkgerrors.New(pkgerrors.CodeBusinessRule, "video is not available for sale")
	ErrActivePurchase   = pkgerrors.New(pkgerrors.CodeConflict, "an active purchase already exists for this video")
	ErrNoAccess         = pkgerrors.New(pkgerrors.CodeForbidden, "video not purchased")
	ErrAccessExpired    = pkgerrors.New(pkgerrors.CodeGone, "rental has expired")
)
