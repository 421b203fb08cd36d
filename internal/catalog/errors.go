package catalog

import pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"

var (
	ErrMovieNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "movie not found")
	ErrShowtimeNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "showtime not found")
	ErrVideoNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	ErrForbidden        = pkgerrors.New(pkgerrors.CodeForbidden, "only the owning vendor or an admin can change this item")
	ErrSlugTaken        = pkgerrors.New(pkgerrors.CodeConflict, "an item with this title already exists")
	ErrAlreadyReviewed  = pkgerrors.New(pkgerrors.CodeConflict, "movie already reviewed by this user")
)
