package domain

import "errors"

// Store errors
var (
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
)

// Listing errors
var (
	ErrInvalidListing = errors.New("listing body must be a JSON object")
	ErrForbidden      = errors.New("not allowed to modify this listing")
)
