package internaltypes

import "errors"

var (
	// ErrParse marks a malformed stored row; callers skip the row.
	ErrParse = errors.New("parse failure")
	// ErrStoreUnavailable marks a failed read or append against the booking store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
