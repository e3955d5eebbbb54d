package model

import "errors"

// Cross-cutting errors shared by every domain.
var (
	// ErrForbidden is returned when an authenticated caller acts on a
	// resource it neither owns nor administers.
	ErrForbidden = errors.New("forbidden")

	// ErrIndexDivergence means a two-index lesson write failed half way and
	// the compensating write failed too. The two indexes disagree until an
	// operator repairs the row named in the published divergence event.
	ErrIndexDivergence = errors.New("lesson indexes diverged")
)

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)
