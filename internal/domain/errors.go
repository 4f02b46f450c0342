package domain

import "errors"

var (
	ErrEquipmentNotFound    = errors.New("equipment not found")
	ErrEquipmentUnavailable = errors.New("equipment unavailable for the requested dates")
	ErrSelfBookingForbidden = errors.New("renter owns the equipment")
	ErrInvalidDuration      = errors.New("rental duration outside allowed range")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrInvalidTransition    = errors.New("invalid booking status transition")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidInput         = errors.New("invalid input")

	ErrPoolExhausted      = errors.New("connection pool exhausted")
	ErrTransactionAborted = errors.New("transaction aborted")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// IsRetryable reports whether err is a transient infrastructure failure the
// caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPoolExhausted) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrTransactionAborted)
}
