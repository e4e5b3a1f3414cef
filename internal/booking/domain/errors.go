package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidSeatIndex = errors.New("invalid seat index")
	ErrSeatUnavailable  = errors.New("seat is already booked")
	ErrAuthorization    = errors.New("credentials do not match")

	// ErrPartialBooking marks a booking whose seat was persisted but whose
	// ticket was not. The vehicle and user documents disagree until an audit
	// reconciles them.
	ErrPartialBooking = errors.New("booking partially persisted")
)
