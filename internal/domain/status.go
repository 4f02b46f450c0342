package domain

import "fmt"

var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusDisputed},
	BookingStatusConfirmed: {BookingStatusActive, BookingStatusCancelled, BookingStatusDisputed},
	BookingStatusActive:    {BookingStatusCompleted, BookingStatusDisputed},
	// disputes are settled by an outside party into one of the terminal states
	BookingStatusDisputed:  {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows s -> target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Cancellable reports whether the refund resolver may cancel from s.
func (s BookingStatus) Cancellable() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Occupies reports whether a booking in this status holds its dates.
func (s BookingStatus) Occupies() bool {
	return s == BookingStatusConfirmed || s == BookingStatusActive
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrInvalidTransition, s)
	}
	return status, nil
}
