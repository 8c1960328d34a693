package game

import (
	"errors"
	"fmt"
)

var (
	// ErrVoidHand is returned when fewer than two seats can afford their
	// blinds and the hand cannot be opened.
	ErrVoidHand = errors.New("void hand: fewer than two seats can post blinds")

	// ErrHandComplete is returned when an action arrives after the hand
	// has already finished.
	ErrHandComplete = errors.New("hand is complete")

	// ErrNotYourTurn is returned when an action arrives from a seat other
	// than the one being waited on.
	ErrNotYourTurn = errors.New("not this seat's turn")

	// ErrUnknownSeat is returned for a seat id that is not part of the hand.
	ErrUnknownSeat = errors.New("unknown seat")
)

// FatalError marks an internal invariant violation: chip conservation
// broken, a negative stack, or a corrupted deck. The process should log
// the hand state and terminate rather than continue dealing.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return "fatal game invariant violation: " + e.Reason
}

func fatalf(format string, args ...any) error {
	return &FatalError{Reason: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err wraps a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
