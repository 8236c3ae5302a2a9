package race

import "errors"

// ErrInvalidTransition is returned when a state change is not legal from
// the race's current state. It is a rejected operation, never fatal.
var ErrInvalidTransition = errors.New("invalid sequence state transition")

// ErrRaceNotFound is returned when no race exists for the given key
var ErrRaceNotFound = errors.New("race not found")
