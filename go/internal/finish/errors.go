package finish

import "errors"

// ErrRaceNotRacing is returned when a finish is submitted while the race is
// not in the racing state
var ErrRaceNotRacing = errors.New("race is not racing")

// ErrAlreadyFinished is returned when the entry already holds a finish
// position; the duplicate submission is a no-op for the caller
var ErrAlreadyFinished = errors.New("entry already has a finish position")

// ErrEntryNotRacing is returned when the entry's record is no longer in the
// racing status (e.g. already scored DNF) and so cannot take a position
var ErrEntryNotRacing = errors.New("entry is not racing")

// ErrRecordNotFound is returned when no finish record exists for the entry
var ErrRecordNotFound = errors.New("finish record not found")

// ErrInvalidStatus is returned for a status code outside the accepted set
var ErrInvalidStatus = errors.New("invalid finish status")
