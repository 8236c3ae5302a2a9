package roster

import "errors"

// ErrEntryNotFound is returned when no entry exists for the given ID
var ErrEntryNotFound = errors.New("entry not found")
