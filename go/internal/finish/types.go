package finish

import (
	"time"

	"github.com/google/uuid"
)

// RecordFinishRequest represents one official's finish submission
type RecordFinishRequest struct {
	RaceID     uuid.UUID `json:"race_id"`
	EntryID    uuid.UUID `json:"entry_id"`
	FinishedAt time.Time `json:"finished_at"`
	ElapsedSec int       `json:"elapsed_sec"`
}

// AssignStatusRequest represents a status correction for an entry. The
// entry's position, if any, is left untouched.
type AssignStatusRequest struct {
	RaceID  uuid.UUID `json:"race_id"`
	EntryID uuid.UUID `json:"entry_id"`
	Status  string    `json:"status"`
}
