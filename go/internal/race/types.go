package race

import (
	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
)

// CreateRaceRequest represents a request to register a new race number
type CreateRaceRequest struct {
	ID           uuid.UUID           `json:"id"`
	RegattaID    uuid.UUID           `json:"regatta_id"`
	RaceNumber   int                 `json:"race_number"`
	SequenceType models.SequenceType `json:"sequence_type"`
}

// UpdateStateRequest represents a request to move a race to a new state
type UpdateStateRequest struct {
	State models.SequenceState `json:"state"`
}
