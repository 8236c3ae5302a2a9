package console

import (
	"time"

	"github.com/mcdev12/regatta/go/internal/models"
)

// CreateRaceRequest represents a request to register a race number
type CreateRaceRequest struct {
	RegattaID    string `json:"regatta_id"`
	RaceNumber   int    `json:"race_number"`
	SequenceType string `json:"sequence_type"`
}

// StartSequenceRequest represents a request to begin a countdown
type StartSequenceRequest struct {
	SequenceType string `json:"sequence_type"`
}

// AbortRequest represents a postponement or general recall request
type AbortRequest struct {
	Official string `json:"official"`
}

// RecordFinishRequest represents a finish-line crossing keyed by sail number
type RecordFinishRequest struct {
	SailNumber string `json:"sail_number"`
}

// AssignStatusRequest represents a scoring status assignment keyed by sail number
type AssignStatusRequest struct {
	SailNumber string `json:"sail_number"`
	Status     string `json:"status"`
}

// RaceState is the console view of one race: persisted race fields, the
// live timer when a run is loaded, the ordered finish list and the flag
// history.
type RaceState struct {
	RaceID       string             `json:"race_id"`
	RegattaID    string             `json:"regatta_id"`
	RaceNumber   int                `json:"race_number"`
	State        string             `json:"state"`
	SequenceType string             `json:"sequence_type"`
	RemainingSec *int               `json:"remaining_sec,omitempty"`
	ElapsedSec   *int               `json:"elapsed_sec,omitempty"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
	FinishOrder  []FinishRow        `json:"finish_order"`
	Flags        []models.FlagEvent `json:"flags"`
}

// FinishRow is one line of the console's finish list
type FinishRow struct {
	EntryID    string     `json:"entry_id"`
	SailNumber string     `json:"sail_number,omitempty"`
	BoatName   string     `json:"boat_name,omitempty"`
	Position   *int       `json:"position,omitempty"`
	ElapsedSec *int       `json:"elapsed_sec,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
}
