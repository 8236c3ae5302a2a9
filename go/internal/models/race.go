package models

import (
	"github.com/google/uuid"
	"time"
)

// SequenceType defines the built-in start sequence for a race.
type SequenceType string

const (
	SequenceTypeFiveMinute  SequenceType = "FIVE_MINUTE"
	SequenceTypeThreeMinute SequenceType = "THREE_MINUTE"
)

// SequenceState defines the lifecycle state of a race's start sequence.
type SequenceState string

const (
	SequenceStateIdle      SequenceState = "IDLE"
	SequenceStateCountdown SequenceState = "COUNTDOWN"
	SequenceStateRacing    SequenceState = "RACING"
	SequenceStateFinished  SequenceState = "FINISHED"
)

// Race represents one race number within a regatta, together with the
// current (or most recent) sequence run for it.
type Race struct {
	ID           uuid.UUID     `json:"id"`
	RegattaID    uuid.UUID     `json:"regatta_id"`
	RaceNumber   int           `json:"race_number"`
	SequenceType SequenceType  `json:"sequence_type"`
	State        SequenceState `json:"state"`
	// CountdownEndsAt is the persisted start deadline while in countdown,
	// used to recompute remaining time after a console restart.
	CountdownEndsAt *time.Time `json:"countdown_ends_at,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
