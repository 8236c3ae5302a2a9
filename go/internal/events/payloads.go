package events

import (
	"time"
)

// Event payload types that are shared between the engine and gateway packages

// RaceStartedPayload is the payload for a RaceStarted event
type RaceStartedPayload struct {
	RaceID       string    `json:"race_id"`
	RegattaID    string    `json:"regatta_id"`
	RaceNumber   int       `json:"race_number"`
	SequenceType string    `json:"sequence_type"`
	StartedAt    time.Time `json:"started_at"`
	Starters     int       `json:"starters"`
}

// FinishRecordedPayload is the payload for a FinishRecorded event
type FinishRecordedPayload struct {
	RaceID     string    `json:"race_id"`
	EntryID    string    `json:"entry_id"`
	Position   int       `json:"position"`
	ElapsedSec int       `json:"elapsed_sec"`
	FinishedAt time.Time `json:"finished_at"`
}

// StatusAssignedPayload is the payload for a StatusAssigned event
type StatusAssignedPayload struct {
	RaceID     string    `json:"race_id"`
	EntryID    string    `json:"entry_id"`
	Status     string    `json:"status"`
	Position   *int      `json:"position,omitempty"` // preserved crossing-order position, if any
	AssignedAt time.Time `json:"assigned_at"`
}

// SequencePostponedPayload is the payload for a SequencePostponed event
type SequencePostponedPayload struct {
	RaceID      string    `json:"race_id"`
	RaceNumber  int       `json:"race_number"`
	Official    string    `json:"official"`
	PostponedAt time.Time `json:"postponed_at"`
}

// GeneralRecallPayload is the payload for a GeneralRecall event
type GeneralRecallPayload struct {
	RaceID     string    `json:"race_id"`
	RaceNumber int       `json:"race_number"`
	Official   string    `json:"official"`
	RecalledAt time.Time `json:"recalled_at"`
}

// RaceFinishedPayload is the payload for a RaceFinished event
type RaceFinishedPayload struct {
	RaceID     string    `json:"race_id"`
	RaceNumber int       `json:"race_number"`
	FinishedAt time.Time `json:"finished_at"`
	Finishers  int       `json:"finishers"`
}
