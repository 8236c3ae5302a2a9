package models

import (
	"github.com/google/uuid"
	"time"
)

// FlagType defines the abort semantic recorded when a countdown is broken off.
type FlagType string

const (
	FlagTypePostponement  FlagType = "POSTPONEMENT"
	FlagTypeGeneralRecall FlagType = "GENERAL_RECALL"
)

// FlagEvent is one append-only row in the flag log.
type FlagEvent struct {
	ID         uuid.UUID `json:"id"`
	RegattaID  uuid.UUID `json:"regatta_id"`
	RaceNumber int       `json:"race_number"`
	FlagType   FlagType  `json:"flag_type"`
	Official   string    `json:"official"`
	NotedAt    time.Time `json:"noted_at"`
}
