package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types relayed through the outbox.
const (
	EventTypeRaceStarted       = "RaceStarted"
	EventTypeSequencePostponed = "SequencePostponed"
	EventTypeGeneralRecall     = "GeneralRecall"
	EventTypeRaceFinished      = "RaceFinished"
	EventTypeFinishRecorded    = "FinishRecorded"
	EventTypeStatusAssigned    = "StatusAssigned"
)

// OutboxEvent represents an outbox event for the application layer
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	RaceID    uuid.UUID       `json:"race_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}
