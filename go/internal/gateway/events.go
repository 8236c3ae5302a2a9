package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/regatta/go/internal/events"
)

// RaceEvent represents the base structure for all race events
type RaceEvent struct {
	ID        string          `json:"id"`        // Event UUID
	RaceID    string          `json:"race_id"`   // Race UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of race event
type EventType string

const (
	EventTypeRaceStarted       EventType = "RaceStarted"
	EventTypeSequencePostponed EventType = "SequencePostponed"
	EventTypeGeneralRecall     EventType = "GeneralRecall"
	EventTypeRaceFinished      EventType = "RaceFinished"
	EventTypeFinishRecorded    EventType = "FinishRecorded"
	EventTypeStatusAssigned    EventType = "StatusAssigned"
	EventTypeTimerTick         EventType = "TimerTick"
)

// Event payloads live in the events package to avoid cyclic imports

// TimerTickPayload contains periodic countdown updates (optional)
type TimerTickPayload struct {
	RaceID       string    `json:"race_id"`
	State        string    `json:"state"`
	RemainingSec int       `json:"remaining_sec"`
	ElapsedSec   int       `json:"elapsed_sec"`
	TickedAt     time.Time `json:"ticked_at"`
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *RaceEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeRaceStarted:
		var payload events.RaceStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeSequencePostponed:
		var payload events.SequencePostponedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeGeneralRecall:
		var payload events.GeneralRecallPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRaceFinished:
		var payload events.RaceFinishedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeFinishRecorded:
		var payload events.FinishRecordedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeStatusAssigned:
		var payload events.StatusAssignedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTimerTick:
		var payload TimerTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
