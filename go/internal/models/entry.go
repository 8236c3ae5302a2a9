package models

import (
	"github.com/google/uuid"
	"time"
)

// Entry represents a competing boat registered for a regatta. Registration
// itself is owned by an external system; the engine references entries by ID.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	RegattaID  uuid.UUID `json:"regatta_id"`
	SailNumber string    `json:"sail_number"`
	BoatName   string    `json:"boat_name"`
	ClassName  string    `json:"class_name"`
	Eligible   bool      `json:"eligible"`
	CreatedAt  time.Time `json:"created_at"`
}
