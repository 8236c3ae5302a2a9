package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StateProvider interface defines methods for retrieving race state
type StateProvider interface {
	GetRaceState(ctx context.Context, raceID uuid.UUID) (*RaceStateResponse, error)
	GetActiveRaces(ctx context.Context, regattaID uuid.UUID) ([]RaceSummary, error)
}

// RaceStateResponse represents the complete state of a race
type RaceStateResponse struct {
	RaceID        string                 `json:"race_id"`
	RegattaID     string                 `json:"regatta_id"`
	RaceNumber    int                    `json:"race_number"`
	State         string                 `json:"state"`
	SequenceType  string                 `json:"sequence_type"`
	RemainingSec  *int                   `json:"remaining_sec,omitempty"`
	ElapsedSec    *int                   `json:"elapsed_sec,omitempty"`
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	FinishOrder   []FinishInfo           `json:"finish_order"`
	FinishedCount int                    `json:"finished_count"`
	TotalEntries  int                    `json:"total_entries"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// FinishInfo represents one entry's result row in finish order
type FinishInfo struct {
	EntryID    string     `json:"entry_id"`
	SailNumber string     `json:"sail_number"`
	BoatName   string     `json:"boat_name,omitempty"`
	Position   *int       `json:"position,omitempty"`
	ElapsedSec *int       `json:"elapsed_sec,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
}

// RaceSummary represents a summary of an active race
type RaceSummary struct {
	RaceID       string     `json:"race_id"`
	RegattaID    string     `json:"regatta_id"`
	RaceNumber   int        `json:"race_number"`
	State        string     `json:"state"`
	SequenceType string     `json:"sequence_type"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
}

// StateHandler handles HTTP requests for race state
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetRaceState handles GET /api/races/{id}/state
func (h *StateHandler) HandleGetRaceState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract race ID from path
	// Expecting path like /api/races/{id}/state
	path := r.URL.Path
	raceIDStr := extractRaceIDFromPath(path)
	if raceIDStr == "" {
		http.Error(w, "Race ID is required", http.StatusBadRequest)
		return
	}

	raceID, err := uuid.Parse(raceIDStr)
	if err != nil {
		http.Error(w, "Invalid race ID format", http.StatusBadRequest)
		return
	}

	// Get race state
	state, err := h.stateProvider.GetRaceState(r.Context(), raceID)
	if err != nil {
		log.Error().Err(err).Str("race_id", raceID.String()).Msg("failed to get race state")
		http.Error(w, "Failed to get race state", http.StatusInternalServerError)
		return
	}

	// Send response
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.Error().Err(err).Msg("failed to encode race state response")
	}
}

// HandleGetActiveRaces handles GET /api/races/active?regatta_id={id}
func (h *StateHandler) HandleGetActiveRaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	regattaIDStr := r.URL.Query().Get("regatta_id")
	if regattaIDStr == "" {
		http.Error(w, "regatta_id is required", http.StatusBadRequest)
		return
	}

	regattaID, err := uuid.Parse(regattaIDStr)
	if err != nil {
		http.Error(w, "invalid regatta_id format", http.StatusBadRequest)
		return
	}

	races, err := h.stateProvider.GetActiveRaces(r.Context(), regattaID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active races")
		http.Error(w, "Failed to get active races", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(races); err != nil {
		log.Error().Err(err).Msg("failed to encode active races response")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	// Register specific routes
	mux.HandleFunc("/api/races/active", h.HandleGetActiveRaces)

	// Register pattern for race state - note the trailing slash
	mux.HandleFunc("/api/races/", func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("path", r.URL.Path).Msg("state handler received request")

		// Check if path ends with /state
		if len(r.URL.Path) > len("/api/races/") && r.URL.Path[len(r.URL.Path)-6:] == "/state" {
			h.HandleGetRaceState(w, r)
		} else {
			http.NotFound(w, r)
		}
	})
}

// extractRaceIDFromPath extracts race ID from path like /api/races/{id}/state
func extractRaceIDFromPath(path string) string {
	// Remove prefix and suffix
	const prefix = "/api/races/"
	const suffix = "/state"

	if len(path) <= len(prefix)+len(suffix) {
		return ""
	}

	if path[:len(prefix)] != prefix || path[len(path)-len(suffix):] != suffix {
		return ""
	}

	return path[len(prefix) : len(path)-len(suffix)]
}
