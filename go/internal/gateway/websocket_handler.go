package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for race connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleRaceConnection handles WebSocket connections for a specific race
func (h *WebSocketHandler) HandleRaceConnection(w http.ResponseWriter, r *http.Request) {
	raceIDStr := r.URL.Query().Get("race_id")
	if raceIDStr == "" {
		http.Error(w, "race_id is required", http.StatusBadRequest)
		return
	}

	raceID, err := uuid.Parse(raceIDStr)
	if err != nil {
		http.Error(w, "invalid race_id format", http.StatusBadRequest)
		return
	}

	// Committee boat, finish boat and shore display identify themselves;
	// anything else watches as a spectator.
	station := ParseStation(r.URL.Query().Get("station"))

	if err := h.connectionManager.UpgradeConnection(w, r, station, raceID); err != nil {
		log.Error().
			Err(err).
			Str("race_id", raceID.String()).
			Str("station", string(station)).
			Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/race", h.HandleRaceConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
