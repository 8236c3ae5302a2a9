package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/finish"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/race"
	"github.com/mcdev12/regatta/go/internal/roster"
	"github.com/rs/zerolog/log"
)

// Handler exposes the console commands over JSON HTTP for the officials'
// consoles.
type Handler struct {
	app *App
}

// NewHandler creates a new console handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers console HTTP routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/console/races", h.handleCreateRace)
	mux.HandleFunc("/api/console/regattas/", h.handleRaceCommand)
	log.Info().Msg("console routes registered")
}

// handleCreateRace handles POST /api/console/races
func (h *Handler) handleCreateRace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateRaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	regattaID, err := uuid.Parse(req.RegattaID)
	if err != nil {
		http.Error(w, "invalid regatta_id format", http.StatusBadRequest)
		return
	}

	created, err := h.app.CreateRace(r.Context(), regattaID, req.RaceNumber, models.SequenceType(req.SequenceType))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleRaceCommand routes /api/console/regattas/{regatta_id}/races/{race_number}/{action}
func (h *Handler) handleRaceCommand(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/console/regattas/")
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[1] != "races" {
		http.NotFound(w, r)
		return
	}

	regattaID, err := uuid.Parse(parts[0])
	if err != nil {
		http.Error(w, "invalid regatta ID format", http.StatusBadRequest)
		return
	}
	raceNumber, err := strconv.Atoi(parts[2])
	if err != nil || raceNumber <= 0 {
		http.Error(w, "invalid race number", http.StatusBadRequest)
		return
	}
	action := parts[3]

	if action == "state" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleState(w, r, regattaID, raceNumber)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "start":
		h.handleStartSequence(w, r, regattaID, raceNumber)
	case "postpone":
		h.handleAbort(w, r, regattaID, raceNumber, h.app.Postpone)
	case "recall":
		h.handleAbort(w, r, regattaID, raceNumber, h.app.GeneralRecall)
	case "stop":
		h.handleStop(w, r, regattaID, raceNumber)
	case "finish":
		h.handleRecordFinish(w, r, regattaID, raceNumber)
	case "status":
		h.handleAssignStatus(w, r, regattaID, raceNumber)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleStartSequence(w http.ResponseWriter, r *http.Request, regattaID uuid.UUID, raceNumber int) {
	var req StartSequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.app.StartSequence(r.Context(), regattaID, raceNumber, models.SequenceType(req.SequenceType))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleAbort(w http.ResponseWriter, r *http.Request, regattaID uuid.UUID, raceNumber int,
	abort func(ctx context.Context, regattaID uuid.UUID, raceNumber int, official string) error) {
	var req AbortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := abort(r.Context(), regattaID, raceNumber, req.Official); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "aborted"})
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request, regattaID uuid.UUID, raceNumber int) {
	if err := h.app.StopRace(r.Context(), regattaID, raceNumber); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "stopped"})
}

func (h *Handler) handleRecordFinish(w http.ResponseWriter, r *http.Request, regattaID uuid.UUID, raceNumber int) {
	var req RecordFinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.app.RecordFinish(r.Context(), regattaID, raceNumber, req.SailNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleAssignStatus(w http.ResponseWriter, r *http.Request, regattaID uuid.UUID, raceNumber int) {
	var req AssignStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.app.AssignStatus(r.Context(), regattaID, raceNumber, req.SailNumber, models.FinishStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request, regattaID uuid.UUID, raceNumber int) {
	state, err := h.app.RaceState(r.Context(), regattaID, raceNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps domain errors onto HTTP status codes. Rejected commands
// (bad transitions, duplicate finishes) are 409; unknown races and sail
// numbers are 404; everything unexpected is 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, race.ErrRaceNotFound),
		errors.Is(err, roster.ErrEntryNotFound),
		errors.Is(err, finish.ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, race.ErrInvalidTransition),
		errors.Is(err, finish.ErrRaceNotRacing),
		errors.Is(err, finish.ErrAlreadyFinished),
		errors.Is(err, finish.ErrEntryNotRacing):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, finish.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("console command failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
