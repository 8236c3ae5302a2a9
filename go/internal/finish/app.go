package finish

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/events"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/rs/zerolog/log"
)

// FinishRepository defines what the finish app layer needs from the repository
type FinishRepository interface {
	CreateRecordsForStart(ctx context.Context, raceID uuid.UUID, entryIDs []uuid.UUID) error
	AssignNextPosition(ctx context.Context, req RecordFinishRequest) (*models.FinishRecord, error)
	UpsertStatus(ctx context.Context, raceID, entryID uuid.UUID, status models.FinishStatus) (*models.FinishRecord, error)
	GetRecord(ctx context.Context, raceID, entryID uuid.UUID) (*models.FinishRecord, error)
	ListRecordsByRace(ctx context.Context, raceID uuid.UUID) ([]models.FinishRecord, error)
	CountFinished(ctx context.Context, raceID uuid.UUID) (int, error)
}

// RaceGetter defines what the finish app needs from the race app
type RaceGetter interface {
	GetRace(ctx context.Context, id uuid.UUID) (*models.Race, error)
}

// OutboxApp defines what the finish app needs from the outbox
type OutboxApp interface {
	InsertFinishRecordedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertStatusAssignedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error
}

// Clock is the slice of clockwork the finish recorder needs.
type Clock interface {
	Now() time.Time
}

// App handles finish recording business logic
type App struct {
	repo   FinishRepository
	races  RaceGetter
	outbox OutboxApp
	clock  Clock
}

// NewApp creates a new finish App
func NewApp(repo FinishRepository, races RaceGetter, outbox OutboxApp, clock Clock) *App {
	return &App{
		repo:   repo,
		races:  races,
		outbox: outbox,
		clock:  clock,
	}
}

// CreateRecordsForStart initializes one RACING record per starting entry.
func (a *App) CreateRecordsForStart(ctx context.Context, raceID uuid.UUID, entryIDs []uuid.UUID) error {
	if err := a.repo.CreateRecordsForStart(ctx, raceID, entryIDs); err != nil {
		return fmt.Errorf("failed to create finish records for start: %w", err)
	}
	return nil
}

// RecordFinish assigns the next finish position to an entry. The race must
// be racing and the entry must not already hold a position; both violations
// come back as typed rejections. Elapsed time is computed against the
// persisted start instant, never a local countdown.
func (a *App) RecordFinish(ctx context.Context, raceID, entryID uuid.UUID) (*models.FinishRecord, error) {
	race, err := a.races.GetRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	if race.State != models.SequenceStateRacing {
		return nil, ErrRaceNotRacing
	}
	if race.StartedAt == nil {
		return nil, fmt.Errorf("race %s has no start instant", raceID)
	}

	now := a.clock.Now()
	req := RecordFinishRequest{
		RaceID:     raceID,
		EntryID:    entryID,
		FinishedAt: now,
		ElapsedSec: int(now.Sub(*race.StartedAt) / time.Second),
	}

	record, err := a.repo.AssignNextPosition(ctx, req)
	if err != nil {
		return nil, err
	}

	a.emitFinishRecorded(ctx, record)

	log.Info().
		Str("race_id", raceID.String()).
		Str("entry_id", entryID.String()).
		Int("position", *record.Position).
		Int("elapsed_sec", *record.ElapsedSec).
		Msg("finish recorded")

	return record, nil
}

// AssignStatus overwrites an entry's status code. A previously assigned
// position is preserved: a disqualified finisher keeps its crossing-order
// position for protest purposes.
func (a *App) AssignStatus(ctx context.Context, raceID, entryID uuid.UUID, status models.FinishStatus) (*models.FinishRecord, error) {
	if !slices.Contains(models.ValidFinishStatuses, status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	record, err := a.repo.UpsertStatus(ctx, raceID, entryID, status)
	if err != nil {
		return nil, err
	}

	a.emitStatusAssigned(ctx, record)

	log.Info().
		Str("race_id", raceID.String()).
		Str("entry_id", entryID.String()).
		Str("status", string(status)).
		Msg("status assigned")

	return record, nil
}

// GetRecord retrieves one entry's record for a race
func (a *App) GetRecord(ctx context.Context, raceID, entryID uuid.UUID) (*models.FinishRecord, error) {
	return a.repo.GetRecord(ctx, raceID, entryID)
}

// ListRecordsByRace returns the current result rows, finishers first in
// crossing order
func (a *App) ListRecordsByRace(ctx context.Context, raceID uuid.UUID) ([]models.FinishRecord, error) {
	records, err := a.repo.ListRecordsByRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finish records: %w", err)
	}
	return records, nil
}

// CountFinished reports how many entries hold a position for the race
func (a *App) CountFinished(ctx context.Context, raceID uuid.UUID) (int, error) {
	return a.repo.CountFinished(ctx, raceID)
}

func (a *App) emitFinishRecorded(ctx context.Context, record *models.FinishRecord) {
	payload := events.FinishRecordedPayload{
		RaceID:     record.RaceID.String(),
		EntryID:    record.EntryID.String(),
		Position:   *record.Position,
		ElapsedSec: *record.ElapsedSec,
		FinishedAt: *record.FinishedAt,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal FinishRecorded payload")
		return
	}
	if err := a.outbox.InsertFinishRecordedEvent(ctx, record.RaceID, payloadBytes); err != nil {
		log.Error().Err(err).Str("race_id", record.RaceID.String()).Msg("failed to emit FinishRecorded event")
	}
}

func (a *App) emitStatusAssigned(ctx context.Context, record *models.FinishRecord) {
	payload := events.StatusAssignedPayload{
		RaceID:     record.RaceID.String(),
		EntryID:    record.EntryID.String(),
		Status:     string(record.Status),
		Position:   record.Position,
		AssignedAt: a.clock.Now(),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal StatusAssigned payload")
		return
	}
	if err := a.outbox.InsertStatusAssignedEvent(ctx, record.RaceID, payloadBytes); err != nil {
		log.Error().Err(err).Str("race_id", record.RaceID.String()).Msg("failed to emit StatusAssigned event")
	}
}
