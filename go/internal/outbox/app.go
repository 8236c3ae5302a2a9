package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OutboxRepository defines what the app layer needs from the repository
type OutboxRepository interface {
	InsertOutboxRaceStarted(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertOutboxSequencePostponed(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertOutboxGeneralRecall(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertOutboxRaceFinished(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertOutboxFinishRecorded(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertOutboxStatusAssigned(ctx context.Context, raceID uuid.UUID, payload []byte) error
	FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID) error
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error)
}

// App handles outbox business logic
type App struct {
	repo OutboxRepository
}

// NewApp creates a new outbox App
func NewApp(repo OutboxRepository) *App {
	return &App{
		repo: repo,
	}
}

func (a *App) insert(ctx context.Context, raceID uuid.UUID, eventType string, payload []byte, insert func(context.Context, uuid.UUID, []byte) error) error {
	if err := a.validateEventPayload(payload); err != nil {
		return fmt.Errorf("invalid %s payload: %w", eventType, err)
	}
	if err := insert(ctx, raceID, payload); err != nil {
		return fmt.Errorf("failed to insert %s event: %w", eventType, err)
	}

	log.Info().
		Str("race_id", raceID.String()).
		Str("event_type", eventType).
		Msg("outbox event inserted")

	return nil
}

// InsertRaceStartedEvent inserts a RaceStarted event into the outbox
func (a *App) InsertRaceStartedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return a.insert(ctx, raceID, EventTypeRaceStarted, payload, a.repo.InsertOutboxRaceStarted)
}

// InsertSequencePostponedEvent inserts a SequencePostponed event into the outbox
func (a *App) InsertSequencePostponedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return a.insert(ctx, raceID, EventTypeSequencePostponed, payload, a.repo.InsertOutboxSequencePostponed)
}

// InsertGeneralRecallEvent inserts a GeneralRecall event into the outbox
func (a *App) InsertGeneralRecallEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return a.insert(ctx, raceID, EventTypeGeneralRecall, payload, a.repo.InsertOutboxGeneralRecall)
}

// InsertRaceFinishedEvent inserts a RaceFinished event into the outbox
func (a *App) InsertRaceFinishedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return a.insert(ctx, raceID, EventTypeRaceFinished, payload, a.repo.InsertOutboxRaceFinished)
}

// InsertFinishRecordedEvent inserts a FinishRecorded event into the outbox
func (a *App) InsertFinishRecordedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return a.insert(ctx, raceID, EventTypeFinishRecorded, payload, a.repo.InsertOutboxFinishRecorded)
}

// InsertStatusAssignedEvent inserts a StatusAssigned event into the outbox
func (a *App) InsertStatusAssignedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return a.insert(ctx, raceID, EventTypeStatusAssigned, payload, a.repo.InsertOutboxStatusAssigned)
}

// FetchUnsentOutbox claims a batch of unsent events for publishing
func (a *App) FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	return a.repo.FetchUnsentOutbox(ctx, limit)
}

// MarkOutboxSent marks one event as published
func (a *App) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	return a.repo.MarkOutboxSent(ctx, id)
}

// FetchOutboxByID fetches one unsent event, for the LISTEN/NOTIFY fast path
func (a *App) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error) {
	return a.repo.FetchOutboxByID(ctx, id)
}

func (a *App) validateEventPayload(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is empty")
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}
	return nil
}
