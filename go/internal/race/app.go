package race

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/signal"
)

// RaceRepository defines what the race app layer needs from the repository
type RaceRepository interface {
	CreateRace(ctx context.Context, req CreateRaceRequest) (*models.Race, error)
	GetRace(ctx context.Context, id uuid.UUID) (*models.Race, error)
	GetRaceByNumber(ctx context.Context, regattaID uuid.UUID, raceNumber int) (*models.Race, error)
	ListRacesByRegatta(ctx context.Context, regattaID uuid.UUID) ([]models.Race, error)
	BeginCountdown(ctx context.Context, id uuid.UUID, sequenceType models.SequenceType, endsAt time.Time) error
	MarkRacing(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	AbortCountdown(ctx context.Context, id uuid.UUID) error
	MarkFinished(ctx context.Context, id uuid.UUID, finishedAt time.Time) error
}

// App handles race lifecycle business logic
type App struct {
	repo RaceRepository
}

// NewApp creates a new race App
func NewApp(repo RaceRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateRace registers a new race number for a regatta
func (a *App) CreateRace(ctx context.Context, req CreateRaceRequest) (*models.Race, error) {
	if req.RaceNumber <= 0 {
		return nil, fmt.Errorf("race number must be positive, got %d", req.RaceNumber)
	}
	if _, err := signal.ConfigFor(req.SequenceType); err != nil {
		return nil, err
	}

	race, err := a.repo.CreateRace(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create race: %w", err)
	}

	log.Printf("Created race %d for regatta %s", race.RaceNumber, race.RegattaID)
	return race, nil
}

// GetRace retrieves a race by ID
func (a *App) GetRace(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	race, err := a.repo.GetRace(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	return race, nil
}

// GetRaceByNumber retrieves a race by its number within a regatta
func (a *App) GetRaceByNumber(ctx context.Context, regattaID uuid.UUID, raceNumber int) (*models.Race, error) {
	race, err := a.repo.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to get race by number: %w", err)
	}
	return race, nil
}

// ListRacesByRegatta lists all races of a regatta in race-number order
func (a *App) ListRacesByRegatta(ctx context.Context, regattaID uuid.UUID) ([]models.Race, error) {
	races, err := a.repo.ListRacesByRegatta(ctx, regattaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	return races, nil
}

// BeginCountdown moves an idle race into countdown with the chosen sequence
// type and the wall-clock instant at which the start signal is due
func (a *App) BeginCountdown(ctx context.Context, id uuid.UUID, sequenceType models.SequenceType, endsAt time.Time) error {
	if _, err := signal.ConfigFor(sequenceType); err != nil {
		return err
	}
	if err := a.repo.BeginCountdown(ctx, id, sequenceType, endsAt); err != nil {
		return err
	}
	log.Printf("Race %s entered countdown (%s)", id, sequenceType)
	return nil
}

// MarkRacing records the authoritative start instant for a countdown race
func (a *App) MarkRacing(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	return a.repo.MarkRacing(ctx, id, startedAt)
}

// AbortCountdown returns a countdown race to idle
func (a *App) AbortCountdown(ctx context.Context, id uuid.UUID) error {
	return a.repo.AbortCountdown(ctx, id)
}

// MarkFinished freezes a racing race
func (a *App) MarkFinished(ctx context.Context, id uuid.UUID, finishedAt time.Time) error {
	return a.repo.MarkFinished(ctx, id, finishedAt)
}
