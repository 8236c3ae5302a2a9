package flaglog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/rs/zerolog/log"
)

// FlagRepository defines what the flag log app needs from the repository
type FlagRepository interface {
	AppendFlag(ctx context.Context, flag models.FlagEvent) error
	ListFlagsByRace(ctx context.Context, regattaID uuid.UUID, raceNumber int) ([]models.FlagEvent, error)
}

// App is the append-only record of postponement and general-recall actions.
type App struct {
	repo FlagRepository
}

// NewApp creates a new flag log App
func NewApp(repo FlagRepository) *App {
	return &App{
		repo: repo,
	}
}

// AppendFlag records one official action against a race number
func (a *App) AppendFlag(ctx context.Context, regattaID uuid.UUID, raceNumber int, flagType models.FlagType, official string, notedAt time.Time) error {
	if flagType != models.FlagTypePostponement && flagType != models.FlagTypeGeneralRecall {
		return fmt.Errorf("unknown flag type: %s", flagType)
	}

	flag := models.FlagEvent{
		ID:         uuid.New(),
		RegattaID:  regattaID,
		RaceNumber: raceNumber,
		FlagType:   flagType,
		Official:   official,
		NotedAt:    notedAt,
	}
	if err := a.repo.AppendFlag(ctx, flag); err != nil {
		return fmt.Errorf("failed to append flag: %w", err)
	}

	log.Info().
		Str("regatta_id", regattaID.String()).
		Int("race_number", raceNumber).
		Str("flag_type", string(flagType)).
		Str("official", official).
		Msg("flag recorded")

	return nil
}

// ListFlagsByRace returns the flag history for one race number
func (a *App) ListFlagsByRace(ctx context.Context, regattaID uuid.UUID, raceNumber int) ([]models.FlagEvent, error) {
	return a.repo.ListFlagsByRace(ctx, regattaID, raceNumber)
}
