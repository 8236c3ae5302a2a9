package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
)

// RosterRepository defines what the roster app layer needs from the repository
type RosterRepository interface {
	UpsertEntry(ctx context.Context, entry models.Entry) (*models.Entry, error)
	GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	GetEntryBySailNumber(ctx context.Context, regattaID uuid.UUID, sailNumber string) (*models.Entry, error)
	ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error)
}

// App provides the eligible-entry roster for race starts. Registration is
// owned by an external system; this is only the engine's view of it.
type App struct {
	repo RosterRepository
}

// NewApp creates a new roster App
func NewApp(repo RosterRepository) *App {
	return &App{
		repo: repo,
	}
}

// UpsertEntry creates or refreshes one entry from the registration feed
func (a *App) UpsertEntry(ctx context.Context, entry models.Entry) (*models.Entry, error) {
	if entry.SailNumber == "" {
		return nil, fmt.Errorf("sail number is required")
	}
	out, err := a.repo.UpsertEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return out, nil
}

// GetEntry retrieves an entry by ID
func (a *App) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	return a.repo.GetEntry(ctx, id)
}

// GetEntryBySailNumber retrieves an entry by sail number within a regatta.
// Finish-boat consoles key everything off the sail number.
func (a *App) GetEntryBySailNumber(ctx context.Context, regattaID uuid.UUID, sailNumber string) (*models.Entry, error) {
	if sailNumber == "" {
		return nil, fmt.Errorf("sail number is required")
	}
	return a.repo.GetEntryBySailNumber(ctx, regattaID, sailNumber)
}

// ListEligibleEntries returns the entries eligible to start, captured at
// sequence-start time
func (a *App) ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error) {
	entries, err := a.repo.ListEligibleEntries(ctx, regattaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible entries: %w", err)
	}
	return entries, nil
}
