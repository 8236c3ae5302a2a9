package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/sequence"
)

// RaceReader defines what the state provider needs from the race app
type RaceReader interface {
	GetRace(ctx context.Context, id uuid.UUID) (*models.Race, error)
	ListRacesByRegatta(ctx context.Context, regattaID uuid.UUID) ([]models.Race, error)
}

// FinishReader defines what the state provider needs from the finish app
type FinishReader interface {
	ListRecordsByRace(ctx context.Context, raceID uuid.UUID) ([]models.FinishRecord, error)
}

// EntryReader defines what the state provider needs from the roster app
type EntryReader interface {
	ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error)
}

// RunSource exposes live countdown snapshots from the sequence engine
type RunSource interface {
	Snapshot(raceID uuid.UUID) (sequence.Snapshot, bool)
}

// RaceStateProvider implements StateProvider on top of the race, finish and
// roster apps. Timer fields come from the live engine run when one exists;
// finish ordering always comes from the store.
type RaceStateProvider struct {
	races    RaceReader
	finishes FinishReader
	entries  EntryReader
	runs     RunSource
}

// NewRaceStateProvider creates a new race state provider
func NewRaceStateProvider(races RaceReader, finishes FinishReader, entries EntryReader, runs RunSource) *RaceStateProvider {
	return &RaceStateProvider{
		races:    races,
		finishes: finishes,
		entries:  entries,
		runs:     runs,
	}
}

// GetRaceState retrieves the complete state of a race
func (p *RaceStateProvider) GetRaceState(ctx context.Context, raceID uuid.UUID) (*RaceStateResponse, error) {
	race, err := p.races.GetRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}

	response := &RaceStateResponse{
		RaceID:       race.ID.String(),
		RegattaID:    race.RegattaID.String(),
		RaceNumber:   race.RaceNumber,
		State:        string(race.State),
		SequenceType: string(race.SequenceType),
		StartedAt:    race.StartedAt,
		FinishOrder:  []FinishInfo{},
		Metadata: map[string]interface{}{
			"created_at": race.CreatedAt,
			"updated_at": race.UpdatedAt,
		},
	}

	// Prefer the live run for timer fields; fall back to the persisted
	// instants when no run is loaded (for example right after a restart).
	if snap, ok := p.runs.Snapshot(raceID); ok {
		response.State = string(snap.State)
		switch snap.State {
		case models.SequenceStateCountdown:
			remaining := snap.RemainingSec
			response.RemainingSec = &remaining
		case models.SequenceStateRacing:
			elapsed := snap.ElapsedSec
			response.ElapsedSec = &elapsed
		}
	} else {
		switch race.State {
		case models.SequenceStateCountdown:
			if race.CountdownEndsAt != nil {
				remaining := int(time.Until(*race.CountdownEndsAt).Seconds())
				if remaining < 0 {
					remaining = 0
				}
				response.RemainingSec = &remaining
			}
		case models.SequenceStateRacing:
			if race.StartedAt != nil {
				elapsed := int(time.Since(*race.StartedAt).Seconds())
				response.ElapsedSec = &elapsed
			}
		}
	}

	records, err := p.finishes.ListRecordsByRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finish records: %w", err)
	}

	// Map entry IDs to sail numbers for display
	sailNumbers := make(map[uuid.UUID]models.Entry)
	entries, err := p.entries.ListEligibleEntries(ctx, race.RegattaID)
	if err == nil {
		for _, entry := range entries {
			sailNumbers[entry.ID] = entry
		}
	}

	finished := 0
	for _, record := range records {
		info := FinishInfo{
			EntryID:    record.EntryID.String(),
			Position:   record.Position,
			ElapsedSec: record.ElapsedSec,
			FinishedAt: record.FinishedAt,
			Status:     string(record.Status),
		}
		if entry, ok := sailNumbers[record.EntryID]; ok {
			info.SailNumber = entry.SailNumber
			info.BoatName = entry.BoatName
		}
		response.FinishOrder = append(response.FinishOrder, info)

		if record.Status == models.FinishStatusFinished {
			finished++
		}
	}
	response.FinishedCount = finished
	response.TotalEntries = len(records)

	return response, nil
}

// GetActiveRaces retrieves all races of a regatta that are counting down or racing
func (p *RaceStateProvider) GetActiveRaces(ctx context.Context, regattaID uuid.UUID) ([]RaceSummary, error) {
	races, err := p.races.ListRacesByRegatta(ctx, regattaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}

	summaries := []RaceSummary{}
	for _, race := range races {
		if race.State != models.SequenceStateCountdown && race.State != models.SequenceStateRacing {
			continue
		}
		summaries = append(summaries, RaceSummary{
			RaceID:       race.ID.String(),
			RegattaID:    race.RegattaID.String(),
			RaceNumber:   race.RaceNumber,
			State:        string(race.State),
			SequenceType: string(race.SequenceType),
			StartedAt:    race.StartedAt,
		})
	}
	return summaries, nil
}
