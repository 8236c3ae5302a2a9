package console

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/race"
	"github.com/mcdev12/regatta/go/internal/sequence"
	"github.com/rs/zerolog/log"
)

// RaceApp defines what the console needs from the race app
type RaceApp interface {
	CreateRace(ctx context.Context, req race.CreateRaceRequest) (*models.Race, error)
	GetRaceByNumber(ctx context.Context, regattaID uuid.UUID, raceNumber int) (*models.Race, error)
	ListRacesByRegatta(ctx context.Context, regattaID uuid.UUID) ([]models.Race, error)
}

// SequenceEngine defines what the console needs from the sequence engine
type SequenceEngine interface {
	StartSequence(ctx context.Context, raceID uuid.UUID, sequenceType models.SequenceType) (*sequence.Run, error)
	Resume(ctx context.Context, r *models.Race) (*sequence.Run, error)
	Postpone(ctx context.Context, raceID uuid.UUID, official string) error
	GeneralRecall(ctx context.Context, raceID uuid.UUID, official string) error
	Stop(ctx context.Context, raceID uuid.UUID) error
	Snapshot(raceID uuid.UUID) (sequence.Snapshot, bool)
}

// FinishApp defines what the console needs from the finish recorder
type FinishApp interface {
	RecordFinish(ctx context.Context, raceID, entryID uuid.UUID) (*models.FinishRecord, error)
	AssignStatus(ctx context.Context, raceID, entryID uuid.UUID, status models.FinishStatus) (*models.FinishRecord, error)
	ListRecordsByRace(ctx context.Context, raceID uuid.UUID) ([]models.FinishRecord, error)
}

// RosterApp defines what the console needs from the entry roster
type RosterApp interface {
	GetEntryBySailNumber(ctx context.Context, regattaID uuid.UUID, sailNumber string) (*models.Entry, error)
	ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error)
}

// FlagLogApp defines what the console needs from the flag log
type FlagLogApp interface {
	ListFlagsByRace(ctx context.Context, regattaID uuid.UUID, raceNumber int) ([]models.FlagEvent, error)
}

// App is the race-officer facing facade. Every command is addressed by
// (regatta, race number) and serialized per race number, so two officials
// poking the same race never interleave, while different race numbers stay
// fully independent.
type App struct {
	races    RaceApp
	engine   SequenceEngine
	finishes FinishApp
	roster   RosterApp
	flags    FlagLogApp

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewApp creates a new console App
func NewApp(races RaceApp, engine SequenceEngine, finishes FinishApp, roster RosterApp, flags FlagLogApp) *App {
	return &App{
		races:    races,
		engine:   engine,
		finishes: finishes,
		roster:   roster,
		flags:    flags,
		locks:    make(map[string]*sync.Mutex),
	}
}

// raceLock returns the command mutex for one race number.
func (a *App) raceLock(regattaID uuid.UUID, raceNumber int) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", regattaID, raceNumber)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locks[key] == nil {
		a.locks[key] = &sync.Mutex{}
	}
	return a.locks[key]
}

// CreateRace registers a race number for a regatta
func (a *App) CreateRace(ctx context.Context, regattaID uuid.UUID, raceNumber int, sequenceType models.SequenceType) (*models.Race, error) {
	return a.races.CreateRace(ctx, race.CreateRaceRequest{
		ID:           uuid.New(),
		RegattaID:    regattaID,
		RaceNumber:   raceNumber,
		SequenceType: sequenceType,
	})
}

// StartSequence begins the countdown for a race number
func (a *App) StartSequence(ctx context.Context, regattaID uuid.UUID, raceNumber int, sequenceType models.SequenceType) (*models.Race, error) {
	lock := a.raceLock(regattaID, raceNumber)
	lock.Lock()
	defer lock.Unlock()

	r, err := a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		return nil, err
	}

	if _, err := a.engine.StartSequence(ctx, r.ID, sequenceType); err != nil {
		return nil, err
	}
	return a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
}

// Postpone aborts the countdown for a race number with a postponement flag
func (a *App) Postpone(ctx context.Context, regattaID uuid.UUID, raceNumber int, official string) error {
	lock := a.raceLock(regattaID, raceNumber)
	lock.Lock()
	defer lock.Unlock()

	r, err := a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		return err
	}
	return a.translateRunError(a.engine.Postpone(ctx, r.ID, official), raceNumber)
}

// GeneralRecall aborts the countdown for a race number with a general-recall flag
func (a *App) GeneralRecall(ctx context.Context, regattaID uuid.UUID, raceNumber int, official string) error {
	lock := a.raceLock(regattaID, raceNumber)
	lock.Lock()
	defer lock.Unlock()

	r, err := a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		return err
	}
	return a.translateRunError(a.engine.GeneralRecall(ctx, r.ID, official), raceNumber)
}

// StopRace ends a racing race, freezing the finish list
func (a *App) StopRace(ctx context.Context, regattaID uuid.UUID, raceNumber int) error {
	lock := a.raceLock(regattaID, raceNumber)
	lock.Lock()
	defer lock.Unlock()

	r, err := a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		return err
	}
	return a.translateRunError(a.engine.Stop(ctx, r.ID), raceNumber)
}

// RecordFinish records a finish-line crossing for a sail number. The next
// free position is assigned by the store, so simultaneous submissions from
// several consoles still produce a gapless order.
func (a *App) RecordFinish(ctx context.Context, regattaID uuid.UUID, raceNumber int, sailNumber string) (*models.FinishRecord, error) {
	r, err := a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		return nil, err
	}
	entry, err := a.roster.GetEntryBySailNumber(ctx, regattaID, sailNumber)
	if err != nil {
		return nil, err
	}

	record, err := a.finishes.RecordFinish(ctx, r.ID, entry.ID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("race_id", r.ID.String()).
		Int("race_number", raceNumber).
		Str("sail_number", sailNumber).
		Int("position", *record.Position).
		Msg("finish recorded")

	return record, nil
}

// AssignStatus assigns a scoring status to a sail number
func (a *App) AssignStatus(ctx context.Context, regattaID uuid.UUID, raceNumber int, sailNumber string, status models.FinishStatus) (*models.FinishRecord, error) {
	r, err := a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		return nil, err
	}
	entry, err := a.roster.GetEntryBySailNumber(ctx, regattaID, sailNumber)
	if err != nil {
		return nil, err
	}

	record, err := a.finishes.AssignStatus(ctx, r.ID, entry.ID, status)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("race_id", r.ID.String()).
		Int("race_number", raceNumber).
		Str("sail_number", sailNumber).
		Str("status", string(status)).
		Msg("status assigned")

	return record, nil
}

// RaceState returns the console view of a race number. Timer fields come
// from the live run when one exists; the finish list always comes from the
// store.
func (a *App) RaceState(ctx context.Context, regattaID uuid.UUID, raceNumber int) (*RaceState, error) {
	r, err := a.races.GetRaceByNumber(ctx, regattaID, raceNumber)
	if err != nil {
		return nil, err
	}

	state := &RaceState{
		RaceID:       r.ID.String(),
		RegattaID:    r.RegattaID.String(),
		RaceNumber:   r.RaceNumber,
		State:        string(r.State),
		SequenceType: string(r.SequenceType),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		FinishOrder:  []FinishRow{},
		Flags:        []models.FlagEvent{},
	}

	if snap, ok := a.engine.Snapshot(r.ID); ok {
		state.State = string(snap.State)
		switch snap.State {
		case models.SequenceStateCountdown:
			remaining := snap.RemainingSec
			state.RemainingSec = &remaining
		case models.SequenceStateRacing:
			elapsed := snap.ElapsedSec
			state.ElapsedSec = &elapsed
		}
	}

	records, err := a.finishes.ListRecordsByRace(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finish records: %w", err)
	}

	byID := make(map[uuid.UUID]models.Entry)
	if entries, err := a.roster.ListEligibleEntries(ctx, regattaID); err == nil {
		for _, entry := range entries {
			byID[entry.ID] = entry
		}
	}

	for _, record := range records {
		row := FinishRow{
			EntryID:    record.EntryID.String(),
			Position:   record.Position,
			ElapsedSec: record.ElapsedSec,
			FinishedAt: record.FinishedAt,
			Status:     string(record.Status),
		}
		if entry, ok := byID[record.EntryID]; ok {
			row.SailNumber = entry.SailNumber
			row.BoatName = entry.BoatName
		}
		state.FinishOrder = append(state.FinishOrder, row)
	}

	if flags, err := a.flags.ListFlagsByRace(ctx, regattaID, raceNumber); err == nil {
		state.Flags = flags
	}

	return state, nil
}

// Rehydrate reloads live runs for every countdown or racing race of a
// regatta after a restart. Countdown races fire any signal offsets the
// downtime skipped.
func (a *App) Rehydrate(ctx context.Context, regattaID uuid.UUID) (int, error) {
	races, err := a.races.ListRacesByRegatta(ctx, regattaID)
	if err != nil {
		return 0, fmt.Errorf("failed to list races for rehydration: %w", err)
	}

	resumed := 0
	for i := range races {
		r := &races[i]
		if r.State != models.SequenceStateCountdown && r.State != models.SequenceStateRacing {
			continue
		}
		if _, err := a.engine.Resume(ctx, r); err != nil {
			log.Error().Err(err).
				Str("race_id", r.ID.String()).
				Int("race_number", r.RaceNumber).
				Msg("failed to resume run")
			continue
		}
		resumed++
	}

	if resumed > 0 {
		log.Info().
			Str("regatta_id", regattaID.String()).
			Int("resumed", resumed).
			Msg("rehydrated live runs")
	}
	return resumed, nil
}

// translateRunError maps the engine's not-found (no loaded run) onto an
// invalid transition: the race row exists, it just has nothing to abort or
// stop.
func (a *App) translateRunError(err error, raceNumber int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, race.ErrRaceNotFound) {
		return fmt.Errorf("race %d has no active run: %w", raceNumber, race.ErrInvalidTransition)
	}
	return err
}
