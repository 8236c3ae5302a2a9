package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/regatta/go/internal/events"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/race"
	"github.com/mcdev12/regatta/go/internal/signal"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// RaceApp defines what the engine needs from the race app
type RaceApp interface {
	GetRace(ctx context.Context, id uuid.UUID) (*models.Race, error)
	BeginCountdown(ctx context.Context, id uuid.UUID, sequenceType models.SequenceType, endsAt time.Time) error
	MarkRacing(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	AbortCountdown(ctx context.Context, id uuid.UUID) error
	MarkFinished(ctx context.Context, id uuid.UUID, finishedAt time.Time) error
}

// FinishApp defines what the engine needs from the finish recorder
type FinishApp interface {
	CreateRecordsForStart(ctx context.Context, raceID uuid.UUID, entryIDs []uuid.UUID) error
	CountFinished(ctx context.Context, raceID uuid.UUID) (int, error)
}

// RosterApp defines what the engine needs from the entry roster provider
type RosterApp interface {
	ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error)
}

// FlagLog defines what the engine needs from the flag/event log
type FlagLog interface {
	AppendFlag(ctx context.Context, regattaID uuid.UUID, raceNumber int, flagType models.FlagType, official string, notedAt time.Time) error
}

// OutboxApp defines what the engine needs from the outbox
type OutboxApp interface {
	InsertRaceStartedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertSequencePostponedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertGeneralRecallEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error
	InsertRaceFinishedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error
}

// Engine owns one tick loop per active race. Each race number runs fully
// independently; nothing is shared between runs except the engine's own
// bookkeeping map.
type Engine struct {
	races      RaceApp
	finishes   FinishApp
	roster     RosterApp
	flags      FlagLog
	outbox     OutboxApp
	dispatcher *signal.Dispatcher
	clock      Clock

	mu   sync.Mutex
	runs map[uuid.UUID]*Run
}

// NewEngine creates a sequence engine with a real clock.
func NewEngine(races RaceApp, finishes FinishApp, roster RosterApp, flags FlagLog, outbox OutboxApp, dispatcher *signal.Dispatcher) *Engine {
	return NewEngineWithClock(races, finishes, roster, flags, outbox, dispatcher, clockwork.NewRealClock())
}

// NewEngineWithClock creates a sequence engine with an injected clock.
func NewEngineWithClock(races RaceApp, finishes FinishApp, roster RosterApp, flags FlagLog, outbox OutboxApp, dispatcher *signal.Dispatcher, clock Clock) *Engine {
	return &Engine{
		races:      races,
		finishes:   finishes,
		roster:     roster,
		flags:      flags,
		outbox:     outbox,
		dispatcher: dispatcher,
		clock:      clock,
		runs:       make(map[uuid.UUID]*Run),
	}
}

// StartSequence begins a countdown for an idle race. The warning signal for
// the full duration fires immediately; the per-second tick loop carries the
// rest of the schedule.
func (e *Engine) StartSequence(ctx context.Context, raceID uuid.UUID, sequenceType models.SequenceType) (*Run, error) {
	cfg, err := signal.ConfigFor(sequenceType)
	if err != nil {
		return nil, err
	}

	r, err := e.races.GetRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}

	e.mu.Lock()
	if existing, ok := e.runs[raceID]; ok {
		existing.mu.Lock()
		active := existing.state == models.SequenceStateCountdown || existing.state == models.SequenceStateRacing
		existing.mu.Unlock()
		if active {
			e.mu.Unlock()
			return nil, fmt.Errorf("sequence already active for race %d: %w", r.RaceNumber, race.ErrInvalidTransition)
		}
	}
	e.mu.Unlock()

	now := e.clock.Now()
	deadline := now.Add(time.Duration(cfg.DurationSeconds) * time.Second)

	if err := e.races.BeginCountdown(ctx, raceID, sequenceType, deadline); err != nil {
		return nil, err
	}

	run := &Run{
		raceID:       raceID,
		regattaID:    r.RegattaID,
		raceNumber:   r.RaceNumber,
		cfg:          cfg,
		schedule:     signal.NewSchedule(cfg),
		state:        models.SequenceStateCountdown,
		deadline:     deadline,
		remainingSec: cfg.DurationSeconds,
		done:         make(chan struct{}),
	}

	e.mu.Lock()
	e.runs[raceID] = run
	e.mu.Unlock()

	// The run outlives the request that started it: the console's POST
	// returns immediately while the countdown keeps ticking. Only an
	// abort, Stop or Shutdown ends the loop.
	runCtx := context.WithoutCancel(ctx)

	// Warning signal at full duration, before the first tick.
	e.tick(runCtx, run)

	e.startLoop(runCtx, run)

	log.Info().
		Str("race_id", raceID.String()).
		Int("race_number", r.RaceNumber).
		Str("sequence_type", string(sequenceType)).
		Int("duration_sec", cfg.DurationSeconds).
		Msg("countdown started")

	return run, nil
}

// Resume rebuilds a run from persisted state after a console restart. A
// countdown resumes against its persisted deadline, firing any signal
// offsets the downtime skipped; a racing run resumes its elapsed loop from
// the persisted start instant. Finish ordering lives in the store and needs
// no recovery.
func (e *Engine) Resume(ctx context.Context, r *models.Race) (*Run, error) {
	switch r.State {
	case models.SequenceStateCountdown:
		if r.CountdownEndsAt == nil {
			return nil, fmt.Errorf("countdown race %s has no persisted deadline", r.ID)
		}
		cfg, err := signal.ConfigFor(r.SequenceType)
		if err != nil {
			return nil, err
		}
		run := &Run{
			raceID:       r.ID,
			regattaID:    r.RegattaID,
			raceNumber:   r.RaceNumber,
			cfg:          cfg,
			schedule:     signal.NewSchedule(cfg),
			state:        models.SequenceStateCountdown,
			deadline:     *r.CountdownEndsAt,
			remainingSec: cfg.DurationSeconds,
			done:         make(chan struct{}),
		}
		e.mu.Lock()
		e.runs[r.ID] = run
		e.mu.Unlock()

		// Drain everything the downtime skipped before normal ticking.
		// Detached for the same reason as StartSequence: the resumed run
		// must not die with the startup (or request) context.
		runCtx := context.WithoutCancel(ctx)
		e.tick(runCtx, run)
		e.startLoop(runCtx, run)

		log.Info().Str("race_id", r.ID.String()).Int("race_number", r.RaceNumber).Msg("countdown resumed")
		return run, nil

	case models.SequenceStateRacing:
		if r.StartedAt == nil {
			return nil, fmt.Errorf("racing race %s has no start instant", r.ID)
		}
		cfg, err := signal.ConfigFor(r.SequenceType)
		if err != nil {
			return nil, err
		}
		run := &Run{
			raceID:     r.ID,
			regattaID:  r.RegattaID,
			raceNumber: r.RaceNumber,
			cfg:        cfg,
			schedule:   signal.NewSchedule(cfg),
			state:      models.SequenceStateRacing,
			startedAt:  *r.StartedAt,
			elapsedSec: int(e.clock.Now().Sub(*r.StartedAt) / time.Second),
			done:       make(chan struct{}),
		}
		run.schedule.Due(0) // start already happened; nothing left to fire
		e.mu.Lock()
		e.runs[r.ID] = run
		e.mu.Unlock()

		e.startLoop(context.WithoutCancel(ctx), run)

		log.Info().Str("race_id", r.ID.String()).Int("race_number", r.RaceNumber).Msg("racing run resumed")
		return run, nil

	default:
		return nil, fmt.Errorf("race %s is %s, nothing to resume: %w", r.ID, r.State, race.ErrInvalidTransition)
	}
}

// Postpone aborts a countdown and records a postponement flag.
func (e *Engine) Postpone(ctx context.Context, raceID uuid.UUID, official string) error {
	return e.abort(ctx, raceID, official, models.FlagTypePostponement)
}

// GeneralRecall aborts a countdown and records a general-recall flag.
func (e *Engine) GeneralRecall(ctx context.Context, raceID uuid.UUID, official string) error {
	return e.abort(ctx, raceID, official, models.FlagTypeGeneralRecall)
}

// Stop ends a racing race, freezing elapsed time and the finish list.
func (e *Engine) Stop(ctx context.Context, raceID uuid.UUID) error {
	run, ok := e.run(raceID)
	if !ok {
		return race.ErrRaceNotFound
	}

	run.mu.Lock()
	if run.state != models.SequenceStateRacing {
		run.mu.Unlock()
		return fmt.Errorf("race %d is %s: %w", run.raceNumber, run.state, race.ErrInvalidTransition)
	}
	now := e.clock.Now()
	// Persist before flipping in-memory state: a failed write leaves the
	// run racing so the official can retry the stop.
	if err := e.races.MarkFinished(ctx, raceID, now); err != nil {
		run.mu.Unlock()
		return fmt.Errorf("failed to persist race finish: %w", err)
	}
	run.state = models.SequenceStateFinished
	run.elapsedSec = int(now.Sub(run.startedAt) / time.Second)
	if run.cancel != nil {
		run.cancel()
	}
	run.mu.Unlock()

	e.emitRaceFinished(ctx, run, now)

	log.Info().
		Str("race_id", raceID.String()).
		Int("race_number", run.raceNumber).
		Int("elapsed_sec", run.elapsedSec).
		Msg("race stopped")

	return nil
}

// Snapshot returns current state/remaining/elapsed for a race's run.
func (e *Engine) Snapshot(raceID uuid.UUID) (Snapshot, bool) {
	run, ok := e.run(raceID)
	if !ok {
		return Snapshot{}, false
	}
	return run.snapshot(), true
}

func (e *Engine) run(raceID uuid.UUID) (*Run, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	run, ok := e.runs[raceID]
	return run, ok
}

// Shutdown cancels every live tick loop. Persisted state is left untouched
// so Resume can rehydrate countdowns and racing runs on the next start.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	runs := make([]*Run, 0, len(e.runs))
	for _, run := range e.runs {
		runs = append(runs, run)
	}
	e.mu.Unlock()

	for _, run := range runs {
		run.mu.Lock()
		if run.cancel != nil {
			run.cancel()
		}
		run.mu.Unlock()
	}
}

// abort cancels a countdown synchronously. The run mutex serializes the
// abort against any in-flight tick: once the state flips to idle, a tick
// that was waiting on the lock observes it and dispatches nothing.
func (e *Engine) abort(ctx context.Context, raceID uuid.UUID, official string, flagType models.FlagType) error {
	run, ok := e.run(raceID)
	if !ok {
		return race.ErrRaceNotFound
	}

	run.mu.Lock()
	if run.state != models.SequenceStateCountdown {
		run.mu.Unlock()
		return fmt.Errorf("race %d is %s: %w", run.raceNumber, run.state, race.ErrInvalidTransition)
	}
	// Persist before flipping in-memory state: a failed write leaves the
	// countdown live so the official can retry the abort.
	if err := e.races.AbortCountdown(ctx, raceID); err != nil {
		run.mu.Unlock()
		return fmt.Errorf("failed to persist countdown abort: %w", err)
	}
	run.state = models.SequenceStateIdle
	if run.cancel != nil {
		run.cancel()
	}
	run.mu.Unlock()

	now := e.clock.Now()
	if err := e.flags.AppendFlag(ctx, run.regattaID, run.raceNumber, flagType, official, now); err != nil {
		log.Error().Err(err).Str("race_id", raceID.String()).Msg("failed to append abort flag")
	}

	e.emitAbort(ctx, run, official, flagType, now)

	log.Info().
		Str("race_id", raceID.String()).
		Int("race_number", run.raceNumber).
		Str("flag_type", string(flagType)).
		Str("official", official).
		Msg("countdown aborted")

	return nil
}

func (e *Engine) startLoop(ctx context.Context, run *Run) {
	loopCtx, cancel := context.WithCancel(ctx)

	run.mu.Lock()
	run.cancel = cancel
	run.mu.Unlock()

	go e.loop(loopCtx, run)
}

// loop drives one run at 1-second resolution. Each tick completes in full
// before the next is processed; there is no cooperative suspension inside a
// tick.
func (e *Engine) loop(ctx context.Context, run *Run) {
	defer close(run.done)

	ticker := e.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if done := e.tick(ctx, run); done {
				return
			}
		}
	}
}

// tick advances one run by one observation of the clock. Remaining and
// elapsed are always recomputed from the persisted instants, never from the
// previous tick, so a stalled loop self-corrects and fires every skipped
// signal in order.
func (e *Engine) tick(ctx context.Context, run *Run) bool {
	run.mu.Lock()
	defer run.mu.Unlock()

	switch run.state {
	case models.SequenceStateCountdown:
		now := e.clock.Now()
		remaining := int(run.deadline.Sub(now) / time.Second)
		if run.deadline.After(now) && run.deadline.Sub(now)%time.Second != 0 {
			remaining++ // round up mid-second observations
		}
		if remaining < 0 {
			remaining = 0
		}
		run.remainingSec = remaining

		for _, ev := range run.schedule.Due(remaining) {
			e.dispatcher.Dispatch(ctx, run.raceID, ev)
			if ev.Name == signal.SignalStart {
				return e.startRaceLocked(ctx, run)
			}
		}
		return false

	case models.SequenceStateRacing:
		run.elapsedSec = int(e.clock.Now().Sub(run.startedAt) / time.Second)
		return false

	default:
		// Aborted or finished while this tick was queued; do nothing.
		return true
	}
}

// startRaceLocked performs the countdown-to-racing transition. Caller holds
// run.mu. The transition is irreversible for this run: the start instant is
// captured once and the racing records are created exactly once.
func (e *Engine) startRaceLocked(ctx context.Context, run *Run) bool {
	now := e.clock.Now()

	if err := e.races.MarkRacing(ctx, run.raceID, now); err != nil {
		// Lost against a concurrent abort; the store guard wins.
		log.Error().Err(err).Str("race_id", run.raceID.String()).Msg("failed to persist race start")
		run.state = models.SequenceStateIdle
		return true
	}

	run.state = models.SequenceStateRacing
	run.startedAt = now
	run.remainingSec = 0
	run.elapsedSec = 0

	entries, err := e.roster.ListEligibleEntries(ctx, run.regattaID)
	if err != nil {
		log.Error().Err(err).Str("race_id", run.raceID.String()).Msg("failed to list eligible entries at start")
		entries = nil
	}
	entryIDs := make([]uuid.UUID, len(entries))
	for i, entry := range entries {
		entryIDs[i] = entry.ID
	}
	if err := e.finishes.CreateRecordsForStart(ctx, run.raceID, entryIDs); err != nil {
		log.Error().Err(err).Str("race_id", run.raceID.String()).Msg("failed to create finish records at start")
	}

	e.emitRaceStarted(ctx, run, now, len(entryIDs))

	log.Info().
		Str("race_id", run.raceID.String()).
		Int("race_number", run.raceNumber).
		Time("started_at", now).
		Int("starters", len(entryIDs)).
		Msg("race started")

	return false
}

func (e *Engine) emitRaceStarted(ctx context.Context, run *Run, startedAt time.Time, starters int) {
	payload := events.RaceStartedPayload{
		RaceID:       run.raceID.String(),
		RegattaID:    run.regattaID.String(),
		RaceNumber:   run.raceNumber,
		SequenceType: string(run.cfg.Type),
		StartedAt:    startedAt,
		Starters:     starters,
	}
	e.insertOutbox(ctx, run.raceID, payload, e.outbox.InsertRaceStartedEvent, "RaceStarted")
}

func (e *Engine) emitAbort(ctx context.Context, run *Run, official string, flagType models.FlagType, at time.Time) {
	if flagType == models.FlagTypeGeneralRecall {
		payload := events.GeneralRecallPayload{
			RaceID:     run.raceID.String(),
			RaceNumber: run.raceNumber,
			Official:   official,
			RecalledAt: at,
		}
		e.insertOutbox(ctx, run.raceID, payload, e.outbox.InsertGeneralRecallEvent, "GeneralRecall")
		return
	}
	payload := events.SequencePostponedPayload{
		RaceID:      run.raceID.String(),
		RaceNumber:  run.raceNumber,
		Official:    official,
		PostponedAt: at,
	}
	e.insertOutbox(ctx, run.raceID, payload, e.outbox.InsertSequencePostponedEvent, "SequencePostponed")
}

func (e *Engine) emitRaceFinished(ctx context.Context, run *Run, at time.Time) {
	finishers, err := e.finishes.CountFinished(ctx, run.raceID)
	if err != nil {
		log.Error().Err(err).Str("race_id", run.raceID.String()).Msg("failed to count finishers")
	}
	payload := events.RaceFinishedPayload{
		RaceID:     run.raceID.String(),
		RaceNumber: run.raceNumber,
		FinishedAt: at,
		Finishers:  finishers,
	}
	e.insertOutbox(ctx, run.raceID, payload, e.outbox.InsertRaceFinishedEvent, "RaceFinished")
}

func (e *Engine) insertOutbox(ctx context.Context, raceID uuid.UUID, payload any, insert func(context.Context, uuid.UUID, []byte) error, eventType string) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	if err := insert(ctx, raceID, payloadBytes); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Str("race_id", raceID.String()).Msg("failed to insert outbox event")
	}
}
