package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/race"
	"github.com/mcdev12/regatta/go/internal/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRaceApp mirrors the store's transition guards in memory. abortErr
// and finishErr simulate write failures after the guard passes.
type fakeRaceApp struct {
	mu        sync.Mutex
	races     map[uuid.UUID]*models.Race
	abortErr  error
	finishErr error
}

func newFakeRaceApp() *fakeRaceApp {
	return &fakeRaceApp{races: make(map[uuid.UUID]*models.Race)}
}

func (f *fakeRaceApp) add(r *models.Race) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.races[r.ID] = r
}

func (f *fakeRaceApp) GetRace(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[id]
	if !ok {
		return nil, race.ErrRaceNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRaceApp) BeginCountdown(ctx context.Context, id uuid.UUID, sequenceType models.SequenceType, endsAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[id]
	if !ok {
		return race.ErrRaceNotFound
	}
	if r.State != models.SequenceStateIdle {
		return race.ErrInvalidTransition
	}
	r.State = models.SequenceStateCountdown
	r.SequenceType = sequenceType
	r.CountdownEndsAt = &endsAt
	return nil
}

func (f *fakeRaceApp) MarkRacing(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[id]
	if !ok {
		return race.ErrRaceNotFound
	}
	if r.State != models.SequenceStateCountdown || r.StartedAt != nil {
		return race.ErrInvalidTransition
	}
	r.State = models.SequenceStateRacing
	r.StartedAt = &startedAt
	r.CountdownEndsAt = nil
	return nil
}

func (f *fakeRaceApp) AbortCountdown(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[id]
	if !ok {
		return race.ErrRaceNotFound
	}
	if r.State != models.SequenceStateCountdown {
		return race.ErrInvalidTransition
	}
	if f.abortErr != nil {
		return f.abortErr
	}
	r.State = models.SequenceStateIdle
	r.CountdownEndsAt = nil
	return nil
}

func (f *fakeRaceApp) setAbortErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abortErr = err
}

func (f *fakeRaceApp) setFinishErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishErr = err
}

func (f *fakeRaceApp) MarkFinished(ctx context.Context, id uuid.UUID, finishedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.races[id]
	if !ok {
		return race.ErrRaceNotFound
	}
	if r.State != models.SequenceStateRacing {
		return race.ErrInvalidTransition
	}
	if f.finishErr != nil {
		return f.finishErr
	}
	r.State = models.SequenceStateFinished
	r.FinishedAt = &finishedAt
	return nil
}

type fakeFinishApp struct {
	mu        sync.Mutex
	created   map[uuid.UUID][]uuid.UUID
	finishers int
}

func newFakeFinishApp() *fakeFinishApp {
	return &fakeFinishApp{created: make(map[uuid.UUID][]uuid.UUID)}
}

func (f *fakeFinishApp) CreateRecordsForStart(ctx context.Context, raceID uuid.UUID, entryIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created[raceID] = entryIDs
	return nil
}

func (f *fakeFinishApp) CountFinished(ctx context.Context, raceID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finishers, nil
}

type fakeRoster struct {
	entries []models.Entry
}

func (f *fakeRoster) ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error) {
	return f.entries, nil
}

type flagNote struct {
	flagType models.FlagType
	official string
}

type fakeFlagLog struct {
	mu    sync.Mutex
	notes []flagNote
}

func (f *fakeFlagLog) AppendFlag(ctx context.Context, regattaID uuid.UUID, raceNumber int, flagType models.FlagType, official string, notedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, flagNote{flagType: flagType, official: official})
	return nil
}

type outboxEntry struct {
	eventType string
	raceID    uuid.UUID
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []outboxEntry
}

func (f *fakeOutbox) append(eventType string, raceID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, outboxEntry{eventType: eventType, raceID: raceID})
	return nil
}

func (f *fakeOutbox) InsertRaceStartedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return f.append("RaceStarted", raceID)
}

func (f *fakeOutbox) InsertSequencePostponedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return f.append("SequencePostponed", raceID)
}

func (f *fakeOutbox) InsertGeneralRecallEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return f.append("GeneralRecall", raceID)
}

func (f *fakeOutbox) InsertRaceFinishedEvent(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return f.append("RaceFinished", raceID)
}

func (f *fakeOutbox) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.eventType
	}
	return out
}

// recordingDevice captures every horn pattern played.
type recordingDevice struct {
	mu       sync.Mutex
	patterns []signal.Pattern
}

func (d *recordingDevice) Play(ctx context.Context, pattern signal.Pattern) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patterns = append(d.patterns, pattern)
	return nil
}

func (d *recordingDevice) count(p signal.Pattern) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, got := range d.patterns {
		if got == p {
			n++
		}
	}
	return n
}

func (d *recordingDevice) total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.patterns)
}

type engineFixture struct {
	engine  *Engine
	clock   *clockwork.FakeClock
	races   *fakeRaceApp
	finish  *fakeFinishApp
	roster  *fakeRoster
	flags   *fakeFlagLog
	outbox  *fakeOutbox
	device  *recordingDevice
	race    *models.Race
	entries []models.Entry
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	entries := []models.Entry{
		{ID: uuid.New(), SailNumber: "GBR 1"},
		{ID: uuid.New(), SailNumber: "GBR 2"},
		{ID: uuid.New(), SailNumber: "GBR 3"},
	}

	fx := &engineFixture{
		clock:   clockwork.NewFakeClock(),
		races:   newFakeRaceApp(),
		finish:  newFakeFinishApp(),
		roster:  &fakeRoster{entries: entries},
		flags:   &fakeFlagLog{},
		outbox:  &fakeOutbox{},
		device:  &recordingDevice{},
		entries: entries,
	}
	fx.engine = NewEngineWithClock(
		fx.races, fx.finish, fx.roster, fx.flags, fx.outbox,
		signal.NewDispatcher(fx.device), fx.clock,
	)

	fx.race = &models.Race{
		ID:         uuid.New(),
		RegattaID:  uuid.New(),
		RaceNumber: 1,
		State:      models.SequenceStateIdle,
	}
	fx.races.add(fx.race)

	return fx
}

// advanceAndTick moves the fake clock and applies one tick the way the
// loop does, without depending on ticker goroutine scheduling.
func (fx *engineFixture) advanceAndTick(t *testing.T, run *Run, d time.Duration) {
	t.Helper()
	fx.clock.Advance(d)
	fx.engine.tick(context.Background(), run)
}

func TestStartSequenceFiresWarningImmediately(t *testing.T) {
	fx := newEngineFixture(t)

	run, err := fx.engine.StartSequence(context.Background(), fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)

	snap := run.snapshot()
	assert.Equal(t, models.SequenceStateCountdown, snap.State)
	assert.Equal(t, 300, snap.RemainingSec)

	// Exactly the warning so far: one long blast.
	assert.Equal(t, 1, fx.device.total())
	assert.Equal(t, 1, fx.device.count(signal.Pattern{Blasts: 1, BlastDuration: 1500 * time.Millisecond}))

	persisted, err := fx.races.GetRace(context.Background(), fx.race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceStateCountdown, persisted.State)
	require.NotNil(t, persisted.CountdownEndsAt)
	assert.Equal(t, fx.clock.Now().Add(300*time.Second), *persisted.CountdownEndsAt)
}

func TestStartSequenceRejectsUnknownType(t *testing.T) {
	fx := newEngineFixture(t)

	_, err := fx.engine.StartSequence(context.Background(), fx.race.ID, models.SequenceType("TEN_MINUTE"))
	assert.Error(t, err)
}

func TestStartSequenceRejectsActiveRun(t *testing.T) {
	fx := newEngineFixture(t)

	_, err := fx.engine.StartSequence(context.Background(), fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)

	_, err = fx.engine.StartSequence(context.Background(), fx.race.ID, models.SequenceTypeFiveMinute)
	assert.ErrorIs(t, err, race.ErrInvalidTransition)
}

func TestRunOutlivesStartRequestContext(t *testing.T) {
	fx := newEngineFixture(t)

	// The console hands the engine a request-scoped context that dies as
	// soon as the HTTP response is written.
	reqCtx, cancelReq := context.WithCancel(context.Background())
	run, err := fx.engine.StartSequence(reqCtx, fx.race.ID, models.SequenceTypeThreeMinute)
	require.NoError(t, err)
	cancelReq()

	select {
	case <-run.Done():
		t.Fatal("tick loop died with the request context")
	case <-time.After(50 * time.Millisecond):
	}

	// The countdown still runs all the way to a clean start.
	for i := 0; i < 180; i++ {
		fx.advanceAndTick(t, run, time.Second)
	}
	assert.Equal(t, models.SequenceStateRacing, run.snapshot().State)
	assert.Equal(t, 14, fx.device.total())
}

func TestResumedRunOutlivesCallerContext(t *testing.T) {
	fx := newEngineFixture(t)

	deadline := fx.clock.Now().Add(120 * time.Second)
	fx.race.State = models.SequenceStateCountdown
	fx.race.SequenceType = models.SequenceTypeThreeMinute
	fx.race.CountdownEndsAt = &deadline

	startupCtx, cancelStartup := context.WithCancel(context.Background())
	run, err := fx.engine.Resume(startupCtx, fx.race)
	require.NoError(t, err)
	cancelStartup()

	select {
	case <-run.Done():
		t.Fatal("resumed tick loop died with the caller context")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, models.SequenceStateCountdown, run.snapshot().State)
}

func TestShutdownStopsLiveRuns(t *testing.T) {
	fx := newEngineFixture(t)

	run, err := fx.engine.StartSequence(context.Background(), fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)

	fx.engine.Shutdown()

	select {
	case <-run.Done():
	case <-time.After(time.Second):
		t.Fatal("tick loop did not stop on shutdown")
	}

	// Shutdown only kills the loop; the persisted countdown survives so a
	// restart resumes it.
	persisted, err := fx.races.GetRace(context.Background(), fx.race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceStateCountdown, persisted.State)
}

func TestCountdownRunsToStart(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		fx.advanceAndTick(t, run, time.Second)
	}

	snap := run.snapshot()
	assert.Equal(t, models.SequenceStateRacing, snap.State)
	assert.Equal(t, 0, snap.RemainingSec)
	assert.Equal(t, 0, snap.ElapsedSec)
	require.NotNil(t, snap.StartedAt)

	// warning + preparatory long blasts, one-minute short blast, ten
	// beeps, the two-blast start.
	assert.Equal(t, 2, fx.device.count(signal.Pattern{Blasts: 1, BlastDuration: 1500 * time.Millisecond}))
	assert.Equal(t, 1, fx.device.count(signal.Pattern{Blasts: 1, BlastDuration: 300 * time.Millisecond}))
	assert.Equal(t, 10, fx.device.count(signal.BeepPattern()))
	assert.Equal(t, 1, fx.device.count(signal.StartPattern()))
	assert.Equal(t, 14, fx.device.total())

	// Racing records created for every eligible entry.
	created := fx.finish.created[fx.race.ID]
	require.Len(t, created, len(fx.entries))

	persisted, err := fx.races.GetRace(ctx, fx.race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceStateRacing, persisted.State)
	require.NotNil(t, persisted.StartedAt)
	assert.Nil(t, persisted.CountdownEndsAt)

	assert.Equal(t, []string{"RaceStarted"}, fx.outbox.types())
}

func TestStalledLoopDrainsEverySkippedSignalOnce(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeThreeMinute)
	require.NoError(t, err)

	// One giant jump straight past the start instant.
	fx.advanceAndTick(t, run, 500*time.Second)

	snap := run.snapshot()
	assert.Equal(t, models.SequenceStateRacing, snap.State)

	// Every signal fired exactly once despite the single observation.
	assert.Equal(t, 2, fx.device.count(signal.Pattern{Blasts: 1, BlastDuration: 1500 * time.Millisecond}))
	assert.Equal(t, 10, fx.device.count(signal.BeepPattern()))
	assert.Equal(t, 1, fx.device.count(signal.StartPattern()))
	assert.Equal(t, 14, fx.device.total())
}

func TestElapsedTracksClockWhileRacing(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeThreeMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 180*time.Second)
	require.Equal(t, models.SequenceStateRacing, run.snapshot().State)

	fx.advanceAndTick(t, run, 42*time.Second)
	assert.Equal(t, 42, run.snapshot().ElapsedSec)

	fx.advanceAndTick(t, run, 18*time.Second)
	assert.Equal(t, 60, run.snapshot().ElapsedSec)
}

func TestRemainingRoundsUpMidSecond(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)

	// A tick observed half way through a second still reports the full
	// second remaining.
	fx.advanceAndTick(t, run, 500*time.Millisecond)
	assert.Equal(t, 300, run.snapshot().RemainingSec)

	fx.advanceAndTick(t, run, 500*time.Millisecond)
	assert.Equal(t, 299, run.snapshot().RemainingSec)
}

func TestPostponeDuringCountdown(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 30*time.Second)

	require.NoError(t, fx.engine.Postpone(ctx, fx.race.ID, "PRO"))

	assert.Equal(t, models.SequenceStateIdle, run.snapshot().State)

	persisted, err := fx.races.GetRace(ctx, fx.race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceStateIdle, persisted.State)
	assert.Nil(t, persisted.CountdownEndsAt)

	require.Len(t, fx.flags.notes, 1)
	assert.Equal(t, models.FlagTypePostponement, fx.flags.notes[0].flagType)
	assert.Equal(t, "PRO", fx.flags.notes[0].official)
	assert.Equal(t, []string{"SequencePostponed"}, fx.outbox.types())

	// A tick queued behind the abort observes idle and fires nothing.
	before := fx.device.total()
	fx.advanceAndTick(t, run, time.Second)
	assert.Equal(t, before, fx.device.total())
}

func TestPostponeRetriesAfterStoreFailure(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 30*time.Second)

	// A failed write must not strand the run: the countdown stays live
	// and the official can try again.
	fx.races.setAbortErr(errors.New("connection reset"))
	err = fx.engine.Postpone(ctx, fx.race.ID, "PRO")
	require.Error(t, err)

	assert.Equal(t, models.SequenceStateCountdown, run.snapshot().State)
	assert.Empty(t, fx.flags.notes)
	assert.Empty(t, fx.outbox.types())

	fx.races.setAbortErr(nil)
	require.NoError(t, fx.engine.Postpone(ctx, fx.race.ID, "PRO"))
	assert.Equal(t, models.SequenceStateIdle, run.snapshot().State)
	assert.Equal(t, []string{"SequencePostponed"}, fx.outbox.types())
}

func TestGeneralRecallDuringCountdown(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeThreeMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 10*time.Second)

	require.NoError(t, fx.engine.GeneralRecall(ctx, fx.race.ID, "PRO"))

	require.Len(t, fx.flags.notes, 1)
	assert.Equal(t, models.FlagTypeGeneralRecall, fx.flags.notes[0].flagType)
	assert.Equal(t, []string{"GeneralRecall"}, fx.outbox.types())
}

func TestPostponeAfterStartRejected(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeThreeMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 180*time.Second)
	require.Equal(t, models.SequenceStateRacing, run.snapshot().State)

	err = fx.engine.Postpone(ctx, fx.race.ID, "PRO")
	assert.ErrorIs(t, err, race.ErrInvalidTransition)
	assert.Empty(t, fx.flags.notes)
}

func TestRestartAfterAbortGetsFreshSchedule(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 70*time.Second) // warning + preparatory fired
	require.NoError(t, fx.engine.GeneralRecall(ctx, fx.race.ID, "PRO"))

	// New attempt starts from the top with a full schedule.
	fired := fx.device.total()
	run2, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)
	assert.Equal(t, 300, run2.snapshot().RemainingSec)
	assert.Equal(t, fired+1, fx.device.total()) // fresh warning
}

func TestStopRace(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeThreeMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 180*time.Second)
	fx.advanceAndTick(t, run, 95*time.Second)

	fx.finish.finishers = 2
	require.NoError(t, fx.engine.Stop(ctx, fx.race.ID))

	snap := run.snapshot()
	assert.Equal(t, models.SequenceStateFinished, snap.State)
	assert.Equal(t, 95, snap.ElapsedSec)

	persisted, err := fx.races.GetRace(ctx, fx.race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceStateFinished, persisted.State)
	require.NotNil(t, persisted.FinishedAt)

	assert.Equal(t, []string{"RaceStarted", "RaceFinished"}, fx.outbox.types())
}

func TestStopRetriesAfterStoreFailure(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	run, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeThreeMinute)
	require.NoError(t, err)
	fx.advanceAndTick(t, run, 180*time.Second)
	require.Equal(t, models.SequenceStateRacing, run.snapshot().State)

	fx.races.setFinishErr(errors.New("connection reset"))
	err = fx.engine.Stop(ctx, fx.race.ID)
	require.Error(t, err)

	// Still racing in memory and in the store, so the retry goes through.
	assert.Equal(t, models.SequenceStateRacing, run.snapshot().State)
	persisted, err := fx.races.GetRace(ctx, fx.race.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceStateRacing, persisted.State)

	fx.races.setFinishErr(nil)
	require.NoError(t, fx.engine.Stop(ctx, fx.race.ID))
	assert.Equal(t, models.SequenceStateFinished, run.snapshot().State)
}

func TestStopBeforeStartRejected(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	_, err := fx.engine.StartSequence(ctx, fx.race.ID, models.SequenceTypeFiveMinute)
	require.NoError(t, err)

	err = fx.engine.Stop(ctx, fx.race.ID)
	assert.ErrorIs(t, err, race.ErrInvalidTransition)
}

func TestResumeCountdownFiresSkippedSignals(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	// Persisted countdown with 50 seconds left; the process missed the
	// warning, preparatory and one-minute offsets while it was down.
	deadline := fx.clock.Now().Add(50 * time.Second)
	fx.race.State = models.SequenceStateCountdown
	fx.race.SequenceType = models.SequenceTypeFiveMinute
	fx.race.CountdownEndsAt = &deadline

	run, err := fx.engine.Resume(ctx, fx.race)
	require.NoError(t, err)

	snap := run.snapshot()
	assert.Equal(t, models.SequenceStateCountdown, snap.State)
	assert.Equal(t, 50, snap.RemainingSec)

	// warning, preparatory, one-minute drained immediately, beeps still
	// pending.
	assert.Equal(t, 3, fx.device.total())

	// The rest of the countdown still runs to a normal start.
	for i := 0; i < 50; i++ {
		fx.advanceAndTick(t, run, time.Second)
	}
	assert.Equal(t, models.SequenceStateRacing, run.snapshot().State)
	assert.Equal(t, 14, fx.device.total())
}

func TestResumeRacingRestoresElapsed(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	startedAt := fx.clock.Now().Add(-40 * time.Second)
	fx.race.State = models.SequenceStateRacing
	fx.race.SequenceType = models.SequenceTypeThreeMinute
	fx.race.StartedAt = &startedAt

	run, err := fx.engine.Resume(ctx, fx.race)
	require.NoError(t, err)

	snap := run.snapshot()
	assert.Equal(t, models.SequenceStateRacing, snap.State)
	assert.Equal(t, 40, snap.ElapsedSec)

	// No signals fire for a race that already started.
	assert.Equal(t, 0, fx.device.total())

	fx.advanceAndTick(t, run, 20*time.Second)
	assert.Equal(t, 60, run.snapshot().ElapsedSec)
	assert.Equal(t, 0, fx.device.total())
}

func TestResumeIdleRejected(t *testing.T) {
	fx := newEngineFixture(t)

	_, err := fx.engine.Resume(context.Background(), fx.race)
	assert.ErrorIs(t, err, race.ErrInvalidTransition)
}

func TestSnapshotUnknownRace(t *testing.T) {
	fx := newEngineFixture(t)

	_, ok := fx.engine.Snapshot(uuid.New())
	assert.False(t, ok)
}
