package sequence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/signal"
)

// Run is the in-memory state of one countdown-to-start attempt. A run is
// created per "start sequence" action and destroyed when it is aborted or a
// new run replaces it. All fields behind mu; side effects are executed
// while holding mu so that an abort observed as countdown can never be
// followed by another signal dispatch.
type Run struct {
	raceID     uuid.UUID
	regattaID  uuid.UUID
	raceNumber int
	cfg        signal.Config
	schedule   *signal.Schedule

	mu           sync.Mutex
	state        models.SequenceState
	deadline     time.Time // instant the start signal is due (countdown)
	startedAt    time.Time // authoritative start instant (racing onwards)
	remainingSec int
	elapsedSec   int

	cancel context.CancelFunc
	done   chan struct{}
}

// Snapshot is a point-in-time read of a run for display purposes. Finish
// ordering is never derived from it.
type Snapshot struct {
	RaceID       uuid.UUID            `json:"race_id"`
	RaceNumber   int                  `json:"race_number"`
	State        models.SequenceState `json:"state"`
	SequenceType models.SequenceType  `json:"sequence_type"`
	RemainingSec int                  `json:"remaining_sec"`
	ElapsedSec   int                  `json:"elapsed_sec"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
}

func (r *Run) snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		RaceID:       r.raceID,
		RaceNumber:   r.raceNumber,
		State:        r.state,
		SequenceType: r.cfg.Type,
		RemainingSec: r.remainingSec,
		ElapsedSec:   r.elapsedSec,
	}
	if r.state == models.SequenceStateRacing || r.state == models.SequenceStateFinished {
		startedAt := r.startedAt
		snap.StartedAt = &startedAt
	}
	return snap
}

// Done is closed when the run's tick loop has fully stopped.
func (r *Run) Done() <-chan struct{} {
	return r.done
}
