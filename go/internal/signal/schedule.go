package signal

import "sort"

// Event is an ephemeral dispatch instruction produced when a scheduled
// offset comes due. Events are never persisted.
type Event struct {
	Name          string  `json:"name"`
	OffsetSeconds int     `json:"offset_seconds"`
	Pattern       Pattern `json:"pattern"`
}

// Schedule holds the pending signal entries for one sequence run, sorted by
// descending offset. Entries are consumed strictly in order, so a signal
// fires at most once per run and colliding offsets keep their table order.
type Schedule struct {
	pending []Event
}

// NewSchedule expands a configuration into the full pending signal list:
// the configured offsets, the terminal beeps at 10..1 seconds, and the start
// signal at 0 seconds. The sort is stable so offset collisions preserve the
// order of the configuration table.
func NewSchedule(cfg Config) *Schedule {
	pending := make([]Event, 0, len(cfg.Offsets)+11)
	for _, off := range cfg.Offsets {
		pending = append(pending, Event{
			Name:          off.Name,
			OffsetSeconds: off.Seconds,
			Pattern:       off.Pattern,
		})
	}
	for sec := 10; sec >= 1; sec-- {
		pending = append(pending, Event{
			Name:          SignalBeep,
			OffsetSeconds: sec,
			Pattern:       BeepPattern(),
		})
	}
	pending = append(pending, Event{
		Name:          SignalStart,
		OffsetSeconds: 0,
		Pattern:       StartPattern(),
	})

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].OffsetSeconds > pending[j].OffsetSeconds
	})

	return &Schedule{pending: pending}
}

// Due pops every pending event whose offset is >= the observed remaining
// seconds, in descending offset order. A delayed tick that jumps past
// several offsets therefore still yields each skipped signal exactly once.
func (s *Schedule) Due(remainingSeconds int) []Event {
	n := 0
	for n < len(s.pending) && s.pending[n].OffsetSeconds >= remainingSeconds {
		n++
	}
	if n == 0 {
		return nil
	}
	due := s.pending[:n]
	s.pending = s.pending[n:]
	return due
}

// Pending reports how many signals have not yet fired.
func (s *Schedule) Pending() int {
	return len(s.pending)
}
