package signal

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OutputDevice plays a horn pattern on whatever hardware is attached
// (sound, haptics, lights). Implementations are best effort.
type OutputDevice interface {
	Play(ctx context.Context, pattern Pattern) error
}

// Dispatcher fires signal events against an output device. A device failure
// is logged and swallowed; the countdown must continue on schedule whether
// or not the physical horn sounded.
type Dispatcher struct {
	device OutputDevice
}

// NewDispatcher creates a dispatcher for the given output device.
func NewDispatcher(device OutputDevice) *Dispatcher {
	return &Dispatcher{device: device}
}

// Dispatch plays one signal event. It never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, raceID uuid.UUID, event Event) {
	if err := d.device.Play(ctx, event.Pattern); err != nil {
		log.Error().
			Err(err).
			Str("race_id", raceID.String()).
			Str("signal", event.Name).
			Int("offset_sec", event.OffsetSeconds).
			Msg("signal dispatch failed; sequence continues")
		return
	}

	log.Info().
		Str("race_id", raceID.String()).
		Str("signal", event.Name).
		Int("offset_sec", event.OffsetSeconds).
		Int("blasts", event.Pattern.Blasts).
		Msg("signal dispatched")
}

// LogDevice is a no-hardware output device used in development and tests.
type LogDevice struct{}

func (LogDevice) Play(ctx context.Context, pattern Pattern) error {
	log.Debug().
		Int("blasts", pattern.Blasts).
		Dur("blast_duration", pattern.BlastDuration).
		Msg("horn")
	return nil
}
