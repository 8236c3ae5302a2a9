package signal

import (
	"fmt"
	"time"

	"github.com/mcdev12/regatta/go/internal/models"
)

// Pattern describes how the output device should sound a signal.
type Pattern struct {
	Blasts        int           `json:"blasts"`
	BlastDuration time.Duration `json:"blast_duration"`
}

// Offset is one scheduled signal in a sequence configuration, expressed in
// seconds before the start instant.
type Offset struct {
	Seconds int     `json:"seconds"`
	Name    string  `json:"name"`
	Pattern Pattern `json:"pattern"`
}

// Config is an immutable start sequence configuration: total duration plus
// the ordered offset table. The terminal countdown beeps (10..1 s) and the
// start signal at 0 s are implicit in every configuration.
type Config struct {
	Type            models.SequenceType
	DurationSeconds int
	Offsets         []Offset
}

// Signal names used across the engine and the event feed.
const (
	SignalWarning     = "warning"
	SignalPreparatory = "preparatory"
	SignalOneMinute   = "one-minute"
	SignalBeep        = "beep"
	SignalStart       = "start"
)

var (
	longBlast  = Pattern{Blasts: 1, BlastDuration: 1500 * time.Millisecond}
	shortBlast = Pattern{Blasts: 1, BlastDuration: 300 * time.Millisecond}
	startBlast = Pattern{Blasts: 2, BlastDuration: 1500 * time.Millisecond}
	beepPulse  = Pattern{Blasts: 1, BlastDuration: 100 * time.Millisecond}
)

// BeepPattern is the short terminal-countdown signal fired on every one of
// the final ten ticks.
func BeepPattern() Pattern { return beepPulse }

// StartPattern is the distinct pattern fired at the start instant.
func StartPattern() Pattern { return startBlast }

var fiveMinute = Config{
	Type:            models.SequenceTypeFiveMinute,
	DurationSeconds: 300,
	Offsets: []Offset{
		{Seconds: 300, Name: SignalWarning, Pattern: longBlast},
		{Seconds: 240, Name: SignalPreparatory, Pattern: longBlast},
		{Seconds: 60, Name: SignalOneMinute, Pattern: shortBlast},
	},
}

var threeMinute = Config{
	Type:            models.SequenceTypeThreeMinute,
	DurationSeconds: 180,
	Offsets: []Offset{
		{Seconds: 180, Name: SignalWarning, Pattern: longBlast},
		{Seconds: 120, Name: SignalPreparatory, Pattern: longBlast},
		{Seconds: 60, Name: SignalOneMinute, Pattern: shortBlast},
	},
}

// ConfigFor returns the built-in configuration for a sequence type.
func ConfigFor(t models.SequenceType) (Config, error) {
	switch t {
	case models.SequenceTypeFiveMinute:
		return fiveMinute, nil
	case models.SequenceTypeThreeMinute:
		return threeMinute, nil
	default:
		return Config{}, fmt.Errorf("unknown sequence type: %s", t)
	}
}
