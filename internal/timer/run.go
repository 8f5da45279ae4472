package timer

import (
	"errors"
	"time"
)

// Time is a point on both timing methods. A zero Time means "no time".
type Time struct {
	Real time.Duration
	Game time.Duration
}

// IsZero reports whether neither timing method carries a value.
func (t Time) IsZero() bool { return t.Real == 0 && t.Game == 0 }

// By returns the value for method.
func (t Time) By(method TimingMethod) time.Duration {
	if method == GameTime {
		return t.Game
	}
	return t.Real
}

// Sub returns the per-method difference t - u.
func (t Time) Sub(u Time) Time {
	return Time{Real: t.Real - u.Real, Game: t.Game - u.Game}
}

// Add returns the per-method sum t + u.
func (t Time) Add(u Time) Time {
	return Time{Real: t.Real + u.Real, Game: t.Game + u.Game}
}

// Segment is one split of a run with its historical records.
type Segment struct {
	Name string
	// PersonalBest is the cumulative split time of the personal best run.
	PersonalBest Time
	// BestSegment is the fastest time ever recorded for this segment alone.
	BestSegment Time
}

// Run is the list of segments a timer walks through, plus its metadata.
type Run struct {
	Game     string
	Category string
	Attempts int
	Segments []Segment
}

// ErrEmptyRun is returned when a run has no segments.
var ErrEmptyRun = errors.New("timer: run has no segments")

// DefaultRun returns the single-segment run used when no splits file is
// configured or the configured one cannot be read.
func DefaultRun() Run {
	return Run{
		Game:     "Game",
		Category: "Category",
		Segments: []Segment{{Name: "Time"}},
	}
}

// Clone returns a deep copy of r.
func (r Run) Clone() Run {
	out := r
	out.Segments = append([]Segment(nil), r.Segments...)
	return out
}
