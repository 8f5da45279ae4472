// Package timer implements the split timer that hotkeys drive and subscribers
// observe, together with the locking discipline for sharing it.
package timer

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the lifecycle position of an attempt.
type Phase uint8

const (
	NotRunning Phase = iota
	Running
	Paused
	Ended
)

var phaseNames = [...]string{
	NotRunning: "not_running",
	Running:    "running",
	Paused:     "paused",
	Ended:      "ended",
}

func (p Phase) String() string {
	if int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
	return phaseNames[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("timer: unknown phase %d", uint8(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("timer: unknown phase %q", text)
}

// TimingMethod selects which clock the timer displays and compares against.
type TimingMethod uint8

const (
	RealTime TimingMethod = iota
	GameTime
)

func (m TimingMethod) String() string {
	if m == GameTime {
		return "game"
	}
	return "real"
}

// MarshalText implements encoding.TextMarshaler.
func (m TimingMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *TimingMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseTimingMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseTimingMethod parses "real" or "game".
func ParseTimingMethod(s string) (TimingMethod, error) {
	switch s {
	case "real":
		return RealTime, nil
	case "game":
		return GameTime, nil
	default:
		return RealTime, fmt.Errorf("timer: unknown timing method %q", s)
	}
}

// Comparison names.
const (
	PersonalBest = "Personal Best"
	BestSegments = "Best Segments"
	NoComparison = "None"
)

// Comparisons lists the comparisons in cycling order.
var Comparisons = []string{PersonalBest, BestSegments, NoComparison}

// ErrUnknownComparison is returned by SetCurrentComparison for names outside
// Comparisons.
var ErrUnknownComparison = errors.New("timer: unknown comparison")

// Attempt is a finished (reset) attempt, recorded in the attempt history.
type Attempt struct {
	Number    int
	StartedAt time.Time
	EndedAt   time.Time
	Completed bool
	// Final is the last split time for completed attempts, otherwise the
	// time on the clock when the attempt was reset.
	Final Time
}

// Timer is a split timer over a Run. It is not safe for concurrent use; share
// it through Shared.
type Timer struct {
	run   Run
	clock func() time.Time

	phase      Phase
	method     TimingMethod
	comparison string

	startedAt time.Time
	pausedAt  time.Time
	endedAt   time.Time
	// pauseTime is subtracted from real time and cleared by UndoAllPauses.
	pauseTime time.Duration
	// totalPaused is subtracted from game time and never cleared.
	totalPaused time.Duration

	currentSplit int
	splits       []Time

	finished []Attempt
}

// New returns a timer for run. A nil clock uses time.Now.
func New(run Run, clock func() time.Time) (*Timer, error) {
	if len(run.Segments) == 0 {
		return nil, ErrEmptyRun
	}
	if clock == nil {
		clock = time.Now
	}
	t := &Timer{
		run:        run.Clone(),
		clock:      clock,
		comparison: PersonalBest,
	}
	t.clearAttempt()
	return t, nil
}

func (t *Timer) clearAttempt() {
	t.phase = NotRunning
	t.startedAt = time.Time{}
	t.pausedAt = time.Time{}
	t.endedAt = time.Time{}
	t.pauseTime = 0
	t.totalPaused = 0
	t.currentSplit = -1
	t.splits = make([]Time, len(t.run.Segments))
}

// Phase returns the current phase.
func (t *Timer) Phase() Phase { return t.phase }

// CurrentSplitIndex returns the index of the running segment, or -1 when no
// attempt is running. It equals the segment count once the run has ended.
func (t *Timer) CurrentSplitIndex() int { return t.currentSplit }

// Run returns a copy of the run including any records updated by Reset.
func (t *Timer) Run() Run { return t.run.Clone() }

// CurrentComparison returns the active comparison name.
func (t *Timer) CurrentComparison() string { return t.comparison }

// TimingMethod returns the active timing method.
func (t *Timer) TimingMethod() TimingMethod { return t.method }

// SetTimingMethod selects the active timing method.
func (t *Timer) SetTimingMethod(m TimingMethod) { t.method = m }

// ToggleTimingMethod switches between real and game time.
func (t *Timer) ToggleTimingMethod() {
	if t.method == RealTime {
		t.method = GameTime
	} else {
		t.method = RealTime
	}
}

// CurrentTime returns the time on the clock for both methods.
func (t *Timer) CurrentTime() Time {
	return t.timeAt(t.clock())
}

func (t *Timer) timeAt(now time.Time) Time {
	var end time.Time
	switch t.phase {
	case NotRunning:
		return Time{}
	case Paused:
		end = t.pausedAt
	case Ended:
		end = t.endedAt
	default:
		end = now
	}
	elapsed := end.Sub(t.startedAt)
	return Time{Real: elapsed - t.pauseTime, Game: elapsed - t.totalPaused}
}

// SplitOrStart starts a new attempt, or records a split for the running
// segment. The last split ends the attempt. It does nothing while paused or
// after the run has ended.
func (t *Timer) SplitOrStart() {
	now := t.clock()
	switch t.phase {
	case NotRunning:
		t.phase = Running
		t.startedAt = now
		t.currentSplit = 0
	case Running:
		t.splits[t.currentSplit] = t.timeAt(now)
		t.currentSplit++
		if t.currentSplit == len(t.splits) {
			t.phase = Ended
			t.endedAt = now
		}
	}
}

// TogglePause pauses a running attempt or resumes a paused one.
func (t *Timer) TogglePause() {
	now := t.clock()
	switch t.phase {
	case Running:
		t.phase = Paused
		t.pausedAt = now
	case Paused:
		t.resume(now)
	}
}

func (t *Timer) resume(now time.Time) {
	paused := now.Sub(t.pausedAt)
	t.pauseTime += paused
	t.totalPaused += paused
	t.pausedAt = time.Time{}
	t.phase = Running
}

// UndoAllPauses resumes a paused attempt and adds every pause back onto the
// real time. Game time keeps excluding the pauses.
func (t *Timer) UndoAllPauses() {
	switch t.phase {
	case Paused:
		t.resume(t.clock())
		t.pauseTime = 0
	case Running:
		t.pauseTime = 0
	}
}

// SkipSplit leaves the running segment without a time and moves on. The last
// segment cannot be skipped.
func (t *Timer) SkipSplit() {
	if t.phase != Running && t.phase != Paused {
		return
	}
	if t.currentSplit >= len(t.splits)-1 {
		return
	}
	t.splits[t.currentSplit] = Time{}
	t.currentSplit++
}

// UndoSplit returns to the previous segment, discarding its split time.
// Undoing the final split resumes an ended attempt.
func (t *Timer) UndoSplit() {
	if t.phase == NotRunning || t.currentSplit <= 0 {
		return
	}
	if t.phase == Ended {
		t.phase = Running
		t.endedAt = time.Time{}
	}
	t.currentSplit--
	t.splits[t.currentSplit] = Time{}
}

// Reset ends the current attempt. With updateSplits, the attempt counter,
// best segments and (for a faster completed run) personal best are updated
// and the attempt is queued for the history. It reports false when no attempt
// was running.
func (t *Timer) Reset(updateSplits bool) (Attempt, bool) {
	if t.phase == NotRunning {
		return Attempt{}, false
	}
	now := t.clock()
	attempt := Attempt{
		Number:    t.run.Attempts + 1,
		StartedAt: t.startedAt,
		EndedAt:   now,
		Completed: t.phase == Ended,
		Final:     t.timeAt(now),
	}
	if attempt.Completed {
		attempt.Final = t.splits[len(t.splits)-1]
	}

	if updateSplits {
		t.run.Attempts++
		t.updateBestSegments()
		if attempt.Completed {
			t.updatePersonalBest()
		}
		t.finished = append(t.finished, attempt)
	}

	t.clearAttempt()
	return attempt, true
}

func (t *Timer) updateBestSegments() {
	var previous Time
	previousSet := true
	for i := 0; i < t.currentSplit && i < len(t.splits); i++ {
		split := t.splits[i]
		if split.IsZero() {
			previousSet = false
			continue
		}
		if previousSet {
			segment := split.Sub(previous)
			best := &t.run.Segments[i].BestSegment
			if best.Real == 0 || segment.Real < best.Real {
				best.Real = segment.Real
			}
			if best.Game == 0 || segment.Game < best.Game {
				best.Game = segment.Game
			}
		}
		previous = split
		previousSet = true
	}
}

func (t *Timer) updatePersonalBest() {
	last := len(t.splits) - 1
	final := t.splits[last].By(t.method)
	pb := t.run.Segments[last].PersonalBest.By(t.method)
	if pb != 0 && final >= pb {
		return
	}
	for i := range t.run.Segments {
		t.run.Segments[i].PersonalBest = t.splits[i]
	}
}

// TakeFinishedAttempts returns and clears the attempts queued by Reset.
func (t *Timer) TakeFinishedAttempts() []Attempt {
	out := t.finished
	t.finished = nil
	return out
}

// SwitchToNextComparison cycles forward through Comparisons.
func (t *Timer) SwitchToNextComparison() {
	t.comparison = Comparisons[(t.comparisonIndex()+1)%len(Comparisons)]
}

// SwitchToPreviousComparison cycles backward through Comparisons.
func (t *Timer) SwitchToPreviousComparison() {
	t.comparison = Comparisons[(t.comparisonIndex()+len(Comparisons)-1)%len(Comparisons)]
}

func (t *Timer) comparisonIndex() int {
	for i, name := range Comparisons {
		if name == t.comparison {
			return i
		}
	}
	return 0
}

// SetCurrentComparison selects a comparison by name.
func (t *Timer) SetCurrentComparison(name string) error {
	for _, known := range Comparisons {
		if known == name {
			t.comparison = name
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownComparison, name)
}

// ComparisonTime returns the cumulative comparison time of segment i, and
// false when the active comparison has no time for it.
func (t *Timer) ComparisonTime(i int) (time.Duration, bool) {
	if i < 0 || i >= len(t.run.Segments) {
		return 0, false
	}
	switch t.comparison {
	case PersonalBest:
		d := t.run.Segments[i].PersonalBest.By(t.method)
		return d, d != 0
	case BestSegments:
		var sum time.Duration
		for _, seg := range t.run.Segments[:i+1] {
			d := seg.BestSegment.By(t.method)
			if d == 0 {
				return 0, false
			}
			sum += d
		}
		return sum, true
	default:
		return 0, false
	}
}
