package timer

import (
	"fmt"
	"time"
)

// State is the recoverable form of an attempt in progress. It is stored as
// JSON and restored at session start.
type State struct {
	Phase        Phase         `json:"phase"`
	TimingMethod TimingMethod  `json:"timing_method"`
	Comparison   string        `json:"comparison"`
	StartedAt    time.Time     `json:"started_at"`
	PausedAt     time.Time     `json:"paused_at"`
	EndedAt      time.Time     `json:"ended_at"`
	PauseTime    time.Duration `json:"pause_time"`
	TotalPaused  time.Duration `json:"total_paused"`
	CurrentSplit int           `json:"current_split"`
	Splits       []Time        `json:"splits"`
}

// State captures the attempt in progress.
func (t *Timer) State() State {
	return State{
		Phase:        t.phase,
		TimingMethod: t.method,
		Comparison:   t.comparison,
		StartedAt:    t.startedAt,
		PausedAt:     t.pausedAt,
		EndedAt:      t.endedAt,
		PauseTime:    t.pauseTime,
		TotalPaused:  t.totalPaused,
		CurrentSplit: t.currentSplit,
		Splits:       append([]Time(nil), t.splits...),
	}
}

// ReplaceState restores a previously captured State. The state must belong
// to a run with the same number of segments and its split index must agree
// with its phase.
func (t *Timer) ReplaceState(st State) error {
	if len(st.Splits) != len(t.run.Segments) {
		return fmt.Errorf("timer: state has %d splits, run has %d segments", len(st.Splits), len(t.run.Segments))
	}
	if st.TimingMethod != RealTime && st.TimingMethod != GameTime {
		return fmt.Errorf("timer: state has unknown timing method %d", uint8(st.TimingMethod))
	}
	if err := checkSplitIndex(st.Phase, st.CurrentSplit, len(st.Splits)); err != nil {
		return err
	}
	if err := t.SetCurrentComparison(st.Comparison); err != nil {
		return err
	}
	t.phase = st.Phase
	t.method = st.TimingMethod
	t.startedAt = st.StartedAt
	t.pausedAt = st.PausedAt
	t.endedAt = st.EndedAt
	t.pauseTime = st.PauseTime
	t.totalPaused = st.TotalPaused
	t.currentSplit = st.CurrentSplit
	t.splits = append([]Time(nil), st.Splits...)
	return nil
}

// checkSplitIndex reports whether index is where phase leaves the cursor:
// -1 before a start, a real segment while running or paused, and one past
// the last segment once ended.
func checkSplitIndex(phase Phase, index, segments int) error {
	var ok bool
	switch phase {
	case NotRunning:
		ok = index == -1
	case Running, Paused:
		ok = index >= 0 && index < segments
	case Ended:
		ok = index == segments
	default:
		return fmt.Errorf("timer: state has unknown phase %d", uint8(phase))
	}
	if !ok {
		return fmt.Errorf("timer: state split index %d invalid for phase %s", index, phase)
	}
	return nil
}

// SegmentView is one row of a StateView. Times are milliseconds; nil means
// no value.
type SegmentView struct {
	Name        string `json:"name"`
	SplitTime   *int64 `json:"split_time,omitempty"`
	Comparison  *int64 `json:"comparison,omitempty"`
	Delta       *int64 `json:"delta,omitempty"`
	BestSegment *int64 `json:"best_segment,omitempty"`
}

// StateView is a read-only snapshot of the timer for rendering and broadcast.
type StateView struct {
	Game         string        `json:"game"`
	Category     string        `json:"category"`
	Attempts     int           `json:"attempts"`
	Phase        Phase         `json:"phase"`
	TimingMethod TimingMethod  `json:"timing_method"`
	Comparison   string        `json:"comparison"`
	CurrentSplit int           `json:"current_split"`
	CurrentTime  int64         `json:"current_time"`
	Segments     []SegmentView `json:"segments"`
}

// Snapshot returns the current StateView.
func (t *Timer) Snapshot() StateView {
	view := StateView{
		Game:         t.run.Game,
		Category:     t.run.Category,
		Attempts:     t.run.Attempts,
		Phase:        t.phase,
		TimingMethod: t.method,
		Comparison:   t.comparison,
		CurrentSplit: t.currentSplit,
		CurrentTime:  t.CurrentTime().By(t.method).Milliseconds(),
		Segments:     make([]SegmentView, len(t.run.Segments)),
	}
	for i, seg := range t.run.Segments {
		row := SegmentView{Name: seg.Name}
		if best := seg.BestSegment.By(t.method); best != 0 {
			row.BestSegment = millis(best)
		}
		comparison, hasComparison := t.ComparisonTime(i)
		if hasComparison {
			row.Comparison = millis(comparison)
		}
		if split := t.splits[i].By(t.method); i < t.currentSplit && split != 0 {
			row.SplitTime = millis(split)
			if hasComparison {
				row.Delta = millis(split - comparison)
			}
		}
		view.Segments[i] = row
	}
	return view
}

func millis(d time.Duration) *int64 {
	ms := d.Milliseconds()
	return &ms
}
