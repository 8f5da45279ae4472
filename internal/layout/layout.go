// Package layout turns timer snapshots into the rows the window renders and
// tracks the user's scroll position in the split list.
package layout

import (
	"fmt"
	"sync"
	"time"

	"splitrelay/internal/timer"
)

// Row is one rendered split.
type Row struct {
	Name       string
	Split      string
	Comparison string
	Delta      string
	// DeltaSign is -1 when ahead of the comparison, +1 when behind, 0 when
	// there is no delta.
	DeltaSign   int
	BestSegment string
	Current     bool
}

// RenderableState is everything the window draws for one frame.
type RenderableState struct {
	Title        string
	Attempts     int
	Rows         []Row
	Timer        string
	Phase        timer.Phase
	Comparison   string
	TimingMethod timer.TimingMethod
	// FirstRow is the index of Rows[0] within the run.
	FirstRow    int
	TotalSplits int
	Settings    Settings
}

// Layout holds the layout settings and scroll position. It is safe for
// concurrent use: scroll actions arrive from the dispatcher while the render
// loop calls UpdateState.
type Layout struct {
	mu       sync.Mutex
	settings Settings
	scroll   int
	// lastSplit resets the manual scroll offset whenever the run advances.
	lastSplit int
}

// New returns a Layout with the given settings.
func New(settings Settings) *Layout {
	if settings.VisibleSplits <= 0 {
		settings.VisibleSplits = defaultVisibleSplits
	}
	return &Layout{settings: settings, lastSplit: -1}
}

// Settings returns the current settings.
func (l *Layout) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// ScrollUp moves the split list window one row towards the first split.
func (l *Layout) ScrollUp() {
	l.mu.Lock()
	l.scroll--
	l.mu.Unlock()
}

// ScrollDown moves the split list window one row towards the last split.
func (l *Layout) ScrollDown() {
	l.mu.Lock()
	l.scroll++
	l.mu.Unlock()
}

// UpdateState builds the frame for view. The visible window follows the
// running segment, keeping the next split in view, offset by any manual
// scrolling since the last split.
func (l *Layout) UpdateState(view timer.StateView) RenderableState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if view.CurrentSplit != l.lastSplit {
		l.lastSplit = view.CurrentSplit
		l.scroll = 0
	}

	total := len(view.Segments)
	visible := min(l.settings.VisibleSplits, total)
	maxStart := total - visible

	follow := 0
	if view.CurrentSplit >= 0 {
		follow = view.CurrentSplit - visible + 2
	}
	follow = clamp(follow, 0, maxStart)
	// Clamp the stored offset so scrolling past either end does not need to
	// be undone key by key.
	l.scroll = clamp(follow+l.scroll, 0, maxStart) - follow
	start := follow + l.scroll

	title := l.settings.Title
	if title == "" {
		title = view.Game + " - " + view.Category
	}

	state := RenderableState{
		Title:        title,
		Attempts:     view.Attempts,
		Timer:        FormatDuration(view.CurrentTime),
		Phase:        view.Phase,
		Comparison:   view.Comparison,
		TimingMethod: view.TimingMethod,
		FirstRow:     start,
		TotalSplits:  total,
		Settings:     l.settings,
		Rows:         make([]Row, 0, visible),
	}
	for i := start; i < start+visible; i++ {
		seg := view.Segments[i]
		row := Row{
			Name:        seg.Name,
			Split:       formatOptional(seg.SplitTime),
			Comparison:  formatOptional(seg.Comparison),
			BestSegment: formatOptional(seg.BestSegment),
			Current:     i == view.CurrentSplit && (view.Phase == timer.Running || view.Phase == timer.Paused),
		}
		if seg.Delta != nil && l.settings.ShowDelta {
			row.Delta = FormatDelta(*seg.Delta)
			switch {
			case *seg.Delta < 0:
				row.DeltaSign = -1
			case *seg.Delta > 0:
				row.DeltaSign = 1
			}
		}
		state.Rows = append(state.Rows, row)
	}
	return state
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func formatOptional(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return FormatDuration(*ms)
}

// FormatDuration renders milliseconds as [h:]m:ss.cc.
func FormatDuration(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	d := time.Duration(ms) * time.Millisecond
	hours := int64(d / time.Hour)
	minutes := int64(d/time.Minute) % 60
	seconds := int64(d/time.Second) % 60
	centis := (ms % 1000) / 10
	if hours > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d.%02d", sign, hours, minutes, seconds, centis)
	}
	return fmt.Sprintf("%s%d:%02d.%02d", sign, minutes, seconds, centis)
}

// FormatDelta renders a signed delta in seconds with one decimal, switching
// to m:ss above a minute.
func FormatDelta(ms int64) string {
	sign := "+"
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	if ms >= int64(time.Minute/time.Millisecond) {
		return fmt.Sprintf("%s%d:%02d", sign, ms/60000, (ms/1000)%60)
	}
	return fmt.Sprintf("%s%d.%d", sign, ms/1000, (ms%1000)/100)
}
