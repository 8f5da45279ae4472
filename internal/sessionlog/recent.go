package sessionlog

import "sync"

const defaultRecentCapacity = 32

// Recent keeps the last entries teed from the logger. The TUI renders the
// newest one on its status line.
type Recent struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	version uint64
}

// NewRecent returns a buffer holding at most capacity entries. A non-positive
// capacity selects the default.
func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = defaultRecentCapacity
	}
	return &Recent{entries: make([]Entry, capacity)}
}

// Add records e, overwriting the oldest entry when full. Add has the
// EntryCallback signature.
func (r *Recent) Add(e Entry) {
	r.mu.Lock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.version++
	r.mu.Unlock()
}

// Latest returns the newest entry, if any.
func (r *Recent) Latest() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full && r.next == 0 {
		return Entry{}, false
	}
	idx := (r.next - 1 + len(r.entries)) % len(r.entries)
	return r.entries[idx], true
}

// Entries returns the buffered entries, oldest first.
func (r *Recent) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

// Version increments on every Add. Renderers compare it to skip redraws.
func (r *Recent) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}
