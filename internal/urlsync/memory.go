package urlsync

import "sync"

// MemoryHistory is an in-process Navigator with browser-like push/replace
// semantics. The session gateway uses it as the canonical URL of a headless
// session; tests use it to observe navigation.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
	pos     int
}

// NewMemoryHistory creates a history with a single empty entry, like a
// freshly opened tab.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{entries: []string{""}}
}

// Push appends a new entry, dropping any forward entries.
func (h *MemoryHistory) Push(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.pos+1], query)
	h.pos++
}

// Replace overwrites the current entry.
func (h *MemoryHistory) Replace(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.pos] = query
}

// Current returns the query string of the current entry.
func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.pos]
}

// Back moves one entry backwards and returns the new current query.
// The second return is false at the beginning of history.
func (h *MemoryHistory) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos == 0 {
		return h.entries[0], false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves one entry forwards and returns the new current query.
func (h *MemoryHistory) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos >= len(h.entries)-1 {
		return h.entries[h.pos], false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Entries returns a copy of all history entries, oldest first.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Len returns the number of history entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
