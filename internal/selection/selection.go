// Package selection reconciles "which gym is highlighted" across the map,
// the result list, the detail panel, and URL deep links.
//
// Policy: last writer wins. A consumer only reacts (fly-to, scroll-into-view)
// to selections made by another surface, and a short suppression window
// prevents two surfaces from re-triggering each other when they produce
// equivalent selections in quick succession.
package selection

import (
	"sync"
	"time"
)

// Source tags the interaction surface that produced a selection.
type Source string

const (
	SourceMap   Source = "map"
	SourceList  Source = "list"
	SourcePanel Source = "panel"
	SourceURL   Source = "url"
)

// DefaultSuppressionWindow is how long an equivalent prior selection from a
// consumer suppresses that consumer's reaction to a newer one.
const DefaultSuppressionWindow = 750 * time.Millisecond

// Snapshot is the coordinator state at a point in time.
type Snapshot struct {
	SelectedID string
	Source     Source
	At         time.Time
}

// Coordinator tracks the current selection and its provenance.
type Coordinator struct {
	mu     sync.Mutex
	cur    Snapshot
	prev   Snapshot
	window time.Duration
	now    func() time.Time
	onSet  func(Snapshot)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSuppressionWindow overrides the default suppression window.
func WithSuppressionWindow(d time.Duration) Option {
	return func(c *Coordinator) { c.window = d }
}

// WithNow fixes the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithOnChange registers a callback invoked after every effective change.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Coordinator) { c.onSet = fn }
}

// New creates a coordinator with no selection.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		window: DefaultSuppressionWindow,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetSelected records a selection. The timestamp only advances when the
// selection or its source actually changed, or when the source is not the
// URL: re-applying the same URL-derived selection must not retrigger
// downstream animations.
func (c *Coordinator) SetSelected(id string, src Source) {
	c.mu.Lock()
	changed := c.cur.SelectedID != id || c.cur.Source != src
	if !changed && src == SourceURL {
		c.mu.Unlock()
		return
	}
	c.prev = c.cur
	c.cur = Snapshot{SelectedID: id, Source: src, At: c.now()}
	snap := c.cur
	fn := c.onSet
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Clear resets to the no-selection state. Already-cleared coordinators do
// nothing, so no redundant notification fires.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	if c.cur == (Snapshot{}) {
		c.mu.Unlock()
		return
	}
	c.prev = c.cur
	c.cur = Snapshot{}
	snap := c.cur
	fn := c.onSet
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Current returns the active selection.
func (c *Coordinator) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// ShouldReact reports whether the given consumer surface should run its
// reaction animation for the current selection. A surface never reacts to
// its own selection, and an equivalent selection it produced itself within
// the suppression window also blocks the reaction (map hover racing a list
// click must not re-pan the map).
func (c *Coordinator) ShouldReact(consumer Source) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur.SelectedID == "" {
		return false
	}
	if c.cur.Source == consumer {
		return false
	}
	if c.prev.SelectedID == c.cur.SelectedID &&
		c.prev.Source == consumer &&
		c.cur.At.Sub(c.prev.At) < c.window {
		return false
	}
	return true
}
