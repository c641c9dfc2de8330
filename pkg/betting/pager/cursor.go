// Package pager walks the contract's page-number pagination for one list,
// tracking the request lifecycle and discarding stale responses.
package pager

import (
	"context"
	"errors"
	"sync"

	"github.com/phenomenon0/betpool/pkg/betting"
)

// FirstPage is the page number that starts a list.
const FirstPage uint64 = 0

var (
	// ErrStale is returned by a load whose result was discarded because a
	// newer load or a filter change superseded it.
	ErrStale = errors.New("stale page discarded")

	// ErrUnsuccessful is returned when the contract envelope has success=false.
	ErrUnsuccessful = errors.New("contract reported unsuccessful page")
)

// State is the request lifecycle of a cursor.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FetchFunc loads one page of a list for a filter.
type FetchFunc[F comparable, T any] func(ctx context.Context, filter F, page uint64) (betting.Page[T], error)

// Observer receives cursor outcomes, typically metrics.
type Observer interface {
	PageFetched(list, outcome string)
	StaleDiscarded(list string)
	ListSize(list string, n int)
}

type nopObserver struct{}

func (nopObserver) PageFetched(string, string) {}
func (nopObserver) StaleDiscarded(string)      {}
func (nopObserver) ListSize(string, int)       {}

// Cursor is the pagination state of one list.
type Cursor[F comparable, T any] struct {
	name     string
	fetch    FetchFunc[F, T]
	key      func(T) uint64
	observer Observer

	mu      sync.Mutex
	filter  F
	page    uint64
	loaded  bool
	items   []T
	seen    map[uint64]struct{}
	hasMore bool
	state   State
	err     error
	seq     uint64
}

// New creates an idle cursor over fetch starting at filter.
func New[F comparable, T any](name string, filter F, fetch FetchFunc[F, T]) *Cursor[F, T] {
	return &Cursor[F, T]{
		name:     name,
		fetch:    fetch,
		observer: nopObserver{},
		filter:   filter,
	}
}

// DedupBy drops appended items whose key was already seen.
func (c *Cursor[F, T]) DedupBy(key func(T) uint64) *Cursor[F, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	return c
}

// ObserveWith sets the observer.
func (c *Cursor[F, T]) ObserveWith(o Observer) *Cursor[F, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o != nil {
		c.observer = o
	}
	return c
}

// Name returns the list name.
func (c *Cursor[F, T]) Name() string {
	return c.name
}

// Filter returns the current filter.
func (c *Cursor[F, T]) Filter() F {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetFilter switches the list to f. Items, page and lifecycle reset and any
// in-flight load becomes stale. Setting the current filter again is a no-op.
func (c *Cursor[F, T]) SetFilter(f F) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f == c.filter {
		return
	}
	c.filter = f
	c.resetLocked()
}

func (c *Cursor[F, T]) resetLocked() {
	c.page = FirstPage
	c.loaded = false
	c.items = nil
	c.seen = nil
	c.hasMore = false
	c.state = StateIdle
	c.err = nil
	c.seq++
}

// Refresh loads the first page and replaces the items.
func (c *Cursor[F, T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	seq, filter := c.beginLocked()
	c.mu.Unlock()

	page, err := c.fetch(ctx, filter, FirstPage)
	return c.resolve(seq, FirstPage, page, err, true)
}

// Next loads the following page and appends it. Before the first page has
// loaded it behaves like Refresh; when the contract reported no more pages
// it does nothing.
func (c *Cursor[F, T]) Next(ctx context.Context) error {
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return c.Refresh(ctx)
	}
	if !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	next := c.page + 1
	seq, filter := c.beginLocked()
	c.mu.Unlock()

	page, err := c.fetch(ctx, filter, next)
	return c.resolve(seq, next, page, err, false)
}

func (c *Cursor[F, T]) beginLocked() (uint64, F) {
	c.seq++
	c.state = StatePending
	return c.seq, c.filter
}

func (c *Cursor[F, T]) resolve(seq, pageNum uint64, page betting.Page[T], err error, replace bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.observer.StaleDiscarded(c.name)
		return ErrStale
	}

	if err == nil && !page.Success {
		err = ErrUnsuccessful
	}
	if err != nil {
		c.state = StateError
		c.err = err
		c.observer.PageFetched(c.name, "error")
		return err
	}

	if replace {
		c.items = nil
		c.seen = nil
	}
	for _, item := range page.Items {
		if c.key != nil {
			k := c.key(item)
			if _, dup := c.seen[k]; dup {
				continue
			}
			if c.seen == nil {
				c.seen = make(map[uint64]struct{})
			}
			c.seen[k] = struct{}{}
		}
		c.items = append(c.items, item)
	}

	c.page = pageNum
	c.hasMore = page.HasMore
	c.loaded = true
	c.state = StateSuccess
	c.err = nil

	c.observer.PageFetched(c.name, "ok")
	c.observer.ListSize(c.name, len(c.items))
	return nil
}

// View is a snapshot of a cursor.
type View[F comparable, T any] struct {
	Filter  F      `json:"filter"`
	Page    uint64 `json:"page"`
	Items   []T    `json:"items"`
	HasMore bool   `json:"hasMore"`
	Loaded  bool   `json:"loaded"`
	State   State  `json:"state"`
	Err     error  `json:"-"`
}

// Loading reports whether the first page is still outstanding.
func (v View[F, T]) Loading() bool {
	return !v.Loaded && v.State != StateError
}

// View returns a snapshot. Items are copied.
func (c *Cursor[F, T]) View() View[F, T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]T, len(c.items))
	copy(items, c.items)

	return View[F, T]{
		Filter:  c.filter,
		Page:    c.page,
		Items:   items,
		HasMore: c.hasMore,
		Loaded:  c.loaded,
		State:   c.state,
		Err:     c.err,
	}
}
