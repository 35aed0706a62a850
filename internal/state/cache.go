package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/five82/qaboard/internal/gateway"
)

// Status is the three-state load status of a cache.
type Status int

const (
	// StatusLoading means no fetch has succeeded or failed yet.
	StatusLoading Status = iota
	// StatusError means the most recent fetch failed.
	StatusError
	// StatusReady means data from a successful fetch is present.
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot represents the latest data available to the view.
type Snapshot struct {
	Key                 string
	Status              Status
	Questions           []gateway.Question
	HasData             bool
	Fetching            bool
	Stale               bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple fetches.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Cache owns the authoritative copy of one remote list. Writers never touch
// it directly: they call Invalidate and the cache refetches.
type Cache struct {
	key    string
	lister gateway.Lister
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu       sync.Mutex
	snapshot   Snapshot
	dirty      bool // an invalidation is not yet covered by a load
	refreshing bool // a refresh goroutine is running
	changes    chan struct{}
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the clock used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache builds a cache for key backed by lister. ctx bounds the lifetime
// of the cache and of every fetch it issues.
func NewCache(ctx context.Context, key string, lister gateway.Lister, opts ...Option) *Cache {
	if ctx == nil {
		ctx = context.Background()
	}
	lifetime, cancel := context.WithCancel(ctx)
	c := &Cache{
		key:     key,
		lister:  lister,
		now:     time.Now,
		ctx:     lifetime,
		cancel:  cancel,
		changes: make(chan struct{}, 1),
	}
	c.snapshot.Key = key
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key.
func (c *Cache) Key() string {
	return c.key
}

// Fetch loads the list, joining a fetch already in flight instead of issuing
// a second request. ctx only bounds how long the caller waits.
func (c *Cache) Fetch(ctx context.Context) (Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := c.group.DoChan(c.key, c.load)
	select {
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	case res := <-ch:
		snap, _ := res.Val.(Snapshot)
		return snap, res.Err
	}
}

// Invalidate marks the data stale and schedules a refetch without blocking.
// Invalidations that arrive while a fetch is in flight collapse into a single
// follow-up fetch once it settles.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.snapshot.Stale = true
	c.dirty = true
	start := !c.refreshing
	c.refreshing = true
	c.mu.Unlock()
	c.notify()

	if start {
		go c.refresh()
	}
}

// refresh fetches until no invalidation is outstanding. A Fetch that joins a
// load which already checked dirty leaves dirty set, so the loop goes again.
func (c *Cache) refresh() {
	for {
		c.mu.Lock()
		if !c.dirty || c.ctx.Err() != nil {
			c.refreshing = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		_, _ = c.Fetch(c.ctx)
	}
}

// Snapshot returns a copy of the current state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.snapshot
	snap.Questions = cloneQuestions(c.snapshot.Questions)
	if c.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", c.snapshot.LastError)
	}
	return snap
}

// Changes signals after every state transition. The channel holds at most
// one pending signal; readers re-read Snapshot on receipt.
func (c *Cache) Changes() <-chan struct{} {
	return c.changes
}

// Close ends the cache lifetime. Fetches still in flight complete but their
// results are dropped.
func (c *Cache) Close() {
	c.cancel()
}

func (c *Cache) load() (any, error) {
	var err error
	for {
		c.mu.Lock()
		if c.ctx.Err() != nil {
			c.snapshot.Fetching = false
			c.mu.Unlock()
			return c.Snapshot(), c.ctx.Err()
		}
		c.dirty = false
		c.snapshot.Fetching = true
		c.mu.Unlock()
		c.notify()

		var questions []gateway.Question
		questions, err = c.lister.ListQuestions(c.ctx)

		c.mu.Lock()
		if c.ctx.Err() != nil {
			c.snapshot.Fetching = false
			c.mu.Unlock()
			return c.Snapshot(), c.ctx.Err()
		}
		c.applyLocked(questions, err)
		again := c.dirty
		if !again {
			c.snapshot.Fetching = false
		}
		c.mu.Unlock()
		c.notify()

		if !again {
			break
		}
	}
	return c.Snapshot(), err
}

// applyLocked records a fetch outcome. On error the previous questions are
// kept but the status reports the failure.
func (c *Cache) applyLocked(questions []gateway.Question, err error) {
	c.snapshot.LastUpdated = c.now()
	if err != nil {
		c.snapshot.LastError = err
		c.snapshot.Status = StatusError
		c.snapshot.ConsecutiveFailures++
		return
	}
	c.snapshot.Questions = cloneQuestions(questions)
	c.snapshot.HasData = true
	c.snapshot.Status = StatusReady
	c.snapshot.Stale = false
	c.snapshot.LastError = nil
	c.snapshot.ConsecutiveFailures = 0
}

func (c *Cache) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func cloneQuestions(items []gateway.Question) []gateway.Question {
	if len(items) == 0 {
		return nil
	}
	dup := make([]gateway.Question, len(items))
	copy(dup, items)
	return dup
}
