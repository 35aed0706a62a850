// Package mutation runs create and resolve operations against the gateway and
// tracks which kinds are in flight.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/qaboard/internal/gateway"
)

// Kind identifies an independently tracked mutation.
type Kind int

const (
	KindCreate Kind = iota
	KindToggle
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindToggle:
		return "toggle-resolved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrEmptyInput matches EmptyInputError.
	ErrEmptyInput = errors.New("question is empty")
	// ErrPending is returned when a mutation of the same kind is still running.
	ErrPending = errors.New("mutation already pending")
)

// EmptyInputError is the local pre-flight failure for blank questions. It
// never reaches the network.
type EmptyInputError struct{}

func (*EmptyInputError) Error() string { return ErrEmptyInput.Error() }

func (*EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

// Invalidator is the cache surface mutations notify on success.
type Invalidator interface {
	Invalidate()
}

// Gateway is the remote surface the coordinator writes through.
type Gateway interface {
	gateway.Creator
	gateway.Resolver
}

// Coordinator executes mutations and invalidates the cache on success. It
// never writes to the cache directly.
type Coordinator struct {
	gw    Gateway
	cache Invalidator

	mu      sync.Mutex
	pending [kindCount]bool
	changes chan struct{}
}

// New builds a Coordinator.
func New(gw Gateway, cache Invalidator) *Coordinator {
	return &Coordinator{
		gw:      gw,
		cache:   cache,
		changes: make(chan struct{}, 1),
	}
}

// Create trims text and submits it. Blank input fails with EmptyInputError
// before any network call.
func (c *Coordinator) Create(ctx context.Context, text string) (gateway.Question, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return gateway.Question{}, &EmptyInputError{}
	}
	if err := c.begin(KindCreate); err != nil {
		return gateway.Question{}, err
	}
	defer c.end(KindCreate)

	created, err := c.gw.CreateQuestion(ctx, content)
	if err != nil {
		return gateway.Question{}, err
	}
	c.cache.Invalidate()
	return created, nil
}

// ToggleResolved requests the negation of current for id. On failure the
// cache is left exactly as last fetched.
func (c *Coordinator) ToggleResolved(ctx context.Context, id gateway.ID, current bool) (gateway.Question, error) {
	if err := c.begin(KindToggle); err != nil {
		return gateway.Question{}, err
	}
	defer c.end(KindToggle)

	updated, err := c.gw.SetResolved(ctx, id, !current)
	if err != nil {
		return gateway.Question{}, err
	}
	c.cache.Invalidate()
	return updated, nil
}

// Pending reports whether a mutation of kind is in flight.
func (c *Coordinator) Pending(kind Kind) bool {
	if kind < 0 || kind >= kindCount {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[kind]
}

// Changes signals whenever a pending flag flips. At most one signal is buffered.
func (c *Coordinator) Changes() <-chan struct{} {
	return c.changes
}

func (c *Coordinator) begin(kind Kind) error {
	c.mu.Lock()
	if c.pending[kind] {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", kind, ErrPending)
	}
	c.pending[kind] = true
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Coordinator) end(kind Kind) {
	c.mu.Lock()
	c.pending[kind] = false
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
