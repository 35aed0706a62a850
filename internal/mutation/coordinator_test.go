package mutation

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/qaboard/internal/gateway"
	"github.com/five82/qaboard/internal/state"
)

type resolveCall struct {
	id       gateway.ID
	resolved bool
}

type fakeGateway struct {
	mu            sync.Mutex
	created       []string
	resolves      []resolveCall
	createErr     error
	resolveErr    error
	createGate    chan struct{}
	resolveGate   chan struct{}
	createEntered chan struct{}
}

func (f *fakeGateway) CreateQuestion(ctx context.Context, content string) (gateway.Question, error) {
	if f.createEntered != nil {
		f.createEntered <- struct{}{}
	}
	if f.createGate != nil {
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, content)
	if f.createErr != nil {
		return gateway.Question{}, f.createErr
	}
	return gateway.Question{ID: "1", Content: content}, nil
}

func (f *fakeGateway) SetResolved(ctx context.Context, id gateway.ID, resolved bool) (gateway.Question, error) {
	if f.resolveGate != nil {
		<-f.resolveGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolves = append(f.resolves, resolveCall{id: id, resolved: resolved})
	if f.resolveErr != nil {
		return gateway.Question{}, f.resolveErr
	}
	return gateway.Question{ID: id, Resolved: resolved}, nil
}

type countingCache struct {
	n atomic.Int32
}

func (c *countingCache) Invalidate() { c.n.Add(1) }

func TestCreate_EmptyInputNeverCallsGateway(t *testing.T) {
	gw := &fakeGateway{}
	cache := &countingCache{}
	c := New(gw, cache)

	for _, input := range []string{"", " ", "\t\n", "   \r\n  "} {
		_, err := c.Create(context.Background(), input)
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("Create(%q) error = %v, want ErrEmptyInput", input, err)
		}
		var empty *EmptyInputError
		if !errors.As(err, &empty) {
			t.Fatalf("Create(%q) error type = %T, want *EmptyInputError", input, err)
		}
	}
	if len(gw.created) != 0 {
		t.Fatalf("gateway called %d times, want 0", len(gw.created))
	}
	if cache.n.Load() != 0 {
		t.Fatalf("cache invalidated %d times, want 0", cache.n.Load())
	}
}

func TestCreate_SuccessInvalidatesOnceAndTrims(t *testing.T) {
	gw := &fakeGateway{}
	cache := &countingCache{}
	c := New(gw, cache)

	if c.Pending(KindCreate) {
		t.Fatalf("Pending(create) = true before the call")
	}
	q, err := c.Create(context.Background(), "  What is caching?  ")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(gw.created) != 1 || gw.created[0] != "What is caching?" {
		t.Fatalf("gateway payloads = %q, want [What is caching?]", gw.created)
	}
	if q.Content != "What is caching?" {
		t.Fatalf("created content = %q", q.Content)
	}
	if got := cache.n.Load(); got != 1 {
		t.Fatalf("invalidations = %d, want 1", got)
	}
	if c.Pending(KindCreate) {
		t.Fatalf("Pending(create) = true after settlement")
	}
}

func TestCreate_FailureSurfacesErrorWithoutInvalidation(t *testing.T) {
	serverErr := &gateway.ServerError{Op: "create question", Status: 500}
	gw := &fakeGateway{createErr: serverErr}
	cache := &countingCache{}
	c := New(gw, cache)

	_, err := c.Create(context.Background(), "hello")
	if !errors.Is(err, gateway.ErrServer) {
		t.Fatalf("Create error = %v, want server error", err)
	}
	if cache.n.Load() != 0 {
		t.Fatalf("cache invalidated on failure")
	}
	if c.Pending(KindCreate) {
		t.Fatalf("Pending(create) = true after failure")
	}
}

func TestCreate_RejectsOverlapOfSameKind(t *testing.T) {
	gw := &fakeGateway{createGate: make(chan struct{}), createEntered: make(chan struct{}, 1)}
	c := New(gw, &countingCache{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Create(context.Background(), "first")
		done <- err
	}()
	<-gw.createEntered

	if !c.Pending(KindCreate) {
		t.Fatalf("Pending(create) = false while in flight")
	}
	if c.Pending(KindToggle) {
		t.Fatalf("Pending(toggle) = true while only create is in flight")
	}
	if _, err := c.Create(context.Background(), "second"); !errors.Is(err, ErrPending) {
		t.Fatalf("overlapping Create error = %v, want ErrPending", err)
	}

	// A toggle is a different kind and is allowed to run meanwhile.
	if _, err := c.ToggleResolved(context.Background(), "3", false); err != nil {
		t.Fatalf("ToggleResolved during create returned error: %v", err)
	}

	close(gw.createGate)
	if err := <-done; err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	if len(gw.created) != 1 {
		t.Fatalf("gateway creates = %d, want 1", len(gw.created))
	}
}

func TestToggleResolved_SendsNegation(t *testing.T) {
	cases := []struct {
		current bool
		want    bool
	}{
		{current: false, want: true},
		{current: true, want: false},
	}
	for _, tc := range cases {
		gw := &fakeGateway{}
		cache := &countingCache{}
		c := New(gw, cache)

		if _, err := c.ToggleResolved(context.Background(), "7", tc.current); err != nil {
			t.Fatalf("ToggleResolved returned error: %v", err)
		}
		if len(gw.resolves) != 1 {
			t.Fatalf("SetResolved calls = %d, want 1", len(gw.resolves))
		}
		got := gw.resolves[0]
		if got.id != "7" || got.resolved != tc.want {
			t.Fatalf("SetResolved(%q, %v), want (7, %v)", got.id, got.resolved, tc.want)
		}
		if cache.n.Load() != 1 {
			t.Fatalf("invalidations = %d, want 1", cache.n.Load())
		}
	}
}

func TestToggleResolved_FailureLeavesCacheAlone(t *testing.T) {
	gw := &fakeGateway{resolveErr: &gateway.NotFoundError{Op: "set resolved", ID: "9"}}
	cache := &countingCache{}
	c := New(gw, cache)

	_, err := c.ToggleResolved(context.Background(), "9", false)
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("ToggleResolved error = %v, want not found", err)
	}
	if cache.n.Load() != 0 {
		t.Fatalf("cache invalidated on failure")
	}
	if c.Pending(KindToggle) {
		t.Fatalf("Pending(toggle) = true after failure")
	}
}

func TestPendingChangesSignal(t *testing.T) {
	c := New(&fakeGateway{}, &countingCache{})
	if _, err := c.Create(context.Background(), "x"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	select {
	case <-c.Changes():
	case <-time.After(time.Second):
		t.Fatalf("expected a change signal")
	}
	if c.Pending(Kind(42)) {
		t.Fatalf("Pending(unknown kind) = true")
	}
}

// listGateway keeps an in-memory list so a real cache can observe mutations.
type listGateway struct {
	mu        sync.Mutex
	questions []gateway.Question
}

func (g *listGateway) ListQuestions(context.Context) ([]gateway.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.Question(nil), g.questions...), nil
}

func (g *listGateway) CreateQuestion(_ context.Context, content string) (gateway.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	q := gateway.Question{ID: gateway.ID(strconv.Itoa(len(g.questions) + 1)), Content: content}
	g.questions = append(g.questions, q)
	return q, nil
}

func (g *listGateway) SetResolved(_ context.Context, id gateway.ID, resolved bool) (gateway.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.questions {
		if g.questions[i].ID == id {
			g.questions[i].Resolved = resolved
			return g.questions[i], nil
		}
	}
	return gateway.Question{}, &gateway.NotFoundError{Op: "set resolved", ID: id}
}

func TestToggleResolved_BackToBackReachCache(t *testing.T) {
	gw := &listGateway{questions: []gateway.Question{{ID: "1", Content: "a"}, {ID: "2", Content: "b"}}}
	cache := state.NewCache(context.Background(), "questions", gw)
	t.Cleanup(cache.Close)
	if _, err := cache.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	c := New(gw, cache)

	if _, err := c.ToggleResolved(context.Background(), "1", false); err != nil {
		t.Fatalf("first toggle returned error: %v", err)
	}
	if _, err := c.ToggleResolved(context.Background(), "2", false); err != nil {
		t.Fatalf("second toggle returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := cache.Snapshot()
		done := !snap.Fetching && !snap.Stale && len(snap.Questions) == 2
		for _, q := range snap.Questions {
			done = done && q.Resolved
		}
		if done {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache never reflected both toggles: %+v", snap.Questions)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
