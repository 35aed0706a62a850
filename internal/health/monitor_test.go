package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestRandomSampler(t *testing.T) {
	tests := []struct {
		name string
		draw float64
		want bool
	}{
		{name: "above threshold", draw: 0.5, want: true},
		{name: "at threshold", draw: 0.1, want: false},
		{name: "below threshold", draw: 0.05, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &RandomSampler{FailureRate: 0.1, Float64: func() float64 { return tt.draw }}
			if got := s.Sample(context.Background()); got != tt.want {
				t.Fatalf("Sample() = %v, want %v", got, tt.want)
			}
		})
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHTTPSampler(t *testing.T) {
	ok := &HTTPSampler{Pinger: pingerFunc(func(context.Context) error { return nil })}
	if !ok.Sample(context.Background()) {
		t.Fatalf("expected healthy sample")
	}
	bad := &HTTPSampler{Pinger: pingerFunc(func(context.Context) error { return errors.New("down") })}
	if bad.Sample(context.Background()) {
		t.Fatalf("expected unhealthy sample")
	}
	if (&HTTPSampler{}).Sample(context.Background()) {
		t.Fatalf("nil pinger should be unhealthy")
	}
}

func TestMonitorPublishesEachTick(t *testing.T) {
	var healthy atomic.Bool
	var samples atomic.Int32
	sampler := SamplerFunc(func(context.Context) bool {
		samples.Add(1)
		return healthy.Load()
	})

	m := NewMonitor(sampler, 10*time.Millisecond)
	if !m.Connected() {
		t.Fatalf("new monitor should start connected")
	}
	m.Start(context.Background())
	defer m.Stop()

	waitUntil(t, func() bool { return !m.Connected() })
	healthy.Store(true)
	waitUntil(t, func() bool { return m.Connected() })
	if samples.Load() < 2 {
		t.Fatalf("samples = %d, want at least 2", samples.Load())
	}
}

func TestMonitorStartResetsToConnected(t *testing.T) {
	m := NewMonitor(SamplerFunc(func(context.Context) bool { return false }), 10*time.Millisecond)
	m.Start(context.Background())
	waitUntil(t, func() bool { return !m.Connected() })
	m.Stop()

	m2 := m
	m2.sampler = SamplerFunc(func(context.Context) bool { return true })
	m2.interval = time.Hour
	m2.Start(context.Background())
	defer m2.Stop()
	if !m2.Connected() {
		t.Fatalf("Start should reset status to connected")
	}
}

func TestMonitorStopHaltsSampling(t *testing.T) {
	var samples atomic.Int32
	m := NewMonitor(SamplerFunc(func(context.Context) bool {
		samples.Add(1)
		return true
	}), 5*time.Millisecond)
	m.Start(context.Background())
	waitUntil(t, func() bool { return samples.Load() > 0 })
	m.Stop()

	after := samples.Load()
	time.Sleep(30 * time.Millisecond)
	if got := samples.Load(); got != after {
		t.Fatalf("samples grew after Stop: %d -> %d", after, got)
	}
	m.Stop()
}

func TestNewMonitorDefaults(t *testing.T) {
	m := NewMonitor(nil, 0)
	if m.interval != DefaultInterval {
		t.Fatalf("interval = %v, want %v", m.interval, DefaultInterval)
	}
	if _, ok := m.sampler.(*RandomSampler); !ok {
		t.Fatalf("sampler = %T, want *RandomSampler", m.sampler)
	}
}

func TestPresenceURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "http://localhost:8000", want: "ws://localhost:8000/presence"},
		{base: "https://qa.example.com/api", want: "wss://qa.example.com/api/presence"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.base)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.base, err)
		}
		got, err := PresenceURL(u)
		if err != nil {
			t.Fatalf("PresenceURL(%q) error: %v", tt.base, err)
		}
		if got != tt.want {
			t.Fatalf("PresenceURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
	if _, err := PresenceURL(&url.URL{Scheme: "ftp", Host: "x"}); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}

func TestPresenceSampler(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	s, err := NewPresenceSampler(base)
	if err != nil {
		t.Fatalf("NewPresenceSampler: %v", err)
	}
	defer s.Close()

	for i := 0; i < 2; i++ {
		if !s.Sample(context.Background()) {
			t.Fatalf("sample %d unhealthy, want healthy", i)
		}
	}
}

func TestPresenceSamplerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base, _ := url.Parse(srv.URL)
	srv.Close()

	s, err := NewPresenceSampler(base)
	if err != nil {
		t.Fatalf("NewPresenceSampler: %v", err)
	}
	s.Timeout = 200 * time.Millisecond
	if s.Sample(context.Background()) {
		t.Fatalf("expected unhealthy sample for closed server")
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
