package health

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/qaboard/internal/gateway"
)

// Sampler draws one health sample.
type Sampler interface {
	Sample(ctx context.Context) bool
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context) bool

// Sample calls f.
func (f SamplerFunc) Sample(ctx context.Context) bool { return f(ctx) }

// Strategy names selectable from configuration.
const (
	StrategySimulated = "simulated"
	StrategyHTTP      = "http"
	StrategyPresence  = "presence"
)

// RandomSampler is the simulated heartbeat: healthy with probability
// 1-FailureRate, with no relation to actual reachability.
type RandomSampler struct {
	FailureRate float64
	Float64     func() float64
}

// NewRandomSampler reports disconnected roughly one sample in ten.
func NewRandomSampler() *RandomSampler {
	return &RandomSampler{FailureRate: 0.1, Float64: rand.Float64}
}

// Sample draws a pseudo-random sample.
func (r *RandomSampler) Sample(context.Context) bool {
	draw := r.Float64
	if draw == nil {
		draw = rand.Float64
	}
	return draw() > r.FailureRate
}

// HTTPSampler is healthy when the API health endpoint answers.
type HTTPSampler struct {
	Pinger  gateway.Pinger
	Timeout time.Duration
}

// Sample pings the API.
func (h *HTTPSampler) Sample(ctx context.Context) bool {
	if h.Pinger == nil {
		return false
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.Pinger.Ping(ctx) == nil
}

// PresenceSampler keeps a WebSocket open to the presence endpoint and is
// healthy when a ping is answered in time. A failed sample drops the
// connection; the next sample redials.
type PresenceSampler struct {
	URL     string
	Timeout time.Duration
	Dialer  *websocket.Dialer

	seq   atomic.Uint64
	mu    sync.Mutex
	conn  *websocket.Conn
	pongs chan string
}

// NewPresenceSampler targets the presence endpoint next to the API base URL.
func NewPresenceSampler(apiBase *url.URL) (*PresenceSampler, error) {
	target, err := PresenceURL(apiBase)
	if err != nil {
		return nil, err
	}
	return &PresenceSampler{URL: target, Timeout: 2 * time.Second}, nil
}

// Sample sends one ping and waits for its pong.
func (p *PresenceSampler) Sample(ctx context.Context) bool {
	conn, pongs, err := p.connection(ctx)
	if err != nil {
		return false
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	token := strconv.FormatUint(p.seq.Add(1), 10)
	if err := conn.WriteControl(websocket.PingMessage, []byte(token), time.Now().Add(timeout)); err != nil {
		p.drop(conn)
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case got, ok := <-pongs:
			if !ok {
				p.drop(conn)
				return false
			}
			if got == token {
				return true
			}
		case <-timer.C:
			p.drop(conn)
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// Close drops the presence connection.
func (p *PresenceSampler) Close() error {
	p.mu.Lock()
	conn := p.conn
	p.conn, p.pongs = nil, nil
	p.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (p *PresenceSampler) connection(ctx context.Context) (*websocket.Conn, chan string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return p.conn, p.pongs, nil
	}

	dialer := p.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, p.URL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial presence: %w", err)
	}
	pongs := make(chan string, 4)
	conn.SetPongHandler(func(data string) error {
		select {
		case pongs <- data:
		default:
		}
		return nil
	})
	// Control frames are only processed while reading.
	go func() {
		defer close(pongs)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	p.conn, p.pongs = conn, pongs
	return conn, pongs, nil
}

func (p *PresenceSampler) drop(conn *websocket.Conn) {
	p.mu.Lock()
	if p.conn == conn {
		p.conn, p.pongs = nil, nil
	}
	p.mu.Unlock()
	_ = conn.Close()
}

// PresenceURL maps an API base URL onto its presence socket URL.
func PresenceURL(apiBase *url.URL) (string, error) {
	if apiBase == nil {
		return "", fmt.Errorf("presence url: api base is nil")
	}
	u := *apiBase
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("presence url: unsupported scheme %q", u.Scheme)
	}
	return u.JoinPath("presence").String(), nil
}

// NewSampler builds the sampler named by strategy.
func NewSampler(strategy string, client *gateway.Client) (Sampler, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategySimulated:
		return NewRandomSampler(), nil
	case StrategyHTTP:
		if client == nil {
			return nil, fmt.Errorf("http health strategy requires a gateway client")
		}
		return &HTTPSampler{Pinger: client}, nil
	case StrategyPresence:
		if client == nil {
			return nil, fmt.Errorf("presence health strategy requires a gateway client")
		}
		return NewPresenceSampler(client.BaseURL())
	default:
		return nil, fmt.Errorf("unknown health strategy %q", strategy)
	}
}
