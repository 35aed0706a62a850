package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/qaboard/internal/gateway"
	"github.com/five82/qaboard/internal/health"
	"github.com/five82/qaboard/internal/store"
)

type memArchive struct {
	mu  sync.Mutex
	got []gateway.Question
}

func (a *memArchive) Write(qs []gateway.Question) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got = append(a.got, qs...)
	return nil
}

func newTestServer(t *testing.T) (*Server, *store.Store, *httptest.Server) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "q.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	srv := New(st, nil, time.UTC, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, st, ts
}

func newClient(t *testing.T, base string) *gateway.Client {
	t.Helper()
	c, err := gateway.NewClient(base)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestRoundTripThroughGatewayClient(t *testing.T) {
	_, _, ts := newTestServer(t)
	client := newClient(t, ts.URL)
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	first, err := client.CreateQuestion(ctx, "first?")
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("created = %+v, want id and timestamp", first)
	}
	if _, err := client.CreateQuestion(ctx, "second?"); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	updated, err := client.SetResolved(ctx, first.ID, true)
	if err != nil {
		t.Fatalf("SetResolved: %v", err)
	}
	if !updated.Resolved {
		t.Fatalf("SetResolved returned unresolved record")
	}

	list, err := client.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListQuestions len = %d, want 2", len(list))
	}
	if list[0].Content != "second?" || list[1].Content != "first?" || !list[1].Resolved {
		t.Fatalf("ListQuestions = %+v", list)
	}
}

func TestCreateRejectsInvalidPayloads(t *testing.T) {
	_, _, ts := newTestServer(t)

	bodies := []string{
		`{"content":""}`,
		`{"content":"   "}`,
		`{"content":42}`,
		`{}`,
		`[]`,
		`not json`,
	}
	for _, body := range bodies {
		resp, err := http.Post(ts.URL+"/questions", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", body, err)
		}
		var detail map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("POST %s status = %d, want 422", body, resp.StatusCode)
		}
		if detail["detail"] == "" {
			t.Fatalf("POST %s returned no detail", body)
		}
	}
}

func TestCreateThroughClientMapsValidationError(t *testing.T) {
	_, _, ts := newTestServer(t)
	_, err := newClient(t, ts.URL).CreateQuestion(context.Background(), " ")
	var ve *gateway.ValidationError
	if err == nil || !errors.As(err, &ve) {
		t.Fatalf("CreateQuestion(blank) error = %v, want ValidationError", err)
	}
}

func TestPatchUnknownIDIsNotFound(t *testing.T) {
	_, _, ts := newTestServer(t)
	client := newClient(t, ts.URL)

	for _, id := range []gateway.ID{"999", "abc"} {
		_, err := client.SetResolved(context.Background(), id, true)
		var nf *gateway.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("SetResolved(%s) error = %v, want NotFoundError", id, err)
		}
	}
}

func TestPatchRejectsNonBoolean(t *testing.T) {
	_, st, ts := newTestServer(t)
	q, err := st.Create(context.Background(), "x")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/questions/"+q.ID.String(), bytes.NewBufferString(`{"is_resolved":"yes"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("PATCH status = %d, want 422", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, _, ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/questions", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("OPTIONS status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("Allow-Methods missing PATCH")
	}
}

func TestPruneArchivesYesterday(t *testing.T) {
	// Created 23:50 KST, listed at 00:10 KST the next day.
	created := time.Date(2024, 3, 1, 14, 50, 0, 0, time.UTC)
	st, err := store.Open(filepath.Join(t.TempDir(), "q.db"), store.WithClock(func() time.Time { return created }))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	kst := time.FixedZone("KST", 9*60*60)
	archive := &memArchive{}
	srv := New(st, archive, kst, nil)

	if _, err := st.Create(ctx, "late question"); err != nil {
		t.Fatalf("create: %v", err)
	}
	srv.now = func() time.Time { return created.Add(20 * time.Minute) }

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	list, err := newClient(t, ts.URL).ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("ListQuestions = %d questions, want yesterday's pruned", len(list))
	}
	if len(archive.got) != 1 || archive.got[0].Content != "late question" {
		t.Fatalf("archived = %+v", archive.got)
	}
}

func TestPresenceAnswersPings(t *testing.T) {
	_, _, ts := newTestServer(t)
	base, _ := url.Parse(ts.URL)

	sampler, err := health.NewPresenceSampler(base)
	if err != nil {
		t.Fatalf("NewPresenceSampler: %v", err)
	}
	defer sampler.Close()
	if !sampler.Sample(context.Background()) {
		t.Fatalf("presence sample unhealthy, want healthy")
	}

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Status   string `json:"status"`
		Presence int    `json:"presence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" || body.Presence != 1 {
		t.Fatalf("health = %+v, want ok with one presence socket", body)
	}
}

func TestLoadConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\"): %v", err)
	}
	if cfg.Addr != ":8000" || !cfg.ResetOnStart || cfg.Timezone != "Asia/Seoul" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if !strings.HasPrefix(cfg.DBPath, home) {
		t.Fatalf("DBPath = %q, want under HOME", cfg.DBPath)
	}

	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("addr: \"127.0.0.1:9000\"\nreset_on_start: false\ntimezone: UTC\narchive_dir: ~/archive\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.ResetOnStart || cfg.Timezone != "UTC" {
		t.Fatalf("parsed = %+v", cfg)
	}
	if cfg.ArchiveDir != filepath.Join(home, "archive") {
		t.Fatalf("ArchiveDir = %q", cfg.ArchiveDir)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("timezone: Mars/Olympus\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Fatalf("LoadConfig(bad timezone) returned nil error")
	}
}
