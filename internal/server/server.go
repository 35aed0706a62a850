package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/five82/qaboard/internal/gateway"
	"github.com/five82/qaboard/internal/store"
)

const (
	maxBodyBytes = 64 * 1024
	presenceIdle = 60 * time.Second
)

// Questions is the persistence the server needs.
type Questions interface {
	List(ctx context.Context) ([]gateway.Question, error)
	Create(ctx context.Context, content string) (gateway.Question, error)
	SetResolved(ctx context.Context, id int64, resolved bool) (gateway.Question, error)
	Prune(ctx context.Context, cutoff time.Time) ([]gateway.Question, error)
}

// Archiver receives pruned questions.
type Archiver interface {
	Write(questions []gateway.Question) error
}

// Server is the reference question API.
type Server struct {
	questions Questions
	archive   Archiver
	loc       *time.Location
	log       *log.Logger
	now       func() time.Time
	schemas   *schemas

	upgrader websocket.Upgrader
	present  atomic.Int64
}

// New wires a server around questions. archive may be nil.
func New(questions Questions, archive Archiver, loc *time.Location, logger *log.Logger) *Server {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		questions: questions,
		archive:   archive,
		loc:       loc,
		log:       logger,
		now:       time.Now,
		schemas:   mustCompileSchemas(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed API with CORS headers.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/questions", s.listQuestions).Methods(http.MethodGet)
	r.HandleFunc("/questions", s.createQuestion).Methods(http.MethodPost)
	r.HandleFunc("/questions/{id}", s.setResolved).Methods(http.MethodPatch)
	r.HandleFunc("/presence", s.presence).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return withCORS(r)
}

// withCORS lets browser boards on other origins talk to the API.
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if r.URL.Path == "/presence" {
			return
		}
		s.log.Printf("%s %s %d %s id=%s", r.Method, r.URL.Path, rec.status,
			time.Since(start).Round(time.Millisecond), r.Header.Get("X-Request-Id"))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps the presence upgrade working through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"presence": s.present.Load(),
	})
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	s.pruneStale(r.Context())
	questions, err := s.questions.List(r.Context())
	if err != nil {
		s.log.Printf("list questions: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list questions")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decode(w, r, s.schemas.create)
	if !ok {
		return
	}
	content := strings.TrimSpace(payload["content"].(string))

	s.pruneStale(r.Context())
	q, err := s.questions.Create(r.Context(), content)
	if err != nil {
		s.log.Printf("create question: %v", err)
		writeError(w, http.StatusInternalServerError, "could not create question")
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) setResolved(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	payload, ok := s.decode(w, r, s.schemas.resolve)
	if !ok {
		return
	}
	resolved := payload["is_resolved"].(bool)

	q, err := s.questions.SetResolved(r.Context(), id, resolved)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		s.log.Printf("set resolved %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "could not update question")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// decode reads a JSON object and validates it against schema, answering 422
// on any mismatch.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema validator) (map[string]any, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return nil, false
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "body must be JSON")
		return nil, false
	}
	if err := schema.Validate(doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return nil, false
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "body must be an object")
		return nil, false
	}
	return obj, true
}

// presence answers client pings so boards can tell the server is reachable.
func (s *Server) presence(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.present.Add(1)
	defer s.present.Add(-1)

	_ = conn.SetReadDeadline(time.Now().Add(presenceIdle))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(presenceIdle))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// pruneStale drops questions from before the current local day.
func (s *Server) pruneStale(ctx context.Context) {
	if err := s.Prune(ctx); err != nil {
		s.log.Printf("prune: %v", err)
	}
}

// Prune removes questions created before today's local midnight and hands
// them to the archive.
func (s *Server) Prune(ctx context.Context) error {
	cutoff := store.StartOfDay(s.now(), s.loc)
	pruned, err := s.questions.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(pruned) == 0 {
		return nil
	}
	s.log.Printf("pruned %d questions created before %s", len(pruned), cutoff.Format(time.RFC3339))
	if s.archive != nil {
		if err := s.archive.Write(pruned); err != nil {
			return fmt.Errorf("archive pruned questions: %w", err)
		}
	}
	return nil
}

// RunPruner prunes at every local midnight until ctx is cancelled.
func (s *Server) RunPruner(ctx context.Context) {
	for {
		wait := store.NextMidnight(s.now(), s.loc).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := s.Prune(ctx); err != nil {
			s.log.Printf("midnight prune: %v", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}
