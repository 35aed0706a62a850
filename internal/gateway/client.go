package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lister fetches the current question list.
type Lister interface {
	ListQuestions(ctx context.Context) ([]Question, error)
}

// Creator submits a new question.
type Creator interface {
	CreateQuestion(ctx context.Context, content string) (Question, error)
}

// Resolver updates the resolved flag of a question.
type Resolver interface {
	SetResolved(ctx context.Context, id ID, resolved bool) (Question, error)
}

// Pinger probes the API health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gateway is the full remote surface consumed by the board.
type Gateway interface {
	Lister
	Creator
	Resolver
	Pinger
}

// Ensure Client implements Gateway at compile time.
var _ Gateway = (*Client)(nil)

// Client talks to the question API over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	DefaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "qaboard/0.1"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 512
)

// NewClient builds a Client for the given base URL. A bare host:port is
// treated as http.
func NewClient(baseURL string) (*Client, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized API base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// ListQuestions retrieves every question the server currently holds.
func (c *Client) ListQuestions(ctx context.Context) ([]Question, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Question
	if _, err := c.do(ctx, "list questions", http.MethodGet, "questions", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CreateQuestion submits content and returns the server-assigned record.
func (c *Client) CreateQuestion(ctx context.Context, content string) (Question, error) {
	if c == nil {
		return Question{}, fmt.Errorf("client is nil")
	}
	const op = "create question"
	var payload wireQuestion
	if _, err := c.do(ctx, op, http.MethodPost, "questions", createRequest{Content: content}, &payload); err != nil {
		return Question{}, err
	}
	if payload.ID == "" {
		return Question{}, &ServerError{Op: op, Status: http.StatusOK, Message: "response missing id"}
	}
	created := payload.question()
	if created.Content == "" {
		created.Content = content
	}
	return created, nil
}

// SetResolved sets the resolved flag of id and returns the updated record.
func (c *Client) SetResolved(ctx context.Context, id ID, resolved bool) (Question, error) {
	if c == nil {
		return Question{}, fmt.Errorf("client is nil")
	}
	const op = "set resolved"
	if strings.TrimSpace(id.String()) == "" {
		return Question{}, &ValidationError{Op: op, Message: "question id required"}
	}
	var payload wireQuestion
	status, err := c.do(ctx, op, http.MethodPatch, "questions/"+url.PathEscape(id.String()), resolveRequest{Resolved: resolved}, &payload)
	if err != nil {
		if status == http.StatusNotFound {
			return Question{}, &NotFoundError{Op: op, ID: id}
		}
		return Question{}, err
	}
	updated := payload.question()
	if updated.ID == "" {
		updated.ID = id
		updated.Resolved = resolved
	}
	return updated, nil
}

// Ping succeeds when the health endpoint answers with a success status.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	_, err := c.do(ctx, "health", http.MethodGet, "health", nil, nil)
	return err
}

// do executes one request. It returns the response status (zero when no
// response arrived) alongside the classified error.
func (c *Client) do(ctx context.Context, op, method, path string, body, dest any) (int, error) {
	requestID := uuid.NewString()
	reqURL := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &NetworkError{Op: op, RequestID: requestID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := readErrorMessage(resp.Body)
		rejected := resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity
		if rejected && method != http.MethodGet {
			return resp.StatusCode, &ValidationError{Op: op, Status: resp.StatusCode, Message: message}
		}
		return resp.StatusCode, &ServerError{Op: op, RequestID: requestID, Status: resp.StatusCode, Message: message}
	}
	if dest == nil {
		return resp.StatusCode, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &NetworkError{Op: op, RequestID: requestID, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return resp.StatusCode, &NetworkError{Op: op, RequestID: requestID, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

// readErrorMessage extracts a short human message from an error body. JSON
// bodies with "detail", "error" or "message" are preferred over raw text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if v, ok := payload[key]; ok {
				if s, ok := v.(string); ok {
					return strings.TrimSpace(s)
				}
				if encoded, err := json.Marshal(v); err == nil {
					return string(encoded)
				}
			}
		}
	}
	return strings.TrimSpace(string(raw))
}

// ParseBaseURL normalizes an API base URL. Query and fragment are dropped and
// any trailing slash is trimmed so relative paths join cleanly.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// IsUnavailable reports whether err means the API could not be reached at all.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNetwork)
}
