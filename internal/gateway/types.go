package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// naiveTimestampLayouts cover servers that serialize UTC datetimes without a zone.
var naiveTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ID is an opaque question identifier. The server may send it as a JSON
// number or string; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts numeric and string identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as used in URLs and view models.
func (id ID) String() string {
	return string(id)
}

// Question mirrors one record of GET /questions.
type Question struct {
	ID        ID
	Content   string
	CreatedAt time.Time
	Resolved  bool
}

type wireQuestion struct {
	ID        ID     `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Resolved  bool   `json:"is_resolved"`
	Message   string `json:"message,omitempty"`
}

func (w wireQuestion) question() Question {
	return Question{
		ID:        w.ID,
		Content:   w.Content,
		CreatedAt: parseTime(w.CreatedAt),
		Resolved:  w.Resolved,
	}
}

// MarshalJSON renders the record in the wire format with an RFC 3339 UTC timestamp.
func (q Question) MarshalJSON() ([]byte, error) {
	created := ""
	if !q.CreatedAt.IsZero() {
		created = q.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(wireQuestion{
		ID:        q.ID,
		Content:   q.Content,
		CreatedAt: created,
		Resolved:  q.Resolved,
	})
}

// UnmarshalJSON decodes the wire format, treating zone-less timestamps as UTC.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*q = w.question()
	return nil
}

type createRequest struct {
	Content string `json:"content"`
}

type resolveRequest struct {
	Resolved bool `json:"is_resolved"`
}

// parseTime returns the zero time for empty or unrecognized values.
func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	for _, layout := range naiveTimestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
