package gateway

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIDDecodesNumbersAndStrings(t *testing.T) {
	cases := []struct {
		raw  string
		want ID
	}{
		{`7`, "7"},
		{`"7"`, "7"},
		{`" abc "`, "abc"},
		{`12345678901234567890`, "12345678901234567890"},
		{`null`, ""},
	}
	for _, tc := range cases {
		var id ID
		if err := json.Unmarshal([]byte(tc.raw), &id); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", tc.raw, err)
		}
		if id != tc.want {
			t.Fatalf("Unmarshal(%s) = %q, want %q", tc.raw, id, tc.want)
		}
	}
	var id ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Fatalf("Unmarshal(object) returned nil error, want error")
	}
}

func TestParseTimeLayouts(t *testing.T) {
	want := time.Date(2025, 12, 13, 10, 11, 12, 0, time.UTC)
	for _, value := range []string{
		"2025-12-13T10:11:12Z",
		"2025-12-13T19:11:12+09:00",
		"2025-12-13T10:11:12",
		"2025-12-13 10:11:12",
	} {
		got := parseTime(value)
		if !got.Equal(want) {
			t.Fatalf("parseTime(%q) = %v, want %v", value, got, want)
		}
		if got.Location() != time.UTC {
			t.Fatalf("parseTime(%q) location = %v, want UTC", value, got.Location())
		}
	}
	if !parseTime("").IsZero() || !parseTime("yesterday").IsZero() {
		t.Fatalf("parseTime should return zero for empty or invalid input")
	}
}

func TestQuestionJSONRoundTripUsesWireNames(t *testing.T) {
	q := Question{
		ID:        "5",
		Content:   "Why Go?",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("KST", 9*3600)),
		Resolved:  true,
	}
	raw, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if wire["created_at"] != "2025-01-01T18:04:05Z" {
		t.Fatalf("created_at = %v, want UTC RFC 3339", wire["created_at"])
	}
	if wire["is_resolved"] != true {
		t.Fatalf("is_resolved = %v, want true", wire["is_resolved"])
	}
}
