package feed

import (
	"reflect"
	"testing"
	"time"

	"github.com/five82/qaboard/internal/gateway"
)

func TestProject_NewestFirstRegardlessOfServerOrder(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	records := []gateway.Question{
		{ID: "2", Content: "two", CreatedAt: t2},
		{ID: "1", Content: "one", CreatedAt: t1},
		{ID: "3", Content: "three", CreatedAt: t3},
	}
	items := Project(records, Options{Location: time.UTC, Highlight: true})

	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if !reflect.DeepEqual(ids, []string{"3", "2", "1"}) {
		t.Fatalf("order = %v, want [3 2 1]", ids)
	}
	for i, it := range items {
		if it.IsNew != (i == 0) {
			t.Fatalf("items[%d].IsNew = %v, want only index 0 flagged", i, it.IsNew)
		}
	}
	if records[0].ID != "2" {
		t.Fatalf("Project mutated its input")
	}
}

func TestProject_NoHighlightWhenInactive(t *testing.T) {
	items := Project([]gateway.Question{{ID: "1"}, {ID: "2"}}, Options{})
	for _, it := range items {
		if it.IsNew {
			t.Fatalf("item %s flagged new without highlight", it.ID)
		}
	}
}

func TestProject_IsPure(t *testing.T) {
	records := []gateway.Question{
		{ID: "1", Content: "a", CreatedAt: time.Unix(100, 0)},
		{ID: "2", Content: "b", CreatedAt: time.Unix(200, 0), Resolved: true},
	}
	opts := Options{Location: time.UTC, Highlight: true}
	first := Project(records, opts)
	second := Project(records, opts)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Project not deterministic: %#v vs %#v", first, second)
	}
}

func TestProject_ConvertsToViewerZone(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	created := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)
	items := Project([]gateway.Question{{ID: "1", CreatedAt: created}}, Options{Location: seoul})
	if got := items[0].DisplayTime(); got != "03/02 00:30" {
		t.Fatalf("DisplayTime = %q, want 03/02 00:30", got)
	}
	if !items[0].Timestamp.Equal(created) {
		t.Fatalf("Timestamp instant changed: %v", items[0].Timestamp)
	}
}

func TestProject_EmptyInput(t *testing.T) {
	if items := Project(nil, Options{Highlight: true}); items != nil {
		t.Fatalf("Project(nil) = %#v, want nil", items)
	}
}

func TestLabels(t *testing.T) {
	open := Item{}
	done := Item{Resolved: true}
	if open.StatusLabel() != "Open" || done.StatusLabel() != "Resolved" {
		t.Fatalf("StatusLabel mismatch")
	}
	if open.ActionLabel() != "Mark resolved" || done.ActionLabel() != "Undo" {
		t.Fatalf("ActionLabel mismatch")
	}
	if got := (Item{}).DisplayTime(); got != "--/-- --:--" {
		t.Fatalf("zero DisplayTime = %q", got)
	}
}

func TestSummaryAndCounts(t *testing.T) {
	cases := []struct {
		items []Item
		want  string
	}{
		{nil, "No questions yet"},
		{[]Item{{}}, "1 question so far"},
		{[]Item{{}, {Resolved: true}, {}}, "3 questions so far"},
	}
	for _, tc := range cases {
		if got := Summary(tc.items); got != tc.want {
			t.Fatalf("Summary(%d items) = %q, want %q", len(tc.items), got, tc.want)
		}
	}
	if got := CountResolved([]Item{{}, {Resolved: true}, {Resolved: true}}); got != 2 {
		t.Fatalf("CountResolved = %d, want 2", got)
	}
}
