// Package feed projects server records into display-ready feed items.
//
// Projection is pure: the same records, location and highlight state always
// produce the same items, so re-rendering can never re-trigger a transition.
package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/five82/qaboard/internal/gateway"
)

const timestampLayout = "01/02 15:04"

// Item is the view model of one question.
type Item struct {
	ID        string
	Content   string
	Timestamp time.Time
	Resolved  bool
	IsNew     bool
}

// Options control a projection.
type Options struct {
	// Location is the viewer's display zone; nil means time.Local.
	Location *time.Location
	// Highlight marks the newest item as new. It is true only while the
	// highlight tracker is active.
	Highlight bool
}

// Project maps records to items ordered newest-first by creation time. The
// server's order is not trusted; records with equal timestamps keep their
// relative order.
func Project(records []gateway.Question, opts Options) []Item {
	if len(records) == 0 {
		return nil
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	sorted := make([]gateway.Question, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	items := make([]Item, len(sorted))
	for i, rec := range sorted {
		items[i] = Item{
			ID:        rec.ID.String(),
			Content:   rec.Content,
			Timestamp: rec.CreatedAt.In(loc),
			Resolved:  rec.Resolved,
			IsNew:     opts.Highlight && i == 0,
		}
	}
	return items
}

// DisplayTime formats the timestamp as month/day hour:minute in the item's zone.
func (it Item) DisplayTime() string {
	if it.Timestamp.IsZero() {
		return "--/-- --:--"
	}
	return it.Timestamp.Format(timestampLayout)
}

// StatusLabel names the resolution state.
func (it Item) StatusLabel() string {
	if it.Resolved {
		return "Resolved"
	}
	return "Open"
}

// ActionLabel names what toggling the item will do.
func (it Item) ActionLabel() string {
	if it.Resolved {
		return "Undo"
	}
	return "Mark resolved"
}

// Summary describes the feed size for the footer.
func Summary(items []Item) string {
	switch len(items) {
	case 0:
		return "No questions yet"
	case 1:
		return "1 question so far"
	default:
		return fmt.Sprintf("%d questions so far", len(items))
	}
}

// CountResolved returns how many items are resolved.
func CountResolved(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Resolved {
			n++
		}
	}
	return n
}
