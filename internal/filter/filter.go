// Package filter narrows event lists by series category and date range.
// The calendar feeds use it to cut the event table down to one series, and
// the CLI uses it for --category and --range.
package filter

import (
	"strings"
	"time"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// Filter holds the active criteria. Zero-value fields match everything.
type Filter struct {
	// Categories matches events carrying at least one of these series
	// tags, compared case-insensitively.
	Categories []string

	// From and Until bound the event date, inclusive on both ends.
	From  *time.Time
	Until *time.Time
}

// IsEmpty reports whether the filter has no active criteria.
func (f Filter) IsEmpty() bool {
	return len(f.Categories) == 0 && f.From == nil && f.Until == nil
}

// Matches reports whether an event passes every active criterion.
func (f Filter) Matches(e event.Event) bool {
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.Until != nil && e.Date.After(*f.Until) {
		return false
	}
	if len(f.Categories) > 0 && !f.matchesCategory(e) {
		return false
	}
	return true
}

func (f Filter) matchesCategory(e event.Event) bool {
	for _, want := range f.Categories {
		for _, have := range e.Categories {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// Apply returns the events that match, preserving input order.
func (f Filter) Apply(events []event.Event) []event.Event {
	if f.IsEmpty() {
		return events
	}
	matched := make([]event.Event, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched
}
