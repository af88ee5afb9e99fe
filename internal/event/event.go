package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Event represents a single Helsinki GSE seminar event.
type Event struct {
	Title       string
	Speaker     string
	Institution string
	Date        time.Time  // calendar date, time-of-day always midnight
	StartTime   *TimeOfDay // nil when the page lists no time
	EndTime     *TimeOfDay // only meaningful when StartTime is set
	Location    string
	Description string
	Categories  []string // insertion order, case-insensitively unique
	Organizer   string
	URL         string
}

// Hash returns the stable identifier derived from the event URL
// (the slug is unique per event).
func (e Event) Hash() string {
	sum := sha256.Sum256([]byte(e.URL))
	return hex.EncodeToString(sum[:])
}

// ICSURL returns the per-event calendar file. The site already serves
// .ics files at {event_url}.ics.
func (e Event) ICSURL() string {
	return e.URL + ".ics"
}

// eventJSON is the wire shape: ISO-8601 date/time strings, null for absent
// optional fields, and the two derived fields included.
type eventJSON struct {
	Title       string   `json:"title"`
	Speaker     string   `json:"speaker"`
	Institution string   `json:"institution"`
	Date        string   `json:"date"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	Location    *string  `json:"location"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
	Organizer   *string  `json:"organizer"`
	URL         string   `json:"url"`
	ICSURL      string   `json:"ics_url"`
	EventHash   string   `json:"event_hash"`
}

// MarshalJSON serializes the event with its derived fields.
func (e Event) MarshalJSON() ([]byte, error) {
	cats := e.Categories
	if cats == nil {
		cats = []string{}
	}
	return json.Marshal(eventJSON{
		Title:       e.Title,
		Speaker:     e.Speaker,
		Institution: e.Institution,
		Date:        e.Date.Format("2006-01-02"),
		StartTime:   isoTime(e.StartTime),
		EndTime:     isoTime(e.EndTime),
		Location:    nullable(e.Location),
		Description: nullable(e.Description),
		Categories:  cats,
		Organizer:   nullable(e.Organizer),
		URL:         e.URL,
		ICSURL:      e.ICSURL(),
		EventHash:   e.Hash(),
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isoTime(t *TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.ISO()
	return &s
}
