// Package store persists events, subscribers, and the per-subscriber sent
// log in Postgres. Events are keyed by their URL hash, which makes
// re-ingesting a scrape run an idempotent upsert.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// Store wraps the database handle with the application's queries.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

// New creates a Store over an open database handle.
func New(db *sqlx.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// Open connects to Postgres and verifies the connection.
func Open(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	return db, nil
}

// Ping checks database connectivity, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// eventRow is the events table shape. Optional fields are nullable in the
// schema and empty strings on the Event.
type eventRow struct {
	EventHash   string           `db:"event_hash"`
	Title       string           `db:"title"`
	Speaker     string           `db:"speaker"`
	Institution string           `db:"institution"`
	Date        time.Time        `db:"date"`
	StartTime   *event.TimeOfDay `db:"start_time"`
	EndTime     *event.TimeOfDay `db:"end_time"`
	Location    sql.NullString   `db:"location"`
	Description sql.NullString   `db:"description"`
	Categories  pq.StringArray   `db:"categories"`
	Organizer   sql.NullString   `db:"organizer"`
	URL         string           `db:"url"`
}

func toRow(e event.Event) eventRow {
	return eventRow{
		EventHash:   e.Hash(),
		Title:       e.Title,
		Speaker:     e.Speaker,
		Institution: e.Institution,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    nullString(e.Location),
		Description: nullString(e.Description),
		Categories:  pq.StringArray(e.Categories),
		Organizer:   nullString(e.Organizer),
		URL:         e.URL,
	}
}

func (r eventRow) toEvent() event.Event {
	return event.Event{
		Title:       r.Title,
		Speaker:     r.Speaker,
		Institution: r.Institution,
		Date:        r.Date,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Location:    r.Location.String,
		Description: r.Description.String,
		Categories:  []string(r.Categories),
		Organizer:   r.Organizer.String,
		URL:         r.URL,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const upsertEventQuery = `
INSERT INTO events (event_hash, title, speaker, institution, date, start_time, end_time,
                    location, description, categories, organizer, url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (event_hash) DO UPDATE SET
    title = EXCLUDED.title,
    speaker = EXCLUDED.speaker,
    institution = EXCLUDED.institution,
    date = EXCLUDED.date,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    location = EXCLUDED.location,
    description = EXCLUDED.description,
    categories = EXCLUDED.categories,
    organizer = EXCLUDED.organizer,
    url = EXCLUDED.url,
    last_seen_at = now()`

// UpsertEvents inserts or updates events by their URL hash. Every field is
// refreshed on conflict except first_seen_at, which keeps the value from the
// run that first discovered the event. Returns the number of rows written.
func (s *Store) UpsertEvents(ctx context.Context, events []event.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, e := range events {
		r := toRow(e)
		_, err := tx.ExecContext(ctx, upsertEventQuery,
			r.EventHash, r.Title, r.Speaker, r.Institution, r.Date, r.StartTime, r.EndTime,
			r.Location, r.Description, r.Categories, r.Organizer, r.URL)
		if err != nil {
			return 0, fmt.Errorf("upserting event %s: %w", r.EventHash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert: %w", err)
	}
	s.log.Info("upserted events", zap.Int("count", len(events)))
	return len(events), nil
}

// KnownHashes reports which of the given hashes already exist, so the caller
// can announce only events it has never seen.
func (s *Store) KnownHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	known := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return known, nil
	}

	var rows []string
	err := s.db.SelectContext(ctx, &rows,
		`SELECT event_hash FROM events WHERE event_hash = ANY($1)`, pq.Array(hashes))
	if err != nil {
		return nil, fmt.Errorf("querying known hashes: %w", err)
	}
	for _, h := range rows {
		known[h] = true
	}
	return known, nil
}

const selectEventColumns = `SELECT event_hash, title, speaker, institution, date, start_time, end_time,
       location, description, categories, organizer, url
FROM events`

// UpcomingEvents returns events on or after the given date, in schedule
// order. Events without a start time sort first within their day.
func (s *Store) UpcomingEvents(ctx context.Context, from time.Time) ([]event.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		selectEventColumns+` WHERE date >= $1 ORDER BY date, start_time NULLS FIRST`, from)
	if err != nil {
		return nil, fmt.Errorf("querying upcoming events: %w", err)
	}
	return toEvents(rows), nil
}

// EventsBetween returns events with from <= date <= until, in schedule order.
func (s *Store) EventsBetween(ctx context.Context, from, until time.Time) ([]event.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		selectEventColumns+` WHERE date >= $1 AND date <= $2 ORDER BY date, start_time NULLS FIRST`,
		from, until)
	if err != nil {
		return nil, fmt.Errorf("querying events between: %w", err)
	}
	return toEvents(rows), nil
}

// WeekEvents returns the events in the Monday–Sunday week containing ref.
func (s *Store) WeekEvents(ctx context.Context, ref time.Time) ([]event.Event, error) {
	monday, sunday := weekWindow(ref)
	return s.EventsBetween(ctx, monday, sunday)
}

// UnsentEvents returns this week's events that have no sent_log row for the
// subscriber.
func (s *Store) UnsentEvents(ctx context.Context, subscriberID int64, ref time.Time) ([]event.Event, error) {
	monday, sunday := weekWindow(ref)
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		selectEventColumns+` WHERE date >= $1 AND date <= $2
AND NOT EXISTS (
    SELECT 1 FROM sent_log
    WHERE sent_log.subscriber_id = $3 AND sent_log.event_hash = events.event_hash
)
ORDER BY date, start_time NULLS FIRST`,
		monday, sunday, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("querying unsent events: %w", err)
	}
	return toEvents(rows), nil
}

// MarkSent records that the events were delivered to the subscriber.
// Already-recorded pairs are left alone.
func (s *Store) MarkSent(ctx context.Context, subscriberID int64, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sent_log (subscriber_id, event_hash)
SELECT $1, unnest($2::text[])
ON CONFLICT DO NOTHING`,
		subscriberID, pq.Array(hashes))
	if err != nil {
		return fmt.Errorf("marking events sent: %w", err)
	}
	return nil
}

// weekWindow returns the Monday and Sunday of the week containing ref.
func weekWindow(ref time.Time) (monday, sunday time.Time) {
	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(ref.Weekday()) + 6) % 7 // Monday = 0
	monday = ref.AddDate(0, 0, -offset)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

func toEvents(rows []eventRow) []event.Event {
	events := make([]event.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events
}
