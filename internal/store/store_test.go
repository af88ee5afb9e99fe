package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock"), nil), mock
}

func storeTestEvent() event.Event {
	return event.Event{
		Title:       "On Wage Dynamics",
		Speaker:     "Jane Doe",
		Institution: "MIT",
		Date:        time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC),
		StartTime:   event.NewTimeOfDay(12, 15),
		EndTime:     event.NewTimeOfDay(13, 0),
		Location:    "Economicum",
		Categories:  []string{"Labor"},
		URL:         "https://www.helsinkigse.fi/events/jane-doe",
	}
}

func TestUpsertEvents(t *testing.T) {
	s, mock := newStoreMock(t)
	e := storeTestEvent()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").
		WithArgs(e.Hash(), e.Title, e.Speaker, e.Institution, e.Date,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), e.URL).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := s.UpsertEvents(context.Background(), []event.Event{e})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEventsPreservesFirstSeen(t *testing.T) {
	// The conflict clause must not touch first_seen_at.
	assert.NotContains(t, upsertEventQuery, "first_seen_at")
	assert.Contains(t, upsertEventQuery, "last_seen_at = now()")
	assert.Contains(t, upsertEventQuery, "ON CONFLICT (event_hash) DO UPDATE")
}

func TestUpsertEventsEmpty(t *testing.T) {
	s, mock := newStoreMock(t)

	n, err := s.UpsertEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKnownHashes(t *testing.T) {
	s, mock := newStoreMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_hash FROM events WHERE event_hash = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"event_hash"}).AddRow("aaa").AddRow("ccc"))

	known, err := s.KnownHashes(context.Background(), []string{"aaa", "bbb", "ccc"})
	require.NoError(t, err)
	assert.True(t, known["aaa"])
	assert.False(t, known["bbb"])
	assert.True(t, known["ccc"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func eventColumns() []string {
	return []string{"event_hash", "title", "speaker", "institution", "date",
		"start_time", "end_time", "location", "description", "categories", "organizer", "url"}
}

func TestUpcomingEvents(t *testing.T) {
	s, mock := newStoreMock(t)
	date := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(eventColumns()).
		AddRow("hash1", "On Wage Dynamics", "Jane Doe", "MIT", date,
			"12:15:00", "13:00:00", "Economicum", nil, "{Labor}", nil,
			"https://www.helsinkigse.fi/events/jane-doe").
		AddRow("hash2", "Untimed Talk", "John Smith", "", date,
			nil, nil, nil, nil, "{}", nil,
			"https://www.helsinkigse.fi/events/john-smith")
	mock.ExpectQuery("SELECT event_hash, title, speaker, .+ FROM events WHERE date >= .+ ORDER BY date, start_time NULLS FIRST").
		WillReturnRows(rows)

	events, err := s.UpcomingEvents(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "On Wage Dynamics", events[0].Title)
	require.NotNil(t, events[0].StartTime)
	assert.Equal(t, "12:15", events[0].StartTime.String())
	assert.Equal(t, []string{"Labor"}, events[0].Categories)

	assert.Nil(t, events[1].StartTime)
	assert.Nil(t, events[1].EndTime)
	assert.Empty(t, events[1].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekEvents(t *testing.T) {
	s, mock := newStoreMock(t)

	// Wednesday 25 Feb 2026 sits in the Mon 23 – Sun 1 Mar window.
	ref := time.Date(2026, 2, 25, 15, 30, 0, 0, time.UTC)
	monday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT event_hash, .+ FROM events WHERE date >= .+ AND date <= .+").
		WithArgs(monday, sunday).
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	_, err := s.WeekEvents(context.Background(), ref)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		mon  string
		sun  string
	}{
		{"wednesday", time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC), "2026-02-23", "2026-03-01"},
		{"monday", time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), "2026-02-23", "2026-03-01"},
		{"sunday", time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC), "2026-02-23", "2026-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monday, sunday := weekWindow(tt.ref)
			assert.Equal(t, tt.mon, monday.Format("2006-01-02"))
			assert.Equal(t, tt.sun, sunday.Format("2006-01-02"))
		})
	}
}

func TestUnsentEvents(t *testing.T) {
	s, mock := newStoreMock(t)
	ref := time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT event_hash, .+ NOT EXISTS").
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	events, err := s.UnsentEvents(context.Background(), 7, ref)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent(t *testing.T) {
	s, mock := newStoreMock(t)

	mock.ExpectExec("INSERT INTO sent_log").
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.MarkSent(context.Background(), 7, []string{"aaa", "bbb"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSentEmpty(t *testing.T) {
	s, mock := newStoreMock(t)
	require.NoError(t, s.MarkSent(context.Background(), 7, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
