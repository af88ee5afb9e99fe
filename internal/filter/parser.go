package filter

import (
	"fmt"
	"strings"
	"time"
)

// ParseDateRange reads a CLI range value into inclusive date bounds.
// Accepted forms:
//
//	this-week               Monday–Sunday of the week containing now
//	next-week               the week after that
//	2026-02-23..2026-03-01  explicit inclusive bounds
func ParseDateRange(s string, now time.Time) (from, until time.Time, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "this-week":
		from, until = weekWindow(now)
		return from, until, nil
	case "next-week":
		from, until = weekWindow(now.AddDate(0, 0, 7))
		return from, until, nil
	}

	parts := strings.SplitN(s, "..", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range %q (want this-week, next-week, or YYYY-MM-DD..YYYY-MM-DD)", s)
	}
	from, err = time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range start: %w", err)
	}
	until, err = time.Parse("2006-01-02", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range end: %w", err)
	}
	if until.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end %s before start %s", parts[1], parts[0])
	}
	return from, until, nil
}

func weekWindow(ref time.Time) (monday, sunday time.Time) {
	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(ref.Weekday()) + 6) % 7
	monday = ref.AddDate(0, 0, -offset)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}
