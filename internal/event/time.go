package event

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date. Event pages list seminar
// times as bare HH:MM values, so the date is carried separately.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay builds a TimeOfDay without range checking; callers parsing
// untrusted input should use ParseTimeOfDay instead.
func NewTimeOfDay(hour, minute int) *TimeOfDay {
	return &TimeOfDay{Hour: hour, Minute: minute}
}

// ParseTimeOfDay parses "15:04" or "15:04:05" strings.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return TimeOfDay{}, fmt.Errorf("parsing time of day %q: %w", s, err)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// String returns the display form, e.g. "12:15".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ISO returns the ISO-8601 form with seconds, e.g. "12:15:00".
func (t TimeOfDay) ISO() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight, used for schedule ordering.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On anchors the time to a calendar date in that date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// Value implements driver.Valuer so events can be written to TIME columns.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.ISO(), nil
}

// Scan implements sql.Scanner. Postgres TIME columns arrive as time.Time or
// as raw "15:04:05" text depending on the driver path.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Hour, t.Minute = v.Hour(), v.Minute()
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("scanning time of day: unsupported type %T", src)
	}
}

func (t *TimeOfDay) scanString(s string) error {
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
