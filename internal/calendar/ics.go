package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// uidDomain distinguishes our feed UIDs from the site's own .ics files.
const uidDomain = "helsinki-gse-seminar-digest"

// SeriesFeed generates a VCALENDAR for one seminar series. The events are
// expected to be pre-filtered to the series and sorted by schedule.
func SeriesFeed(series string, events []event.Event) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//HGSE Seminar Hub//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS("HGSE: "+series)))
	ics.WriteString(fmt.Sprintf("X-WR-TIMEZONE:%s\r\n", Timezone))

	now := time.Now().UTC()
	for _, e := range events {
		writeVEvent(&ics, series, e, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeVEvent(ics *strings.Builder, series string, e event.Event, stamp time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s@%s\r\n", e.Hash(), uidDomain))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp.Format("20060102T150405Z")))

	// Untimed events become all-day entries.
	if e.StartTime != nil {
		start := e.StartTime.On(e.Date)
		ics.WriteString(fmt.Sprintf("DTSTART;TZID=%s:%s\r\n", Timezone, start.Format("20060102T150405")))
		if e.EndTime != nil {
			end := e.EndTime.On(e.Date)
			ics.WriteString(fmt.Sprintf("DTEND;TZID=%s:%s\r\n", Timezone, end.Format("20060102T150405")))
		}
	} else {
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", e.Date.Format("20060102")))
	}

	// A title equal to the speaker means the page had no usable talk title,
	// so label the entry by series instead.
	summary := e.Title
	if summary == e.Speaker {
		summary = fmt.Sprintf("%s: %s", series, e.Speaker)
	}
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary)))

	if e.Location != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(e.Location)))
	}

	parts := make([]string, 0, 3)
	if e.Speaker != "" {
		line := e.Speaker
		if e.Institution != "" {
			line += " (" + e.Institution + ")"
		}
		parts = append(parts, line)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	parts = append(parts, e.URL)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(strings.Join(parts, "\n\n"))))

	ics.WriteString(fmt.Sprintf("URL:%s\r\n", e.URL))
	ics.WriteString("END:VEVENT\r\n")
}

// escapeICS escapes special characters according to RFC 5545.
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
