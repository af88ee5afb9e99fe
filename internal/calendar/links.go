// Package calendar builds "add to calendar" links and iCalendar feeds for
// seminar events. Google and Outlook get prefilled compose URLs; each seminar
// series also gets a subscribable .ics feed.
package calendar

import (
	"net/url"
	"strings"
	"time"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// Timezone sent with calendar entries. Seminar times on the site are local
// Helsinki times.
const Timezone = "Europe/Helsinki"

// eventSpan returns the start and end datetimes for a calendar entry.
// Events without a listed time default to a one-hour slot at noon.
func eventSpan(e event.Event) (start, end time.Time) {
	startTime := event.TimeOfDay{Hour: 12, Minute: 0}
	if e.StartTime != nil {
		startTime = *e.StartTime
	}
	start = startTime.On(e.Date)

	if e.EndTime != nil {
		end = e.EndTime.On(e.Date)
	} else {
		end = start.Add(time.Hour)
	}
	return start, end
}

// entryDescription builds the free-text body shared by the Google and
// Outlook links.
func entryDescription(e event.Event) string {
	parts := make([]string, 0, 3)
	if e.Speaker != "" {
		line := e.Speaker
		if e.Institution != "" {
			line += " (" + e.Institution + ")"
		}
		parts = append(parts, line)
	}
	if e.Description != "" && e.Description != e.Title {
		parts = append(parts, e.Description)
	}
	parts = append(parts, "Details: "+e.URL)
	return strings.Join(parts, "\n")
}

// GoogleURL returns a Google Calendar "create event" link with the event
// prefilled.
func GoogleURL(e event.Event) string {
	start, end := eventSpan(e)
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", e.Title)
	params.Set("dates", start.Format("20060102T150405")+"/"+end.Format("20060102T150405"))
	params.Set("ctz", Timezone)
	params.Set("details", entryDescription(e))
	if e.Location != "" {
		params.Set("location", e.Location)
	}
	return "https://calendar.google.com/calendar/render?" + params.Encode()
}

// OutlookURL returns an Outlook web "create event" link. Outlook expects ISO
// 8601 datetimes.
func OutlookURL(e event.Event) string {
	start, end := eventSpan(e)
	params := url.Values{}
	params.Set("rru", "addevent")
	params.Set("subject", e.Title)
	params.Set("startdt", start.Format("2006-01-02T15:04:05"))
	params.Set("enddt", end.Format("2006-01-02T15:04:05"))
	params.Set("body", entryDescription(e))
	if e.Location != "" {
		params.Set("location", e.Location)
	}
	return "https://outlook.office.com/calendar/0/action/compose?" + params.Encode()
}

// Links returns all calendar links for an event.
func Links(e event.Event) map[string]string {
	return map[string]string{
		"google":  GoogleURL(e),
		"outlook": OutlookURL(e),
		"ics":     e.ICSURL(),
	}
}
