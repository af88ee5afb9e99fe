package calendar

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

func sampleEvent() event.Event {
	return event.Event{
		Title:       "On Wage Dynamics",
		Speaker:     "Jane Doe",
		Institution: "MIT",
		Date:        time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC),
		StartTime:   event.NewTimeOfDay(12, 15),
		EndTime:     event.NewTimeOfDay(13, 0),
		Location:    "Economicum, Arkadiankatu 7",
		Categories:  []string{"Labor", "Lunch Seminar"},
		URL:         "https://www.helsinkigse.fi/events/jane-doe",
	}
}

func TestGoogleURL(t *testing.T) {
	u, err := url.Parse(GoogleURL(sampleEvent()))
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}
	if u.Host != "calendar.google.com" {
		t.Errorf("host = %q", u.Host)
	}

	q := u.Query()
	if q.Get("action") != "TEMPLATE" {
		t.Errorf("action = %q", q.Get("action"))
	}
	if q.Get("text") != "On Wage Dynamics" {
		t.Errorf("text = %q", q.Get("text"))
	}
	if q.Get("dates") != "20260223T121500/20260223T130000" {
		t.Errorf("dates = %q", q.Get("dates"))
	}
	if q.Get("ctz") != "Europe/Helsinki" {
		t.Errorf("ctz = %q", q.Get("ctz"))
	}
	if !strings.Contains(q.Get("details"), "Jane Doe (MIT)") {
		t.Errorf("details = %q", q.Get("details"))
	}
	if q.Get("location") != "Economicum, Arkadiankatu 7" {
		t.Errorf("location = %q", q.Get("location"))
	}
}

func TestGoogleURLDefaultTimes(t *testing.T) {
	e := sampleEvent()
	e.StartTime = nil
	e.EndTime = nil

	u, _ := url.Parse(GoogleURL(e))
	// Missing times default to a one-hour slot at noon.
	if got := u.Query().Get("dates"); got != "20260223T120000/20260223T130000" {
		t.Errorf("dates = %q", got)
	}
}

func TestOutlookURL(t *testing.T) {
	u, err := url.Parse(OutlookURL(sampleEvent()))
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}
	if u.Host != "outlook.office.com" {
		t.Errorf("host = %q", u.Host)
	}

	q := u.Query()
	if q.Get("rru") != "addevent" {
		t.Errorf("rru = %q", q.Get("rru"))
	}
	if q.Get("startdt") != "2026-02-23T12:15:00" {
		t.Errorf("startdt = %q", q.Get("startdt"))
	}
	if q.Get("enddt") != "2026-02-23T13:00:00" {
		t.Errorf("enddt = %q", q.Get("enddt"))
	}
}

func TestLinks(t *testing.T) {
	links := Links(sampleEvent())
	for _, key := range []string{"google", "outlook", "ics"} {
		if links[key] == "" {
			t.Errorf("missing %q link", key)
		}
	}
	if links["ics"] != "https://www.helsinkigse.fi/events/jane-doe.ics" {
		t.Errorf("ics = %q", links["ics"])
	}
}

func TestSeriesFeed(t *testing.T) {
	feed := SeriesFeed("Labor", []event.Event{sampleEvent()})

	for _, want := range []string{
		"BEGIN:VCALENDAR\r\n",
		"X-WR-CALNAME:HGSE: Labor\r\n",
		"X-WR-TIMEZONE:Europe/Helsinki\r\n",
		"DTSTART;TZID=Europe/Helsinki:20260223T121500\r\n",
		"DTEND;TZID=Europe/Helsinki:20260223T130000\r\n",
		"SUMMARY:On Wage Dynamics\r\n",
		"LOCATION:Economicum\\, Arkadiankatu 7\r\n",
		"URL:https://www.helsinkigse.fi/events/jane-doe\r\n",
		"END:VCALENDAR\r\n",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	e := sampleEvent()
	if !strings.Contains(feed, "UID:"+e.Hash()+"@helsinki-gse-seminar-digest\r\n") {
		t.Error("feed missing stable UID")
	}
}

func TestSeriesFeedUntimedAllDay(t *testing.T) {
	e := sampleEvent()
	e.StartTime = nil
	e.EndTime = nil

	feed := SeriesFeed("Labor", []event.Event{e})
	if !strings.Contains(feed, "DTSTART;VALUE=DATE:20260223\r\n") {
		t.Error("untimed event should render as an all-day entry")
	}
	if strings.Contains(feed, "DTEND") {
		t.Error("all-day entry should carry no DTEND")
	}
}

func TestSeriesFeedSummaryFallback(t *testing.T) {
	e := sampleEvent()
	e.Title = e.Speaker // no talk title was recoverable from the page

	feed := SeriesFeed("Labor", []event.Event{e})
	if !strings.Contains(feed, "SUMMARY:Labor: Jane Doe\r\n") {
		t.Error("summary should fall back to series: speaker")
	}
}
