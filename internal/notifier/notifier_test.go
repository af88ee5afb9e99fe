package notifier

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

func notifierTestEvent() event.Event {
	return event.Event{
		Title:       "On Wage Dynamics",
		Speaker:     "Jane Doe",
		Institution: "MIT",
		Date:        time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC),
		StartTime:   event.NewTimeOfDay(12, 15),
		URL:         "https://www.helsinkigse.fi/events/jane-doe",
	}
}

func TestFormatPost(t *testing.T) {
	post := formatPost(notifierTestEvent())

	for _, want := range []string{
		"New seminar: On Wage Dynamics",
		"Jane Doe (MIT)",
		"Mon 23 Feb 2026 at 12:15",
		"https://www.helsinkigse.fi/events/jane-doe",
	} {
		if !strings.Contains(post, want) {
			t.Errorf("post missing %q:\n%s", want, post)
		}
	}
}

func TestFormatPostTitleEqualsSpeaker(t *testing.T) {
	e := notifierTestEvent()
	e.Title = "Jane Doe"
	e.Institution = ""

	post := formatPost(e)
	if strings.Count(post, "Jane Doe") != 1 {
		t.Errorf("speaker line should be dropped when it repeats the title:\n%s", post)
	}
}

func TestFormatPostLengthCapped(t *testing.T) {
	e := notifierTestEvent()
	e.Title = strings.Repeat("very long title ", 30)

	post := formatPost(e)
	if n := utf8.RuneCountInString(post); n > 280 {
		t.Errorf("post length %d exceeds the limit", n)
	}
	if !strings.HasSuffix(post, "...") {
		t.Error("truncated post should end with an ellipsis")
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &DryRunNotifier{out: &buf}

	if err := n.Notify([]event.Event{notifierTestEvent(), notifierTestEvent()}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Announcement 1/2") || !strings.Contains(out, "Announcement 2/2") {
		t.Errorf("missing announcement counters:\n%s", out)
	}
	if !strings.Contains(out, "On Wage Dynamics") {
		t.Errorf("missing post body:\n%s", out)
	}
}

func TestNewTwitterNotifierIncompleteCredentials(t *testing.T) {
	_, err := NewTwitterNotifier(Credentials{APIKey: "k"})
	if err == nil {
		t.Fatal("expected error for incomplete credentials")
	}
}
