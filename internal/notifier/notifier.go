package notifier

import (
	"fmt"
	"unicode/utf8"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// Notifier posts announcements for newly discovered events.
type Notifier interface {
	Notify(events []event.Event) error
}

// maxPostLength is the Twitter character limit.
const maxPostLength = 280

// formatPost renders one event as a short announcement.
func formatPost(e event.Event) string {
	post := "New seminar: " + e.Title + "\n"

	speaker := e.Speaker
	if e.Institution != "" {
		speaker += " (" + e.Institution + ")"
	}
	if speaker != "" && speaker != e.Title {
		post += speaker + "\n"
	}

	post += e.Date.Format("Mon 2 Jan 2006")
	if e.StartTime != nil {
		post += fmt.Sprintf(" at %s", e.StartTime)
	}
	post += "\n\n" + e.URL

	if utf8.RuneCountInString(post) > maxPostLength {
		runes := []rune(post)
		post = string(runes[:maxPostLength-3]) + "..."
	}
	return post
}
