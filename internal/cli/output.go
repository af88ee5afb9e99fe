package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// WriteOutput writes the events in the specified format. JSON is a plain
// array so the output pipes straight into jq.
func WriteOutput(w io.Writer, events []event.Event, format string, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, events)
	case FormatText:
		return writeText(w, events, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, events []event.Event) error {
	if events == nil {
		events = []event.Event{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(events)
}

func writeText(w io.Writer, events []event.Event, verbose bool) error {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, e := range events {
		fmt.Fprintf(w, "%s  %s\n", eventWhen(e), e.Title)
		if e.Speaker != "" && e.Speaker != e.Title {
			speaker := e.Speaker
			if e.Institution != "" {
				speaker += " (" + e.Institution + ")"
			}
			fmt.Fprintf(w, "    Speaker: %s\n", speaker)
		}
		if len(e.Categories) > 0 {
			fmt.Fprintf(w, "    Categories: %s\n", strings.Join(e.Categories, ", "))
		}
		if verbose {
			if e.Location != "" {
				fmt.Fprintf(w, "    Location: %s\n", e.Location)
			}
			if e.Organizer != "" {
				fmt.Fprintf(w, "    Organizer: %s\n", e.Organizer)
			}
			fmt.Fprintf(w, "    URL: %s\n", e.URL)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", len(events))
	return nil
}

func eventWhen(e event.Event) string {
	s := e.Date.Format("Mon 2006-01-02")
	if e.StartTime != nil {
		s += " " + e.StartTime.String()
		if e.EndTime != nil {
			s += "-" + e.EndTime.String()
		}
	}
	return s
}
