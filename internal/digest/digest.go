// Package digest renders the weekly seminar digest email. Email clients
// strip <style> tags, so every style is inlined on the element it applies to.
package digest

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/helsinkigse/seminar-digest/internal/calendar"
	"github.com/helsinkigse/seminar-digest/internal/event"
)

// viewModel is the prepared data handed to the digest template.
type viewModel struct {
	WeekLabel      string
	Count          int
	Plural         string
	Tags           []tagLink
	Cards          []card
	UnsubscribeURL string
}

// tagLink points a series tag in the filter bar at the first event card
// carrying that tag.
type tagLink struct {
	Name   string
	Anchor string
}

type card struct {
	Anchor      string
	DateLine    string
	Title       string
	SpeakerLine string
	Location    string
	Categories  []string
	GoogleURL   string
	OutlookURL  string
	ICSURL      string
}

// Subject returns the digest subject line for a send date.
func Subject(now time.Time) string {
	return "Helsinki GSE Seminars — Week of " + now.Format("2 Jan 2006")
}

// Render produces the digest HTML for a list of events, already sorted by
// schedule. unsubscribeURL lands in the footer; pass "#" for previews.
func Render(events []event.Event, unsubscribeURL string) (string, error) {
	vm := viewModel{
		WeekLabel:      "Week of " + time.Now().Format("2 Jan 2006"),
		Count:          len(events),
		Plural:         "s",
		UnsubscribeURL: unsubscribeURL,
	}
	if len(events) == 1 {
		vm.Plural = ""
	}

	for i, e := range events {
		anchor := fmt.Sprintf("event-%d", i)
		for _, cat := range e.Categories {
			if !hasTag(vm.Tags, cat) {
				vm.Tags = append(vm.Tags, tagLink{Name: cat, Anchor: anchor})
			}
		}
		vm.Cards = append(vm.Cards, card{
			Anchor:      anchor,
			DateLine:    dateLine(e),
			Title:       e.Title,
			SpeakerLine: speakerLine(e),
			Location:    e.Location,
			Categories:  e.Categories,
			GoogleURL:   calendar.GoogleURL(e),
			OutlookURL:  calendar.OutlookURL(e),
			ICSURL:      e.ICSURL(),
		})
	}

	var b strings.Builder
	if err := digestTemplate.Execute(&b, vm); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return b.String(), nil
}

func hasTag(tags []tagLink, name string) bool {
	for _, t := range tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// dateLine formats the card header, e.g. "Mon 23 Feb, 12:15–13:00".
func dateLine(e event.Event) string {
	line := e.Date.Format("Mon 2 Jan")
	if e.StartTime != nil {
		line += ", " + e.StartTime.String()
		if e.EndTime != nil {
			line += "–" + e.EndTime.String()
		}
	}
	return line
}

func speakerLine(e event.Event) string {
	if e.Institution != "" {
		return e.Speaker + " (" + e.Institution + ")"
	}
	return e.Speaker
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 0;">
  <div style="max-width: 600px; margin: 0 auto; background: #ffffff;">
    <div style="background: #1a365d; color: #ffffff; padding: 24px 32px;">
      <h1 style="margin: 0; font-size: 22px; font-weight: 600;">Helsinki GSE Seminars</h1>
      <p style="margin: 8px 0 0; font-size: 14px; color: #cbd5e0; font-weight: 400;">{{.WeekLabel}} &middot; {{.Count}} upcoming event{{.Plural}}</p>
    </div>
    <div style="padding: 16px 32px 32px;">
{{- if .Tags}}
      <div style="padding: 12px 0 8px; margin-bottom: 8px; border-bottom: 1px solid #e2e8f0;">
        <p style="font-size: 12px; color: #718096; margin: 0 0 8px; text-transform: uppercase; letter-spacing: 0.5px;">This week's series</p>
{{- range .Tags}}
        <a href="#{{.Anchor}}" style="display: inline-block; background: #ebf4ff; color: #2b6cb0; font-size: 13px; padding: 4px 12px; border-radius: 16px; margin-right: 6px; margin-bottom: 6px; text-decoration: none;">{{.Name}}</a>
{{- end}}
      </div>
{{- end}}
{{- if not .Cards}}
      <p style="text-align: center; color: #718096; padding: 40px 0;">No upcoming seminars this week.</p>
{{- end}}
{{- range .Cards}}
      <div id="{{.Anchor}}" style="border: 1px solid #e2e8f0; border-radius: 8px; padding: 20px; margin-bottom: 16px;">
{{- if .Categories}}
        <div>
{{- range .Categories}}
          <span style="display: inline-block; background: #ebf4ff; color: #2b6cb0; font-size: 12px; padding: 2px 8px; border-radius: 4px; margin-right: 4px;">{{.}}</span>
{{- end}}
        </div>
{{- end}}
        <p style="font-size: 13px; color: #718096; margin: 0 0 6px; text-transform: uppercase; letter-spacing: 0.5px;">{{.DateLine}}</p>
        <p style="font-size: 17px; font-weight: 600; color: #1a202c; margin: 0 0 6px; line-height: 1.4;">{{.Title}}</p>
        <p style="font-size: 14px; color: #4a5568; margin: 0 0 4px;">{{.SpeakerLine}}</p>
{{- if .Location}}
        <p style="font-size: 14px; color: #4a5568; margin: 0 0 4px;">{{.Location}}</p>
{{- end}}
        <div style="margin-top: 14px;">
          <a href="{{.GoogleURL}}" style="display: inline-block; background: #4285f4; color: #ffffff; text-decoration: none; padding: 8px 14px; border-radius: 4px; font-size: 13px; font-weight: 500; margin-right: 8px;" target="_blank">Google Calendar</a>
          <a href="{{.OutlookURL}}" style="display: inline-block; background: #0078d4; color: #ffffff; text-decoration: none; padding: 8px 14px; border-radius: 4px; font-size: 13px; font-weight: 500; margin-right: 8px;" target="_blank">Outlook</a>
          <a href="{{.ICSURL}}" style="display: inline-block; background: #e2e8f0; color: #4a5568; text-decoration: none; padding: 8px 14px; border-radius: 4px; font-size: 13px; font-weight: 500;" target="_blank">Download .ics</a>
        </div>
      </div>
{{- end}}
    </div>
    <div style="padding: 24px 32px; text-align: center; font-size: 12px; color: #a0aec0; border-top: 1px solid #e2e8f0;">
      <p>You're receiving this because you subscribed to Helsinki GSE seminar updates.</p>
      <p><a href="{{.UnsubscribeURL}}" style="color: #718096; text-decoration: underline;">Unsubscribe</a></p>
    </div>
  </div>
</body>
</html>`))
