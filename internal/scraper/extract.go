package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// ErrNoDate reports a page with no recognizable date line. Such pages yield
// no event at all rather than a partially filled one.
var ErrNoDate = errors.New("no event date found")

var (
	datePattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2,4})$`)
	timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

	// Structural tokens that sometimes land on the line where the talk
	// title is expected.
	titleFallbackTokens = map[string]bool{
		"calendar": true, "clock": true, "organizer:": true,
		"type:": true, "host:": true, "venue:": true,
	}

	// Label lines excluded from the category fallback.
	categoryLabels = map[string]bool{
		"type:": true, "host:": true, "hosts:": true,
		"venue:": true, "organizer:": true, "actions:": true,
	}

	// Lines that end the two-line host name join.
	hostStopLines = map[string]bool{
		"venue:": true, "actions:": true, "share": true, "add to calendar": true,
	}

	// Site chrome that shows up as standalone text lines.
	navLines = map[string]bool{
		"menu": true, "research": true, "programs": true, "events": true,
		"news": true, "faculty": true, "about": true, "job market": true,
		"for students": true, "courses": true, "faq": true, "studies": true,
		"close drawer": true, "skip to main": true, "helsinki gse": true,
		"actions": true, "share": true, "add to calendar": true,
		"twitter": true, "facebook": true, "email": true,
	}
)

// An event page linearizes to a text-line stream shaped like:
//
//	Speaker Name            h1, repeated later in the body
//	...navigation...
//	Speaker Name            repeated after the nav block
//	Institution
//	Talk title
//	...
//	calendar
//	23.02.26                DD.MM.YY date
//	clock
//	12:15                   start time
//	–                       dash, sometimes on its own line
//	13:00                   end time
//	Organizer:
//	Type:
//	Lunch Seminar           category
//	Host:
//	First
//	Last                    host name, may span two lines
//	Venue:
//	Room, Building, Address
//
// Each field extractor below tolerates the others' anchors being absent.

// ExtractEvent parses a single event detail page. pageURL is recorded on
// the event and drives its identity; it is not fetched or parsed here.
func (s *Scraper) ExtractEvent(page []byte, pageURL string) (*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	lines := visibleLines(doc)
	speaker := headingText(doc, s.profile.HeadingSelector)

	institution, title := bylineContext(lines, speaker)
	if title == "" || titleFallbackTokens[strings.ToLower(title)] {
		title = speaker
	}

	date, ok := firstDate(lines)
	if !ok {
		return nil, ErrNoDate
	}

	start, end := clockTimes(lines)

	categories := chipCategories(doc, s.profile.ChipSelector)
	if len(categories) == 0 {
		categories = fallbackCategories(lines)
	}

	venue, _ := fieldAfter(lines, "Venue:")

	return &event.Event{
		Title:       title,
		Speaker:     speaker,
		Institution: institution,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Location:    venue,
		Description: longDescription(lines),
		Categories:  categories,
		Organizer:   hostName(lines),
		URL:         pageURL,
	}, nil
}

// visibleLines flattens the document body into trimmed, non-empty text
// lines in document order. Script and style content is not visible text.
func visibleLines(doc *goquery.Document) []string {
	root := doc.Get(0)
	if body := doc.Find("body"); body.Length() > 0 {
		root = body.Get(0)
	}

	lines := make([]string, 0, 64)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			for _, part := range strings.Split(n.Data, "\n") {
				if part = strings.TrimSpace(part); part != "" {
					lines = append(lines, part)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return lines
}

// headingText returns the first matching heading's text with internal
// whitespace collapsed.
func headingText(doc *goquery.Document, selector string) string {
	h := doc.Find(selector).First()
	if h.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(h.Text()), " ")
}

// bylineContext locates the second occurrence of the speaker name in the
// line stream. The first occurrence is the page heading; the repeat marks
// the body byline, followed by the institution line and the title line.
func bylineContext(lines []string, speaker string) (institution, title string) {
	if speaker == "" {
		return "", ""
	}
	foundFirst := false
	for i, line := range lines {
		if line != speaker {
			continue
		}
		if !foundFirst {
			foundFirst = true
			continue
		}
		if i+1 < len(lines) {
			institution = lines[i+1]
		}
		if i+2 < len(lines) {
			title = lines[i+2]
		}
		break
	}
	return institution, title
}

// parseDate reads full-line DD.MM.YY or DD.MM.YYYY dates like "23.02.26".
// Two-digit years are read as 2000+YY. time.Date normalizes out-of-range
// components, so the result is checked against the parsed parts.
func parseDate(line string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// parseTime reads full-line HH:MM times like "12:15".
func parseTime(line string) (event.TimeOfDay, bool) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return event.TimeOfDay{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return event.TimeOfDay{}, false
	}
	return event.TimeOfDay{Hour: hour, Minute: minute}, true
}

// firstDate scans for the first parseable date line.
func firstDate(lines []string) (time.Time, bool) {
	for _, line := range lines {
		if d, ok := parseDate(line); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// clockTimes anchors on the literal "clock" marker line. The next line is
// the start time; the end time may sit two or three lines past the marker
// since the separating dash sometimes gets a line of its own.
func clockTimes(lines []string) (start, end *event.TimeOfDay) {
	for i, line := range lines {
		if !strings.EqualFold(line, "clock") {
			continue
		}
		if i+1 < len(lines) {
			if t, ok := parseTime(lines[i+1]); ok {
				start = &t
			}
		}
		for j := i + 2; j < i+5 && j < len(lines); j++ {
			if t, ok := parseTime(lines[j]); ok {
				end = &t
				break
			}
		}
		break
	}
	return start, end
}

// chipCategories reads the category chip elements, deduplicating
// case-insensitively while keeping first-seen order and casing.
func chipCategories(doc *goquery.Document, selector string) []string {
	categories := make([]string, 0)
	seen := make(map[string]bool)
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" || seen[strings.ToLower(text)] {
			return
		}
		seen[strings.ToLower(text)] = true
		categories = append(categories, text)
	})
	return categories
}

// fallbackCategories recovers categories from the Type: and Organizer:
// labels on pages that render no chips. The organizer group goes first
// when it differs from the type.
func fallbackCategories(lines []string) []string {
	categories := make([]string, 0, 2)

	typeVal, _ := fieldAfter(lines, "Type:")
	if typeVal != "" && !categoryLabels[strings.ToLower(typeVal)] {
		categories = append(categories, typeVal)
	}

	orgVal, _ := fieldAfter(lines, "Organizer:")
	if orgVal != "" && !categoryLabels[strings.ToLower(orgVal)] {
		if typeVal == "" || !strings.EqualFold(orgVal, typeVal) {
			categories = append([]string{orgVal}, categories...)
		}
	}
	return categories
}

// fieldAfter finds the first line starting with label (case-insensitive)
// and returns its value: the remainder after the colon when non-empty,
// otherwise the following line. A label line with neither does not stop
// the scan.
func fieldAfter(lines []string, label string) (string, bool) {
	lower := strings.ToLower(label)
	for i, line := range lines {
		if !strings.HasPrefix(strings.ToLower(line), lower) {
			continue
		}
		if c := strings.Index(line, ":"); c >= 0 {
			if rest := strings.TrimSpace(line[c+1:]); rest != "" {
				return rest, true
			}
		}
		if i+1 < len(lines) {
			return lines[i+1], true
		}
	}
	return "", false
}

// hostName reads the Host: label value. When the value came from the line
// after the label it may be just a first name, so a short colon-free
// continuation line is joined on, stopping at structural markers.
func hostName(lines []string) string {
	host, ok := fieldAfter(lines, "Host:")
	if !ok {
		return ""
	}

	for i, line := range lines {
		if !strings.HasPrefix(strings.ToLower(line), "host:") {
			continue
		}
		rest := ""
		if c := strings.Index(line, ":"); c >= 0 {
			rest = strings.TrimSpace(line[c+1:])
		}
		if rest == "" && i+1 < len(lines) {
			first := lines[i+1]
			if i+2 < len(lines) && !strings.Contains(lines[i+2], ":") && utf8.RuneCountInString(lines[i+2]) < 30 {
				next := lines[i+2]
				if !hostStopLines[strings.ToLower(next)] {
					host = first + " " + next
				}
			}
		}
		break
	}
	return host
}

// longDescription picks the first long line that is not site chrome. Label
// lines end with a colon and are excluded.
func longDescription(lines []string) string {
	for _, line := range lines {
		low := strings.ToLower(line)
		if utf8.RuneCountInString(line) > 80 && !navLines[low] && !strings.HasSuffix(low, ":") {
			return line
		}
	}
	return ""
}
