// Package event defines the seminar event model produced by the scraper.
//
// Each event carries the fields extracted from a Helsinki GSE event page plus
// two values derived from its URL: a SHA-256 hash used as the stable dedup key
// across scrape runs, and the address of the .ics file the site serves next to
// each event page. Events serialize to the JSON shape shared by the CLI output
// and the subscription service.
package event
