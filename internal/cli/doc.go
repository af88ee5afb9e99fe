// Package cli implements the command-line interface for seminar-digest.
//
// The cli package provides the Cobra-based CLI around the scrape pipeline:
// fetching the Helsinki GSE event pages, filtering, formatting output
// (text/JSON), persisting events to Postgres, announcing new events, and
// sending the weekly digest emails. It coordinates the scraper, store,
// digest, mailer, and notifier packages.
package cli
