package scraper

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// Scraper fetches and parses seminar pages for one site profile.
type Scraper struct {
	client  *http.Client
	profile Profile
	log     *zap.Logger
}

// New creates a Scraper for the default helsinkigse.fi profile.
func New(log *zap.Logger) *Scraper {
	return NewWithProfile(DefaultProfile(), log)
}

// NewWithProfile creates a Scraper for a custom site profile.
func NewWithProfile(p Profile, log *zap.Logger) *Scraper {
	if log == nil {
		log = zap.NewNop()
	}
	p = p.withDefaults()
	return &Scraper{
		client:  &http.Client{Timeout: p.Timeout},
		profile: p,
		log:     log,
	}
}

// ScrapeAll discovers event pages and extracts an event from each one.
// limit > 0 truncates the discovered URL list before any page is fetched.
// Page fetches run strictly one at a time with the profile's delay between
// consecutive requests; the site is small and scraped politely.
//
// Individual page failures are logged and skipped. The returned error only
// reflects URL discovery, which has nothing to salvage when it fails.
func (s *Scraper) ScrapeAll(limit int) ([]event.Event, error) {
	urls, err := s.EventURLs()
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(urls) {
		urls = urls[:limit]
	}
	s.log.Info("scraping event pages", zap.Int("count", len(urls)))

	events := make([]event.Event, 0, len(urls))
	for i, url := range urls {
		if i > 0 {
			time.Sleep(s.profile.RequestDelay)
		}
		s.log.Info("scraping page",
			zap.String("url", url),
			zap.Int("page", i+1),
			zap.Int("total", len(urls)))

		body, err := s.fetch(url)
		if err != nil {
			s.log.Error("fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}

		evt, err := s.ExtractEvent(body, url)
		if err != nil {
			if errors.Is(err, ErrNoDate) {
				s.log.Warn("could not parse event", zap.String("url", url))
			} else {
				s.log.Error("parse failed", zap.String("url", url), zap.Error(err))
			}
			continue
		}
		events = append(events, *evt)
	}

	SortSchedule(events)
	s.log.Info("scrape complete", zap.Int("events", len(events)))
	return events, nil
}

// SortSchedule orders events by date, then start time, with midnight
// standing in for a missing start time. The sort is stable, so events that
// compare equal keep their discovery order.
func SortSchedule(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return startMinutes(events[i]) < startMinutes(events[j])
	})
}

func startMinutes(e event.Event) int {
	if e.StartTime == nil {
		return 0
	}
	return e.StartTime.Minutes()
}

// fetch retrieves one URL with the profile's user agent set.
func (s *Scraper) fetch(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.profile.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
