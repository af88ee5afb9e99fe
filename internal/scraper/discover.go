package scraper

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// EventURLs returns the event detail-page URLs to scrape, in first-seen
// order without duplicates. The listing page is the primary source; when it
// yields nothing (some deploys render the listing client-side, leaving no
// static links) the sitemap is used instead. A listing fetch error is not a
// fallback trigger and propagates as-is.
func (s *Scraper) EventURLs() ([]string, error) {
	urls, err := s.eventURLsFromListing()
	if err != nil {
		return nil, err
	}
	if len(urls) > 0 {
		return urls, nil
	}

	s.log.Warn("listing page returned no URLs, falling back to sitemap")
	return s.eventURLsFromSitemap()
}

// eventURLsFromListing scans every link on the events listing page, keeping
// those shaped like a detail page directly under the events path.
func (s *Scraper) eventURLsFromListing() ([]string, error) {
	body, err := s.fetch(s.profile.BaseURL + s.profile.EventsPath)
	if err != nil {
		return nil, fmt.Errorf("fetching listing page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing listing page: %w", err)
	}

	pattern := s.eventURLPattern()
	urls := make([]string, 0)
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "/") {
			href = s.profile.BaseURL + href
		}
		if pattern.MatchString(href) && !seen[href] {
			seen[href] = true
			urls = append(urls, href)
		}
	})

	s.log.Info("listing page scanned", zap.Int("urls", len(urls)))
	return urls, nil
}

// sitemapURLSet matches the standard sitemap schema.
type sitemapURLSet struct {
	XMLName xml.Name `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	Locs    []string `xml:"url>loc"`
}

// eventURLsFromSitemap extracts event page URLs from the sitemap XML.
// Malformed XML is a hard error here since no further fallback exists.
func (s *Scraper) eventURLsFromSitemap() ([]string, error) {
	body, err := s.fetch(s.profile.BaseURL + s.profile.SitemapPath)
	if err != nil {
		return nil, fmt.Errorf("fetching sitemap: %w", err)
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing sitemap: %w", err)
	}

	pattern := s.eventURLPattern()
	urls := make([]string, 0)
	for _, loc := range set.Locs {
		loc = strings.TrimSpace(loc)
		if pattern.MatchString(loc) {
			urls = append(urls, loc)
		}
	}

	s.log.Info("sitemap scanned", zap.Int("urls", len(urls)))
	return urls, nil
}

// eventURLPattern matches detail pages one path segment below the events
// path, excluding the listing page itself and anything deeper.
func (s *Scraper) eventURLPattern() *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(s.profile.BaseURL+s.profile.EventsPath) + "/[^/]+$")
}
