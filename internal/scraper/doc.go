// Package scraper fetches and parses Helsinki GSE seminar pages.
//
// Scraping runs in three stages: discover event page URLs (a listing page
// scan with a sitemap fallback), fetch each page sequentially with a
// politeness delay, and extract a structured event from each page's HTML.
// The site exposes no structured data feed, so extraction layers positional
// text-line heuristics over a small number of DOM signals. Only a missing
// date fails a page; every other field degrades to an empty value.
package scraper
