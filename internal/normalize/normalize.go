package normalize

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
)

// MaxSummaryLen bounds normalized summaries, in runes.
const MaxSummaryLen = 500

// genericTitles are boilerplate phrases that mark roundup/filler posts.
// Items matching any of them are dropped unless the source is VIP.
var genericTitles = []string{
	"here's what happened",
	"what happened in crypto today",
	"daily crypto",
	"crypto news roundup",
	"weekly roundup",
	"this week in crypto",
	"price prediction",
	"price analysis",
}

// markerSegments are path segments that identify a concrete post. A URL
// containing one keeps its query string: platforms like Substack and
// Medium sometimes carry the post identity in a parameter, and stripping
// it would merge distinct items under one dedup key.
var markerSegments = []string{"/p/", "/post/"}

// Params configure normalization for one source.
type Params struct {
	Source   string
	Category models.SourceCategory
	Window   time.Duration
	VIP      bool
}

// Item converts a raw feed entry into a canonical news item. The second
// return is false when the item is filtered out (stale or generic title).
// An entry without a parseable date is treated as published now, so it
// always passes the recency filter.
func Item(raw models.RawItem, p Params, now time.Time) (models.NewsItem, bool) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = "No title"
	}

	if !p.VIP && IsGenericTitle(title) {
		return models.NewsItem{}, false
	}

	published := now
	if raw.Published != nil {
		published = *raw.Published
	}
	if !published.After(now.Add(-p.Window)) {
		return models.NewsItem{}, false
	}

	author := raw.Author
	if author == "" {
		author = p.Source
	}

	return models.NewsItem{
		Title:       title,
		Author:      author,
		URL:         CanonicalURL(raw.Link),
		Source:      p.Source,
		Category:    p.Category,
		PublishedAt: published,
		Summary:     Truncate(StripHTML(raw.Summary), MaxSummaryLen),
		TagRepeats:  1,
		VIP:         p.VIP,
	}, true
}

// CanonicalURL strips the query string unless the path contains a marker
// segment that must be preserved to keep the URL unique.
func CanonicalURL(raw string) string {
	idx := strings.IndexByte(raw, '?')
	if idx < 0 {
		return raw
	}
	for _, marker := range markerSegments {
		if strings.Contains(raw[:idx], marker) {
			return raw
		}
	}
	return raw[:idx]
}

// IsGenericTitle reports whether the title matches a boilerplate phrase.
func IsGenericTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, g := range genericTitles {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}

// StripHTML returns the text content of an HTML fragment with whitespace
// collapsed. Malformed markup yields best-effort text, never an error.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseWhitespace(s)
	}
	return collapseWhitespace(doc.Text())
}

// Truncate cuts s to at most max runes without splitting a character.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
