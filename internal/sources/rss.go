package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
	"github.com/SoSmDe/Market-Pulse-bot/internal/normalize"
)

// maxFeedEntries bounds how many entries are read from one feed.
const maxFeedEntries = 30

// FeedSource pulls one RSS/Atom feed and normalizes its entries.
type FeedSource struct {
	name     string
	url      string
	category models.SourceCategory
	window   time.Duration
	vip      bool
	parser   *gofeed.Parser
	now      func() time.Time
}

// NewFeedSource builds a feed source for one configured URL.
func NewFeedSource(name, url string, category models.SourceCategory, window time.Duration, vip bool) *FeedSource {
	return &FeedSource{
		name:     name,
		url:      url,
		category: category,
		window:   window,
		vip:      vip,
		parser:   gofeed.NewParser(),
		now:      time.Now,
	}
}

// FetchArticles parses the feed and returns normalized, recency-filtered
// items.
func (s *FeedSource) FetchArticles(ctx context.Context) ([]models.NewsItem, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.name, err)
	}

	now := s.now()
	params := normalize.Params{
		Source:   s.name,
		Category: s.category,
		Window:   s.window,
		VIP:      s.vip,
	}

	var items []models.NewsItem
	for i, entry := range feed.Items {
		if i >= maxFeedEntries {
			break
		}
		if item, ok := normalize.Item(rawFromEntry(entry), params, now); ok {
			items = append(items, item)
		}
	}

	return items, nil
}

func (s *FeedSource) Name() string {
	return s.name
}

// rawFromEntry maps a gofeed entry onto the normalizer's input. The
// updated timestamp stands in when no published one exists; a nil date
// means "no parseable date".
func rawFromEntry(entry *gofeed.Item) models.RawItem {
	raw := models.RawItem{
		Title:   entry.Title,
		Link:    entry.Link,
		Summary: entry.Description,
	}
	if raw.Summary == "" {
		raw.Summary = entry.Content
	}
	if len(entry.Authors) > 0 {
		raw.Author = entry.Authors[0].Name
	}
	if entry.PublishedParsed != nil {
		raw.Published = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		raw.Published = entry.UpdatedParsed
	}
	return raw
}
