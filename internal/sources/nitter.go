package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
	"github.com/SoSmDe/Market-Pulse-bot/internal/normalize"
)

// maxPostLen bounds post text, in runes.
const maxPostLen = 280

// Account pairs a monitored handle with its scoring category.
type Account struct {
	Handle   string
	Category string
}

// NitterSource reads monitored accounts through a Nitter instance's RSS
// bridge. Instances come and go, so a fallback list is probed each
// fetch. Nitter exposes no engagement metrics; counters stay zero.
type NitterSource struct {
	instances []string
	accounts  []Account
	window    time.Duration
	client    *http.Client
	parser    *gofeed.Parser
	now       func() time.Time
}

// NewNitterSource builds the social source from an instance fallback
// list and the monitored accounts.
func NewNitterSource(instances []string, accounts []Account, window time.Duration) *NitterSource {
	return &NitterSource{
		instances: instances,
		accounts:  accounts,
		window:    window,
		client:    &http.Client{Timeout: 5 * time.Second},
		parser:    gofeed.NewParser(),
		now:       time.Now,
	}
}

// FetchPosts collects posts from every monitored account via the first
// reachable instance. A single unreachable handle is skipped, not fatal.
func (s *NitterSource) FetchPosts(ctx context.Context) ([]models.SocialPost, error) {
	instance, err := s.workingInstance(ctx)
	if err != nil {
		return nil, err
	}

	var posts []models.SocialPost
	for _, account := range s.accounts {
		feedURL := fmt.Sprintf("https://%s/%s/rss", instance, account.Handle)
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			continue
		}
		posts = append(posts, s.postsFromFeed(feed, account)...)
	}

	return posts, nil
}

func (s *NitterSource) Name() string {
	return "nitter"
}

func (s *NitterSource) workingInstance(ctx context.Context) (string, error) {
	for _, instance := range s.instances {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+instance, nil)
		if err != nil {
			continue
		}
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return instance, nil
		}
	}
	return "", fmt.Errorf("no reachable nitter instance")
}

func (s *NitterSource) postsFromFeed(feed *gofeed.Feed, account Account) []models.SocialPost {
	now := s.now()
	cutoff := now.Add(-s.window)

	var posts []models.SocialPost
	for i, entry := range feed.Items {
		if i >= 20 {
			break
		}

		created := now
		if entry.PublishedParsed != nil {
			created = *entry.PublishedParsed
		}
		if !created.After(cutoff) {
			continue
		}

		posts = append(posts, models.SocialPost{
			ID:        s.postID(entry),
			Author:    account.Handle,
			Category:  account.Category,
			Text:      normalize.Truncate(entry.Title, maxPostLen),
			URL:       s.rewriteURL(entry.Link),
			CreatedAt: created,
		})
	}
	return posts
}

// postID takes the last path segment of the post link, falling back to a
// hash of the text when the link is unusable.
func (s *NitterSource) postID(entry *gofeed.Item) string {
	if entry.Link != "" {
		if idx := strings.LastIndexByte(entry.Link, '/'); idx >= 0 && idx+1 < len(entry.Link) {
			return entry.Link[idx+1:]
		}
	}
	return generateHash(entry.Title)
}

// rewriteURL points nitter links back at twitter.com.
func (s *NitterSource) rewriteURL(link string) string {
	for _, instance := range s.instances {
		link = strings.Replace(link, instance, "twitter.com", 1)
	}
	return link
}
