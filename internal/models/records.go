package models

import (
	"context"
	"strings"
	"time"
)

// SourceCategory classifies where a news item came from and drives
// category bonuses and digest sectioning.
type SourceCategory string

const (
	CategoryVIP      SourceCategory = "vip"
	CategoryProtocol SourceCategory = "protocol"
	CategoryNews     SourceCategory = "news"
	CategorySubstack SourceCategory = "substack"
	CategoryRussian  SourceCategory = "russian"
	CategoryMedium   SourceCategory = "medium"
	CategoryOther    SourceCategory = "other"
)

// NewsItem is one normalized article. Its canonical URL doubles as the
// dedup key within a batch and against the sent history.
type NewsItem struct {
	Title       string
	Author      string
	URL         string
	Source      string
	Category    SourceCategory
	PublishedAt time.Time
	Summary     string
	Tags        []string
	TagRepeats  int
	Score       float64
	VIP         bool
}

// Key returns the identity used for deduplication.
func (n NewsItem) Key() string {
	return n.URL
}

// Round types recognized in fundraising headlines and API payloads,
// ordered so that longer names match before their prefixes.
var RoundTypes = []string{
	"Series D", "Series C", "Series B", "Series A",
	"Pre-Seed", "Seed", "Strategic",
}

// FundraisingRound is one funding event. Amount is in millions of USD
// and nil when undisclosed.
type FundraisingRound struct {
	Project        string
	Amount         *float64
	RoundType      string
	LeadInvestors  []string
	OtherInvestors []string
	Category       string
	Date           time.Time
	SourceURL      string
	Source         string
	Score          float64
}

// Key returns the intra-batch identity: lowercased, trimmed project name.
func (r FundraisingRound) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Project))
}

// HistoryRoundType normalizes the round type for the sent history, where
// the key is (project, round type).
func (r FundraisingRound) HistoryRoundType() string {
	if r.RoundType == "" {
		return "unknown"
	}
	return r.RoundType
}

// SocialPost is one post from a monitored account. Engagement counters
// are zero when the upstream feed exposes none.
type SocialPost struct {
	ID        string
	Author    string
	Category  string
	Text      string
	URL       string
	Likes     int
	Retweets  int
	Replies   int
	CreatedAt time.Time
	Score     float64
	Tags      []string
}

// RawItem is what a feed or scrape exposes before normalization.
// Published is nil when the source carries no parseable date.
type RawItem struct {
	Title     string
	Link      string
	Author    string
	Summary   string
	Published *time.Time
}

// ArticleSource pulls normalized news items from one upstream feed or page.
type ArticleSource interface {
	FetchArticles(ctx context.Context) ([]NewsItem, error)
	Name() string
}

// FundraisingSource pulls funding rounds from an API or headline feed.
type FundraisingSource interface {
	FetchRounds(ctx context.Context) ([]FundraisingRound, error)
	Name() string
}

// SocialSource pulls posts from monitored accounts.
type SocialSource interface {
	FetchPosts(ctx context.Context) ([]SocialPost, error)
	Name() string
}
