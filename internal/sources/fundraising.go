package sources

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
	"github.com/SoSmDe/Market-Pulse-bot/internal/normalize"
)

// maxProjectLen bounds project names extracted from headlines.
const maxProjectLen = 50

// raisePattern matches "<project> raises/closes/secures/bags/lands $X
// million|billion" headlines.
var raisePattern = regexp.MustCompile(`(?i)(.+?)\s+(raises?|closes?|secures?|bags?|lands?)\s+\$?([\d.]+)\s*(million|billion|[mb])\b`)

// roundKeywords gate which headlines are considered fundraising news at
// all before the extraction regex runs.
var roundKeywords = []string{
	"seed", "series", "funding", "raised", "raises", "investment",
	"venture", "valuation", "round", "backs", "leads",
}

// FundraisingFeedSource extracts funding rounds from news-feed headlines.
// It is a heuristic fallback next to the structured API source, so its
// records carry no confidence bonus.
type FundraisingFeedSource struct {
	name   string
	url    string
	window time.Duration
	parser *gofeed.Parser
	now    func() time.Time
}

// NewFundraisingFeedSource builds a headline-extraction source for one feed.
func NewFundraisingFeedSource(name, url string, window time.Duration) *FundraisingFeedSource {
	return &FundraisingFeedSource{
		name:   name,
		url:    url,
		window: window,
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

// FetchRounds parses the feed and extracts rounds from matching headlines.
func (s *FundraisingFeedSource) FetchRounds(ctx context.Context) ([]models.FundraisingRound, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.name, err)
	}

	now := s.now()
	cutoff := now.Add(-s.window)

	var rounds []models.FundraisingRound
	for i, entry := range feed.Items {
		if i >= maxFeedEntries {
			break
		}

		title := entry.Title
		if !mentionsFundraising(title) {
			continue
		}

		published := now
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		}
		if !published.After(cutoff) {
			continue
		}

		project, amount := ExtractRaise(title)

		rounds = append(rounds, models.FundraisingRound{
			Project:   project,
			Amount:    amount,
			RoundType: DetectRoundType(title),
			Date:      published,
			SourceURL: normalize.CanonicalURL(entry.Link),
			Source:    s.name,
		})
	}

	return rounds, nil
}

func (s *FundraisingFeedSource) Name() string {
	return s.name
}

func mentionsFundraising(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range roundKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractRaise pulls the project name and amount in millions out of a
// headline. Unparseable amounts come back nil; an unextractable project
// name falls back to the text before the raise verb, or "Unknown".
func ExtractRaise(title string) (string, *float64) {
	match := raisePattern.FindStringSubmatch(title)
	if match == nil {
		return fallbackProject(title), nil
	}

	project := strings.TrimSpace(match[1])
	if project == "" {
		project = "Unknown"
	}
	project = normalize.Truncate(project, maxProjectLen)

	value, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return project, nil
	}
	unit := strings.ToLower(match[4])
	if unit == "billion" || unit == "b" {
		value *= 1000
	}

	return project, &value
}

// DetectRoundType finds a known round type mentioned in the headline.
func DetectRoundType(title string) string {
	lower := strings.ToLower(title)
	for _, rt := range models.RoundTypes {
		if strings.Contains(lower, strings.ToLower(rt)) {
			return rt
		}
	}
	return "Unknown"
}

func fallbackProject(title string) string {
	lower := strings.ToLower(title)
	for _, verb := range []string{"raises", "closes", "secures", "bags", "lands"} {
		if idx := strings.Index(lower, verb); idx > 0 {
			return normalize.Truncate(strings.TrimSpace(title[:idx]), maxProjectLen)
		}
	}
	return "Unknown"
}
