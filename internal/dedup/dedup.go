// Package dedup collapses duplicate candidates within one batch and
// filters out records already present in the sent history.
package dedup

import (
	"context"
	"log/slog"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
)

// History is the read side of the delivery-state store. Lookups never
// mutate the store.
type History interface {
	ArticleSent(ctx context.Context, url string) (bool, error)
	RoundSent(ctx context.Context, project, roundType string) (bool, error)
}

// CollapseNews merges items sharing a canonical URL. The first-seen
// record survives; every repeat sighting increments its TagRepeats,
// which later feeds the Medium-popularity score term.
func CollapseNews(items []models.NewsItem) []models.NewsItem {
	seen := make(map[string]int, len(items))
	out := make([]models.NewsItem, 0, len(items))

	for _, item := range items {
		key := item.Key()
		if idx, ok := seen[key]; ok {
			out[idx].TagRepeats++
			continue
		}
		seen[key] = len(out)
		out = append(out, item)
	}

	return out
}

// CollapseRounds merges rounds sharing a project key. A repeat sighting
// with a strictly larger amount replaces the stored record in place;
// equal or smaller amounts keep the first-seen candidate. Callers must
// rescore after collapsing since a replacement changes the amount tier.
func CollapseRounds(rounds []models.FundraisingRound) []models.FundraisingRound {
	seen := make(map[string]int, len(rounds))
	out := make([]models.FundraisingRound, 0, len(rounds))

	for _, r := range rounds {
		key := r.Key()
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, r)
			continue
		}
		if amount(r.Amount) > amount(out[idx].Amount) {
			out[idx] = r
		}
	}

	return out
}

// FilterSentNews drops items whose URL is already in the history. A
// lookup failure keeps the item: redundant delivery beats silent loss.
func FilterSentNews(ctx context.Context, h History, items []models.NewsItem, log *slog.Logger) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		sent, err := h.ArticleSent(ctx, item.URL)
		if err != nil {
			log.Warn("history lookup failed, keeping item", "url", item.URL, "error", err)
			out = append(out, item)
			continue
		}
		if !sent {
			out = append(out, item)
		}
	}
	return out
}

// FilterSentRounds drops rounds whose (project, round type) key is
// already in the history.
func FilterSentRounds(ctx context.Context, h History, rounds []models.FundraisingRound, log *slog.Logger) []models.FundraisingRound {
	out := make([]models.FundraisingRound, 0, len(rounds))
	for _, r := range rounds {
		sent, err := h.RoundSent(ctx, r.Key(), r.HistoryRoundType())
		if err != nil {
			log.Warn("history lookup failed, keeping round", "project", r.Project, "error", err)
			out = append(out, r)
			continue
		}
		if !sent {
			out = append(out, r)
		}
	}
	return out
}

func amount(a *float64) float64 {
	if a == nil {
		return 0
	}
	return *a
}
