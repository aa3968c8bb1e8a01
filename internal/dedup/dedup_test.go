package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollapseNewsTagRepeats(t *testing.T) {
	items := []models.NewsItem{
		{Title: "A", URL: "https://medium.com/x", Source: "medium/defi", TagRepeats: 1},
		{Title: "A", URL: "https://medium.com/x", Source: "medium/ethereum", TagRepeats: 1},
		{Title: "A", URL: "https://medium.com/x", Source: "medium/web3", TagRepeats: 1},
		{Title: "B", URL: "https://medium.com/y", Source: "medium/defi", TagRepeats: 1},
	}

	out := CollapseNews(items)
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}
	if out[0].TagRepeats != 3 {
		t.Errorf("TagRepeats = %d, want 3", out[0].TagRepeats)
	}
	if out[0].Source != "medium/defi" {
		t.Errorf("first-seen record must survive, got source %q", out[0].Source)
	}
	if out[1].TagRepeats != 1 {
		t.Errorf("unique item TagRepeats = %d, want 1", out[1].TagRepeats)
	}
}

func amt(v float64) *float64 { return &v }

func TestCollapseRoundsLargerAmountWins(t *testing.T) {
	rounds := []models.FundraisingRound{
		{Project: "Acme Labs", Amount: amt(10), Source: "rss"},
		{Project: "acme labs ", Amount: amt(50), Source: "defillama"},
	}

	out := CollapseRounds(rounds)
	if len(out) != 1 {
		t.Fatalf("got %d rounds, want 1", len(out))
	}
	if *out[0].Amount != 50 {
		t.Errorf("Amount = %v, want 50", *out[0].Amount)
	}
	if out[0].Source != "defillama" {
		t.Errorf("larger-amount candidate must replace, got %q", out[0].Source)
	}
}

func TestCollapseRoundsEqualAmountFirstWins(t *testing.T) {
	rounds := []models.FundraisingRound{
		{Project: "Acme", Amount: amt(25), Source: "first"},
		{Project: "ACME", Amount: amt(25), Source: "second"},
	}

	out := CollapseRounds(rounds)
	if len(out) != 1 {
		t.Fatalf("got %d rounds, want 1", len(out))
	}
	if out[0].Source != "first" {
		t.Errorf("equal amounts must keep the first-seen candidate, got %q", out[0].Source)
	}
}

func TestCollapseRoundsNilAmount(t *testing.T) {
	rounds := []models.FundraisingRound{
		{Project: "Acme", Amount: nil, Source: "first"},
		{Project: "acme", Amount: amt(5), Source: "second"},
		{Project: "acme", Amount: nil, Source: "third"},
	}

	out := CollapseRounds(rounds)
	if len(out) != 1 {
		t.Fatalf("got %d rounds, want 1", len(out))
	}
	if out[0].Amount == nil || *out[0].Amount != 5 {
		t.Errorf("disclosed amount must beat nil, got %v", out[0].Amount)
	}
}

type fakeHistory struct {
	articles map[string]bool
	rounds   map[string]bool
	err      error
}

func (f *fakeHistory) ArticleSent(_ context.Context, url string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.articles[url], nil
}

func (f *fakeHistory) RoundSent(_ context.Context, project, roundType string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.rounds[project+"|"+roundType], nil
}

func TestFilterSentNews(t *testing.T) {
	h := &fakeHistory{articles: map[string]bool{"https://a/1": true}}
	items := []models.NewsItem{
		{Title: "sent", URL: "https://a/1"},
		{Title: "new", URL: "https://a/2"},
	}

	out := FilterSentNews(context.Background(), h, items, discard())
	if len(out) != 1 || out[0].URL != "https://a/2" {
		t.Fatalf("got %+v, want only the unsent item", out)
	}
}

func TestFilterSentNewsLookupFailureKeepsItem(t *testing.T) {
	h := &fakeHistory{err: errors.New("disk gone")}
	items := []models.NewsItem{{Title: "x", URL: "https://a/1"}}

	out := FilterSentNews(context.Background(), h, items, discard())
	if len(out) != 1 {
		t.Fatal("a store lookup failure must treat the item as not yet sent")
	}
}

func TestFilterSentRounds(t *testing.T) {
	h := &fakeHistory{rounds: map[string]bool{"acme|Seed": true}}
	rounds := []models.FundraisingRound{
		{Project: "Acme", RoundType: "Seed"},
		{Project: "Acme", RoundType: "Series A"},
		{Project: "Other"},
	}

	out := FilterSentRounds(context.Background(), h, rounds, discard())
	if len(out) != 2 {
		t.Fatalf("got %d rounds, want 2", len(out))
	}
	if out[0].RoundType != "Series A" || out[1].Project != "Other" {
		t.Errorf("wrong survivors: %+v", out)
	}
}
