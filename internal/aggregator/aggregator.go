// Package aggregator orchestrates one digest run: fetch fan-out,
// normalization, dedup against the batch and the sent history, scoring,
// rendering, chunked delivery, and the mark-sent write-back.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SoSmDe/Market-Pulse-bot/internal/config"
	"github.com/SoSmDe/Market-Pulse-bot/internal/dedup"
	"github.com/SoSmDe/Market-Pulse-bot/internal/digest"
	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
	"github.com/SoSmDe/Market-Pulse-bot/internal/ranking"
	"github.com/SoSmDe/Market-Pulse-bot/internal/sources"
)

// fetchTimeout bounds each individual source fetch. One slow source must
// not stall the whole run.
const fetchTimeout = 45 * time.Second

// morningCutoffHour splits the day into the morning and evening digest.
const morningCutoffHour = 14

// Sink delivers ordered digest chunks and reports how many went out
// before the first failure.
type Sink interface {
	SendDigest(ctx context.Context, chunks []string) (int, error)
}

// HistoryStore is the full delivery-state surface the pipeline needs.
type HistoryStore interface {
	dedup.History
	MarkArticle(ctx context.Context, url, title, source string) error
	MarkRound(ctx context.Context, project, roundType string, amount *float64, sourceURL string) error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Aggregator runs the digest pipeline.
type Aggregator struct {
	cfg    *config.Config
	store  HistoryStore
	sink   Sink
	engine *ranking.Engine
	log    *slog.Logger

	articleSources     []models.ArticleSource
	fundraisingSources []models.FundraisingSource
	socialSources      []models.SocialSource

	dryRun bool
	now    func() time.Time
}

// New wires the pipeline and builds every configured source.
func New(cfg *config.Config, store HistoryStore, sink Sink, log *slog.Logger) *Aggregator {
	a := &Aggregator{
		cfg:    cfg,
		store:  store,
		sink:   sink,
		engine: ranking.New(cfg.Scoring),
		log:    log,
		now:    time.Now,
	}
	a.buildSources()
	return a
}

// SetDryRun switches delivery off: the digest is printed, nothing is
// sent, and nothing is recorded as delivered.
func (a *Aggregator) SetDryRun(dry bool) {
	a.dryRun = dry
}

func (a *Aggregator) buildSources() {
	feeds := a.cfg.Feeds
	vipWindow := time.Duration(a.cfg.Windows.VIPHours) * time.Hour
	articleWindow := time.Duration(a.cfg.Windows.ArticleHours) * time.Hour
	fundingWindow := time.Duration(a.cfg.Windows.FundraisingHours) * time.Hour
	socialWindow := time.Duration(a.cfg.Windows.SocialHours) * time.Hour

	addFeeds := func(group map[string]string, category models.SourceCategory, window time.Duration, vip bool) {
		for name, url := range group {
			a.articleSources = append(a.articleSources, sources.NewFeedSource(name, url, category, window, vip))
		}
	}

	addFeeds(feeds.VIP, models.CategoryVIP, vipWindow, true)
	addFeeds(feeds.Protocol, models.CategoryProtocol, vipWindow, true)
	addFeeds(feeds.News, models.CategoryNews, articleWindow, false)
	addFeeds(feeds.DeFi, models.CategoryNews, articleWindow, false)
	addFeeds(feeds.Regulation, models.CategoryNews, articleWindow, false)
	addFeeds(feeds.Substack, models.CategorySubstack, articleWindow, false)
	addFeeds(feeds.Russian, models.CategoryRussian, articleWindow, false)

	for _, tag := range feeds.MediumTags {
		url := fmt.Sprintf("https://medium.com/feed/tag/%s", tag)
		a.articleSources = append(a.articleSources, sources.NewFeedSource("medium/"+tag, url, models.CategoryMedium, articleWindow, false))
	}

	for _, target := range a.cfg.Scrapes {
		a.articleSources = append(a.articleSources, sources.NewPageSource(target.Name, target.URL, target.LinkPattern))
	}

	a.fundraisingSources = append(a.fundraisingSources, sources.NewDefiLlamaSource(fundingWindow))
	for name, url := range feeds.Fundraising {
		a.fundraisingSources = append(a.fundraisingSources, sources.NewFundraisingFeedSource(name, url, fundingWindow))
	}

	if len(a.cfg.Social.Accounts) > 0 {
		accounts := make([]sources.Account, 0, len(a.cfg.Social.Accounts))
		for _, acc := range a.cfg.Social.Accounts {
			accounts = append(accounts, sources.Account{Handle: acc.Handle, Category: acc.Category})
		}
		a.socialSources = append(a.socialSources, sources.NewNitterSource(a.cfg.Social.Instances, accounts, socialWindow))
	}
}

// RunOnce executes one full digest batch.
func (a *Aggregator) RunOnce(ctx context.Context) error {
	items, rounds, posts := a.collect(ctx)
	a.log.Info("collected candidates", "articles", len(items), "rounds", len(rounds), "posts", len(posts))

	items = dedup.CollapseNews(items)
	rounds = dedup.CollapseRounds(rounds)

	items = dedup.FilterSentNews(ctx, a.store, items, a.log)
	rounds = dedup.FilterSentRounds(ctx, a.store, rounds, a.log)
	a.log.Info("after dedup", "articles", len(items), "rounds", len(rounds))

	for i := range items {
		a.engine.ScoreNews(&items[i])
	}
	for i := range rounds {
		a.engine.ScoreRound(&rounds[i])
	}
	for i := range posts {
		a.engine.ScorePost(&posts[i])
	}

	var vip, regular []models.NewsItem
	for _, item := range items {
		if item.VIP {
			vip = append(vip, item)
		} else {
			regular = append(regular, item)
		}
	}
	a.engine.RankNews(vip)
	a.engine.RankNews(regular)
	a.engine.RankRounds(rounds)
	a.engine.RankPosts(posts)

	if len(posts) > 0 {
		a.log.Info("top social post", "author", posts[0].Author, "score", posts[0].Score, "url", posts[0].URL)
	}

	limits := a.cfg.Digest.Limits()
	sel := digest.Select(digest.Input{Rounds: rounds, VIP: vip, Articles: regular}, limits)
	if sel.Empty() {
		a.log.Info("nothing new to deliver")
		return nil
	}

	now := a.now().In(a.cfg.Schedule.Location())
	morning := now.Hour() < morningCutoffHour

	body := digest.Render(sel, morning)
	chunks := digest.Chunks(body, limits.ChunkSize)

	if a.dryRun {
		for _, chunk := range chunks {
			fmt.Println(chunk)
			fmt.Println("---")
		}
		return nil
	}

	delivered, err := a.sink.SendDigest(ctx, chunks)
	if err != nil {
		// Nothing is recorded: anything that failed to reach the
		// channel must be eligible again next run.
		return fmt.Errorf("deliver digest after %d of %d chunks: %w", delivered, len(chunks), err)
	}
	a.log.Info("digest delivered", "chunks", delivered,
		"rounds", len(sel.Rounds), "research", len(sel.Research),
		"protocol", len(sel.Protocol), "articles", len(sel.Articles))

	a.markDelivered(ctx, sel)

	if morning && a.cfg.Retention.Days > 0 {
		retention := time.Duration(a.cfg.Retention.Days) * 24 * time.Hour
		if removed, err := a.store.Prune(ctx, retention); err != nil {
			a.log.Error("history pruning failed", "error", err)
		} else if removed > 0 {
			a.log.Info("pruned history", "removed", removed)
		}
	}

	return nil
}

// collect fans out over all sources concurrently. Each fetch carries its
// own timeout; a failed source is logged and contributes nothing.
func (a *Aggregator) collect(ctx context.Context) ([]models.NewsItem, []models.FundraisingRound, []models.SocialPost) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		items  []models.NewsItem
		rounds []models.FundraisingRound
		posts  []models.SocialPost
	)

	for _, src := range a.articleSources {
		wg.Add(1)
		go func(src models.ArticleSource) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			fetched, err := src.FetchArticles(fetchCtx)
			if err != nil {
				a.log.Warn("article fetch failed", "source", src.Name(), "error", err)
				return
			}
			mu.Lock()
			items = append(items, fetched...)
			mu.Unlock()
		}(src)
	}

	for _, src := range a.fundraisingSources {
		wg.Add(1)
		go func(src models.FundraisingSource) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			fetched, err := src.FetchRounds(fetchCtx)
			if err != nil {
				a.log.Warn("fundraising fetch failed", "source", src.Name(), "error", err)
				return
			}
			mu.Lock()
			rounds = append(rounds, fetched...)
			mu.Unlock()
		}(src)
	}

	for _, src := range a.socialSources {
		wg.Add(1)
		go func(src models.SocialSource) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			fetched, err := src.FetchPosts(fetchCtx)
			if err != nil {
				a.log.Warn("social fetch failed", "source", src.Name(), "error", err)
				return
			}
			mu.Lock()
			posts = append(posts, fetched...)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return items, rounds, posts
}

// markDelivered records every rendered record. A write failure is logged
// and skipped: a duplicate next run beats losing the history entry.
func (a *Aggregator) markDelivered(ctx context.Context, sel digest.Selection) {
	for _, r := range sel.Rounds {
		if err := a.store.MarkRound(ctx, r.Key(), r.HistoryRoundType(), r.Amount, r.SourceURL); err != nil {
			a.log.Error("record round failed", "project", r.Project, "error", err)
		}
	}
	for _, group := range [][]models.NewsItem{sel.Research, sel.Protocol, sel.Articles} {
		for _, item := range group {
			if err := a.store.MarkArticle(ctx, item.URL, item.Title, item.Source); err != nil {
				a.log.Error("record article failed", "url", item.URL, "error", err)
			}
		}
	}
}
