package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
)

// Limits for scraped pages: institutional sites publish rarely, so a
// handful of cards per page is plenty.
const (
	maxScrapedLinks    = 10
	maxScrapedArticles = 5
	minScrapedTitleLen = 10
)

// cryptoKeywords filter scraped pages down to digital-asset content;
// institutional research sites mix in plenty of TradFi material.
var cryptoKeywords = []string{
	"bitcoin", "crypto", "blockchain", "defi",
	"stablecoin", "digital asset", "ethereum",
}

// PageSource scrapes an article listing page that has no RSS feed
// (ARK Invest, Grayscale Research). Scraped items enter the pipeline as
// vip records with published-at = now, since listing pages rarely expose
// machine-readable dates.
type PageSource struct {
	name        string
	url         string
	linkPattern string
	client      *http.Client
	now         func() time.Time
}

// NewPageSource builds a scraper for one listing page. linkPattern is
// the path fragment article links must contain.
func NewPageSource(name, pageURL, linkPattern string) *PageSource {
	return &PageSource{
		name:        name,
		url:         pageURL,
		linkPattern: linkPattern,
		client:      &http.Client{Timeout: 30 * time.Second},
		now:         time.Now,
	}
}

// FetchArticles scrapes the page and returns crypto-related articles.
func (s *PageSource) FetchArticles(ctx context.Context) ([]models.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", s.name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", s.name, err)
	}

	now := s.now()
	seen := make(map[string]bool)
	var items []models.NewsItem

	doc.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if href == "" || !strings.Contains(href, s.linkPattern) || seen[href] {
			return true
		}
		seen[href] = true

		title := headingText(link)
		if len(title) < minScrapedTitleLen {
			return true
		}
		if !s.cryptoRelated(title, link) {
			return true
		}

		items = append(items, models.NewsItem{
			Title:       title,
			Author:      s.name,
			URL:         s.absoluteURL(href),
			Source:      s.name,
			Category:    models.CategoryVIP,
			PublishedAt: now,
			TagRepeats:  1,
			VIP:         true,
		})

		return len(items) < maxScrapedLinks
	})

	if len(items) > maxScrapedArticles {
		items = items[:maxScrapedArticles]
	}
	return items, nil
}

func (s *PageSource) Name() string {
	return s.name
}

// headingText prefers a heading inside the link card over the bare link
// text.
func headingText(link *goquery.Selection) string {
	heading := link.Find("h2, h3, h4").First()
	if heading.Length() > 0 {
		return strings.TrimSpace(heading.Text())
	}
	return strings.TrimSpace(link.Text())
}

// cryptoRelated checks the title first, then the surrounding card markup
// for tag labels.
func (s *PageSource) cryptoRelated(title string, link *goquery.Selection) bool {
	lower := strings.ToLower(title)
	for _, kw := range cryptoKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	parent := strings.ToLower(link.Parent().Text())
	for _, kw := range cryptoKeywords {
		if strings.Contains(parent, kw) {
			return true
		}
	}
	return false
}

func (s *PageSource) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(s.url)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
