// Package digest turns ranked record lists into the Telegram-ready text
// body and splits it into bounded chunks.
package digest

import (
	"fmt"
	"html"
	"strings"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
)

var protocolEmoji = map[string]string{
	"uniswap":             "🦄",
	"aave":                "👻",
	"lido":                "🌊",
	"makerdao":            "🏛️",
	"compound":            "🔷",
	"curve":               "🔴",
	"eigenlayer":          "🔲",
	"hyperliquid":         "💎",
	"arbitrum":            "🔵",
	"optimism":            "🔴",
	"base":                "🔷",
	"solana":              "◎",
	"ethereum_foundation": "⟠",
	"pendle":              "🔶",
	"gmx":                 "🔵",
	"dydx":                "🟣",
	"synthetix":           "💠",
	"ethena":              "💵",
	"jupiter":             "🪐",
}

var vipEmoji = map[string]string{
	"a16z":               "🅰️",
	"a16z_crypto":        "🅰️",
	"paradigm":           "🔷",
	"delphi":             "🐬",
	"messari":            "📊",
	"coinbase":           "🔵",
	"chainalysis":        "🔗",
	"ark_invest":         "🚀",
	"grayscale":          "⬛",
	"vaneck_crypto":      "🟠",
	"bitwise":            "🔶",
	"franklin_templeton": "🔷",
}

// Limits are the render-time caps and the chunk budget.
type Limits struct {
	Rounds    int
	Research  int
	Protocol  int
	Articles  int
	ChunkSize int
}

// DefaultLimits mirrors the stock digest shape.
func DefaultLimits() Limits {
	return Limits{Rounds: 10, Research: 7, Protocol: 7, Articles: 10, ChunkSize: 4000}
}

// Input carries the ranked lists entering the renderer. VIP holds both
// research and protocol items; Select partitions them by category.
type Input struct {
	Rounds   []models.FundraisingRound
	VIP      []models.NewsItem
	Articles []models.NewsItem
}

// Selection is the capped set of records the digest will actually show.
// The aggregator records exactly these keys after delivery succeeds.
type Selection struct {
	Rounds   []models.FundraisingRound
	Research []models.NewsItem
	Protocol []models.NewsItem
	Articles []models.NewsItem
}

// Select applies the per-section caps to ranked input. Caps take the
// top-N after ranking; they are independent of how many were scored.
func Select(in Input, lim Limits) Selection {
	var research, protocol []models.NewsItem
	for _, item := range in.VIP {
		if item.Category == models.CategoryProtocol {
			protocol = append(protocol, item)
		} else {
			research = append(research, item)
		}
	}

	return Selection{
		Rounds:   capRounds(in.Rounds, lim.Rounds),
		Research: capItems(research, lim.Research),
		Protocol: capItems(protocol, lim.Protocol),
		Articles: capItems(in.Articles, lim.Articles),
	}
}

// Empty reports whether nothing survived selection.
func (sel Selection) Empty() bool {
	return len(sel.Rounds) == 0 && len(sel.Research) == 0 &&
		len(sel.Protocol) == 0 && len(sel.Articles) == 0
}

// Render turns the selection into one HTML digest body. Section order
// is fixed; sections with no records are omitted entirely. Titles and
// URLs are emitted in full, never shortened.
func Render(sel Selection, morning bool) string {
	var b strings.Builder

	if morning {
		b.WriteString("☀️ MARKET PULSE — Morning\n")
	} else {
		b.WriteString("🌙 MARKET PULSE — Evening\n")
	}

	if len(sel.Rounds) > 0 {
		b.WriteString("\n🔥 FUNDRAISING\n")
		for i, r := range sel.Rounds {
			writeRound(&b, i+1, r)
		}
	}

	if len(sel.Research) > 0 {
		b.WriteString("\n🔬 RESEARCH & INSIGHTS\n")
		for _, a := range sel.Research {
			writeVIPItem(&b, a, vipEmoji, "📝")
		}
	}

	if len(sel.Protocol) > 0 {
		b.WriteString("\n⛓️ PROTOCOL UPDATES\n")
		for _, a := range sel.Protocol {
			writeVIPItem(&b, a, protocolEmoji, "📢")
		}
	}

	if len(sel.Articles) > 0 {
		b.WriteString("\n📰 NEWS & ARTICLES\n")
		for i, a := range sel.Articles {
			fmt.Fprintf(&b, "\n%d. <b>%s</b>\n   — %s\n   🔗 %s\n", i+1, html.EscapeString(a.Title), a.Source, a.URL)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeRound(b *strings.Builder, n int, r models.FundraisingRound) {
	amount := "Undisclosed"
	if r.Amount != nil {
		amount = fmt.Sprintf("$%gM", *r.Amount)
	}

	lead := "—"
	if len(r.LeadInvestors) > 0 {
		lead = r.LeadInvestors[0]
	}

	fmt.Fprintf(b, "\n%d. <b>%s</b> — %s", n, html.EscapeString(r.Project), amount)
	if rt := displayRoundType(r.RoundType); rt != "" {
		fmt.Fprintf(b, " %s", rt)
	}
	fmt.Fprintf(b, "\n   Lead: %s\n", lead)
	if r.SourceURL != "" {
		fmt.Fprintf(b, "   🔗 %s\n", r.SourceURL)
	}
}

func writeVIPItem(b *strings.Builder, a models.NewsItem, emoji map[string]string, fallback string) {
	e, ok := emoji[a.Source]
	if !ok {
		e = fallback
	}
	fmt.Fprintf(b, "\n%s <b>%s</b>\n   — %s\n   🔗 %s\n", e, html.EscapeString(a.Title), a.Source, a.URL)
}

func displayRoundType(rt string) string {
	switch strings.ToLower(rt) {
	case "", "none", "unknown":
		return ""
	}
	return rt
}

func capRounds(rounds []models.FundraisingRound, n int) []models.FundraisingRound {
	if len(rounds) > n {
		return rounds[:n]
	}
	return rounds
}

func capItems(items []models.NewsItem, n int) []models.NewsItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
