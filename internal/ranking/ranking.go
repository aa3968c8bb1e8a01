// Package ranking assigns heuristic relevance scores and orders records
// for the digest. Scoring is a pure function of a record and the RuleSet
// the engine was built with; no package-level tables, no hidden state.
package ranking

import (
	"sort"
	"strings"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
)

// VIPScore is the sentinel forced onto vip items so they outrank every
// non-vip record regardless of the heuristic terms.
const VIPScore = 1000

// RuleSet holds every scoring table. Values are passed in at
// construction time so runs can override them and tests stay
// deterministic.
type RuleSet struct {
	SourceBonus        map[string]float64 `yaml:"sourceBonus"`
	DefaultSourceBonus float64            `yaml:"defaultSourceBonus"`
	CategoryBonus      map[string]float64 `yaml:"categoryBonus"`
	TagRepeatBonus     float64            `yaml:"tagRepeatBonus"`
	TopicBonus         float64            `yaml:"topicBonus"`
	PriorityTopics     []string           `yaml:"priorityTopics"`

	TopInvestors        []string           `yaml:"topInvestors"`
	InvestorBonus       float64            `yaml:"investorBonus"`
	RoundBonus          map[string]float64 `yaml:"roundBonus"`
	AuthoritativeSource string             `yaml:"authoritativeSource"`
	AuthorityBonus      float64            `yaml:"authorityBonus"`

	CategoryMultiplier map[string]float64 `yaml:"categoryMultiplier"`
	SocialTopicBonus   float64            `yaml:"socialTopicBonus"`
}

// DefaultRules returns the stock scoring tables.
func DefaultRules() RuleSet {
	return RuleSet{
		SourceBonus: map[string]float64{
			// Tier 1
			"coindesk":      25,
			"cointelegraph": 25,
			"theblock":      25,
			"decrypt":       20,
			"dlnews":        20,
			"thedefiant":    20,
			"blockworks":    20,
			// Tier 2
			"bitcoinmagazine": 15,
			"cryptoslate":     15,
			"cryptonews":      15,
			"rekt":            15,
			"cryptobriefing":  15,
			// Substack
			"bankless":         20,
			"week_in_ethereum": 20,
			// Russian
			"forklog":    10,
			"bits_media": 10,
		},
		DefaultSourceBonus: 5,
		CategoryBonus: map[string]float64{
			"substack": 15,
			"news":     10,
			"russian":  8,
			"medium":   5,
		},
		TagRepeatBonus: 10,
		TopicBonus:     8,
		PriorityTopics: []string{
			"restaking", "stablecoin", "tokenization", "rwa",
			"etf", "layer 2", "rollup", "zk", "airdrop",
			"sec", "regulation", "hack", "exploit",
		},
		TopInvestors: []string{
			"a16z", "Andreessen Horowitz", "Paradigm", "Polychain",
			"Pantera", "Dragonfly", "Multicoin", "Framework",
			"Coinbase Ventures", "Binance Labs", "Sequoia",
			"Galaxy Digital", "Lightspeed", "Bessemer",
			"ICONIQ", "Tiger Global", "SoftBank",
		},
		InvestorBonus: 20,
		RoundBonus: map[string]float64{
			"Series D": 18,
			"Series C": 15,
			"Series B": 12,
			"Series A": 10,
			"Seed":     5,
			"Pre-Seed": 3,
		},
		AuthoritativeSource: "defillama",
		AuthorityBonus:      5,
		CategoryMultiplier: map[string]float64{
			"regulatory":    1.5,
			"institutional": 1.5,
			"vc":            1.4,
			"research":      1.3,
			"founder":       1.2,
		},
		SocialTopicBonus: 10,
	}
}

// Engine scores and ranks records against one RuleSet.
type Engine struct {
	rules RuleSet
}

// New builds an engine from explicit rules.
func New(rules RuleSet) *Engine {
	return &Engine{rules: rules}
}

// ScoreNews sets the item's score and matched topic tags. VIP items get
// the sentinel score and keep their tags.
func (e *Engine) ScoreNews(item *models.NewsItem) {
	item.Tags = e.matchTopics(item.Title + " " + item.Summary)

	if item.VIP {
		item.Score = VIPScore
		return
	}

	score, ok := e.rules.SourceBonus[item.Source]
	if !ok {
		score = e.rules.DefaultSourceBonus
	}
	score += float64(item.TagRepeats) * e.rules.TagRepeatBonus
	score += e.rules.CategoryBonus[string(item.Category)]
	score += float64(len(item.Tags)) * e.rules.TopicBonus

	item.Score = score
}

// ScoreRound sets the round's score from its amount tier, investor list,
// round type, and source authority.
func (e *Engine) ScoreRound(r *models.FundraisingRound) {
	var score float64

	if r.Amount != nil {
		switch a := *r.Amount; {
		case a >= 100:
			score += 50
		case a >= 50:
			score += 35
		case a >= 20:
			score += 25
		case a >= 10:
			score += 15
		case a > 0:
			score += 5
		}
	}

	// One-time bonus: first matching top-tier investor only.
	for _, inv := range append(append([]string{}, r.LeadInvestors...), r.OtherInvestors...) {
		if e.matchesTopInvestor(inv) {
			score += e.rules.InvestorBonus
			break
		}
	}

	score += e.rules.RoundBonus[r.RoundType]

	if r.Source == e.rules.AuthoritativeSource {
		score += e.rules.AuthorityBonus
	}

	r.Score = score
}

// ScorePost sets the post's score: engagement weighted by category
// multiplier, plus an additive topic bonus.
func (e *Engine) ScorePost(p *models.SocialPost) {
	p.Tags = e.matchTopics(p.Text)

	engagement := float64(p.Likes + 3*p.Retweets + 2*p.Replies)

	multiplier, ok := e.rules.CategoryMultiplier[p.Category]
	if !ok {
		multiplier = 1.0
	}

	p.Score = engagement*multiplier + float64(len(p.Tags))*e.rules.SocialTopicBonus
}

// RankNews stable-sorts items vip-first, then by descending score.
// Equal-score ties keep their original relative order.
func (e *Engine) RankNews(items []models.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].VIP != items[j].VIP {
			return items[i].VIP
		}
		return items[i].Score > items[j].Score
	})
}

// RankRounds stable-sorts rounds by descending score.
func (e *Engine) RankRounds(rounds []models.FundraisingRound) {
	sort.SliceStable(rounds, func(i, j int) bool {
		return rounds[i].Score > rounds[j].Score
	})
}

// RankPosts stable-sorts posts by descending score.
func (e *Engine) RankPosts(posts []models.SocialPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score > posts[j].Score
	})
}

// matchTopics returns the priority topics found in text, preserving the
// configured order. Matching is case-insensitive substring search.
func (e *Engine) matchTopics(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, topic := range e.rules.PriorityTopics {
		if strings.Contains(lower, strings.ToLower(topic)) {
			found = append(found, topic)
		}
	}
	return found
}

func (e *Engine) matchesTopInvestor(name string) bool {
	lower := strings.ToLower(name)
	for _, top := range e.rules.TopInvestors {
		if strings.Contains(lower, strings.ToLower(top)) {
			return true
		}
	}
	return false
}
