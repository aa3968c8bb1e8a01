package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SoSmDe/Market-Pulse-bot/internal/digest"
	"github.com/SoSmDe/Market-Pulse-bot/internal/ranking"
)

const (
	configPathEnv    = "MARKET_PULSE_CONFIG"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	databasePathEnv  = "DATABASE_PATH"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds everything one run needs: sources, scoring tables, digest
// limits, schedule, and delivery credentials.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Windows   WindowConfig    `yaml:"windows"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Scrapes   []ScrapeTarget  `yaml:"scrapes"`
	Social    SocialConfig    `yaml:"social"`
	Scoring   ranking.RuleSet `yaml:"scoring"`
	Digest    DigestConfig    `yaml:"digest"`
	Retention RetentionConfig `yaml:"retention"`
	LogLevel  string          `yaml:"logLevel"`
}

// TelegramConfig wires the delivery channel.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// ChatIDInt64 parses the chat id for the bot API.
func (t TelegramConfig) ChatIDInt64() (int64, error) {
	id, err := strconv.ParseInt(t.ChatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse chat id %q: %w", t.ChatID, err)
	}
	return id, nil
}

// DatabaseConfig locates the SQLite history file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig drives the cron scheduler.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// Location resolves the timezone, falling back to UTC.
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WindowConfig sets recency windows per source kind, in hours.
type WindowConfig struct {
	VIPHours         int `yaml:"vipHours"`
	ArticleHours     int `yaml:"articleHours"`
	FundraisingHours int `yaml:"fundraisingHours"`
	SocialHours      int `yaml:"socialHours"`
}

// FeedsConfig lists RSS sources by group. Map keys are source ids.
type FeedsConfig struct {
	VIP         map[string]string `yaml:"vip"`
	Protocol    map[string]string `yaml:"protocol"`
	News        map[string]string `yaml:"news"`
	DeFi        map[string]string `yaml:"defi"`
	Regulation  map[string]string `yaml:"regulation"`
	Substack    map[string]string `yaml:"substack"`
	Russian     map[string]string `yaml:"russian"`
	MediumTags  []string          `yaml:"mediumTags"`
	Fundraising map[string]string `yaml:"fundraising"`
}

// ScrapeTarget describes one non-RSS page to scrape.
type ScrapeTarget struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	LinkPattern string `yaml:"linkPattern"`
}

// SocialConfig configures the Nitter-backed social source.
type SocialConfig struct {
	Instances []string        `yaml:"instances"`
	Accounts  []SocialAccount `yaml:"accounts"`
}

// SocialAccount is one monitored handle.
type SocialAccount struct {
	Handle   string `yaml:"handle"`
	Category string `yaml:"category"`
}

// DigestConfig bounds the rendered output.
type DigestConfig struct {
	ChunkSize   int `yaml:"chunkSize"`
	MaxRounds   int `yaml:"maxRounds"`
	MaxResearch int `yaml:"maxResearch"`
	MaxProtocol int `yaml:"maxProtocol"`
	MaxArticles int `yaml:"maxArticles"`
}

// Limits converts the digest settings for the renderer.
func (d DigestConfig) Limits() digest.Limits {
	return digest.Limits{
		Rounds:    d.MaxRounds,
		Research:  d.MaxResearch,
		Protocol:  d.MaxProtocol,
		Articles:  d.MaxArticles,
		ChunkSize: d.ChunkSize,
	}
}

// RetentionConfig controls history pruning.
type RetentionConfig struct {
	Days int `yaml:"days"`
}

// Load reads the YAML config named by MARKET_PULSE_CONFIG, if any,
// merged over defaults, then applies env overrides for secrets.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.LogLevel = v
	}
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "data/market_pulse.db"},
		Schedule: ScheduleConfig{Cron: "0 7,17 * * *", Timezone: "Europe/Moscow"},
		Windows: WindowConfig{
			VIPHours:         48,
			ArticleHours:     24,
			FundraisingHours: 168,
			SocialHours:      12,
		},
		Feeds: FeedsConfig{
			News: map[string]string{
				"coindesk":      "https://www.coindesk.com/arc/outboundfeeds/rss/",
				"cointelegraph": "https://cointelegraph.com/rss",
				"theblock":      "https://www.theblock.co/rss.xml",
				"decrypt":       "https://decrypt.co/feed",
				"blockworks":    "https://blockworks.co/feed",
			},
			DeFi: map[string]string{
				"thedefiant": "https://thedefiant.io/feed",
			},
			Substack: map[string]string{
				"bankless": "https://newsletter.banklesshq.com/feed",
			},
			Russian: map[string]string{
				"forklog": "https://forklog.com/feed",
			},
			VIP: map[string]string{
				"messari":  "https://messari.io/rss",
				"paradigm": "https://www.paradigm.xyz/rss.xml",
			},
			Protocol: map[string]string{
				"uniswap": "https://blog.uniswap.org/rss.xml",
				"aave":    "https://governance.aave.com/latest.rss",
			},
			MediumTags: []string{"defi", "ethereum", "web3"},
			Fundraising: map[string]string{
				"crypto_news": "https://crypto.news/feed/",
			},
		},
		Scrapes: []ScrapeTarget{
			{Name: "ark_invest", URL: "https://www.ark-invest.com/articles", LinkPattern: "/articles/"},
			{Name: "grayscale", URL: "https://research.grayscale.com/", LinkPattern: "/research/"},
		},
		Social: SocialConfig{
			Instances: []string{"nitter.net", "nitter.cz", "nitter.poast.org", "nitter.privacydev.net"},
		},
		Scoring: ranking.DefaultRules(),
		Digest: DigestConfig{
			ChunkSize:   4000,
			MaxRounds:   10,
			MaxResearch: 7,
			MaxProtocol: 7,
			MaxArticles: 10,
		},
		Retention: RetentionConfig{Days: 30},
		LogLevel:  "info",
	}
}
