package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SoSmDe/Market-Pulse-bot/internal/aggregator"
	"github.com/SoSmDe/Market-Pulse-bot/internal/config"
	"github.com/SoSmDe/Market-Pulse-bot/internal/logging"
	"github.com/SoSmDe/Market-Pulse-bot/internal/scheduler"
	"github.com/SoSmDe/Market-Pulse-bot/internal/store"
	"github.com/SoSmDe/Market-Pulse-bot/internal/telegram"
)

func main() {
	var (
		schedule = flag.Bool("schedule", false, "run on the configured cron schedule instead of once")
		dryRun   = flag.Bool("dry-run", false, "render the digest to stdout without sending or recording it")
		stats    = flag.Bool("stats", false, "print delivery history counts and exit")
		cleanup  = flag.Int("cleanup", 0, "remove history entries older than N days and exit")
	)
	flag.Parse()

	if err := run(*schedule, *dryRun, *stats, *cleanup); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(schedule, dryRun, stats bool, cleanupDays int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel)

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case stats:
		counts, err := db.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("articles sent: %d\nrounds sent:   %d\n", counts.Articles, counts.Rounds)
		return nil
	case cleanupDays > 0:
		removed, err := db.Prune(ctx, time.Duration(cleanupDays)*24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d history entries\n", removed)
		return nil
	}

	var sink aggregator.Sink
	if !dryRun {
		chatID, err := cfg.Telegram.ChatIDInt64()
		if err != nil {
			return err
		}
		bot, err := telegram.NewBot(cfg.Telegram.BotToken, chatID)
		if err != nil {
			return err
		}
		log.Info("telegram bot ready", "username", bot.Username())
		sink = bot
	}

	agg := aggregator.New(cfg, db, sink, log)
	agg.SetDryRun(dryRun)

	if !schedule {
		return agg.RunOnce(ctx)
	}

	sched := scheduler.New(cfg.Schedule.Location(), log)
	err = sched.Add(cfg.Schedule.Cron, func(jobCtx context.Context) {
		if err := agg.RunOnce(jobCtx); err != nil {
			log.Error("digest run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", cfg.Schedule.Cron, err)
	}

	log.Info("running on schedule", "cron", cfg.Schedule.Cron, "timezone", cfg.Schedule.Timezone)
	sched.Run(ctx)
	return nil
}
