package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/api"
	"MarketLens/internal/chart"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/metrics"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
	"MarketLens/internal/scheduler"
	"MarketLens/internal/watchlist"
)

// logSender stands in for Telegram when no bot token is configured.
type logSender struct{}

func (logSender) SendWithRetry(_ context.Context, text string, _ int) error {
	log.Info().Str("message", text).Msg("notification (telegram disabled)")
	return nil
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Caller().Logger()
	log.Info().Msg("MarketLens starting...")

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("load .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	// Init fetcher
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.DataSource.APIKey,
		collector.ClientOptions{
			Timeout:        cfg.DataSource.Timeout,
			RequestsPerSec: cfg.DataSource.RequestsPerSec,
			Proxy:          cfg.Proxy,
		})
	if err != nil {
		log.Fatal().Err(err).Msg("init fetcher")
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init collector
	m := metrics.New()
	col := collector.NewCollector(fetcher, collector.Options{
		Days:       cfg.DataSource.Days,
		Params:     cfg.Indicators.Params,
		Thresholds: cfg.Indicators.Thresholds,
		Metrics:    m,
	})

	// Init watchlist
	wl, err := watchlist.NewManager(cfg.Watchlist.File, cfg.Watchlist.Symbols)
	if err != nil {
		log.Fatal().Err(err).Msg("init watchlist")
	}
	log.Info().Strs("symbols", wl.List()).Msg("watchlist loaded")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	var sender scheduler.Sender = logSender{}
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn, err = notifier.NewTelegramNotifier(notifier.TelegramOptions{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			Proxy:    cfg.Proxy,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("init telegram notifier")
		}
		sender = tn
	} else {
		log.Warn().Msg("telegram.bot_token not set, notifications go to the log")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, wl, sender, rec)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Start HTTP API
	srv := api.New(api.Deps{
		Collector: col,
		Watchlist: wl,
		Recorder:  rec,
		Metrics:   m,
		Chart:     chart.Options{Thresholds: cfg.Indicators.Thresholds},
	}, log.Logger)
	srv.Start(cfg.HTTP.Addr)

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing daily task now")
		go sched.RunDailyNow()
	}

	log.Info().Msg("MarketLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api shutdown")
	}
	cancel()
	log.Info().Msg("MarketLens stopped")
}
