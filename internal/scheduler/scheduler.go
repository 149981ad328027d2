package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
	"MarketLens/internal/watchlist"
)

// Sender delivers messages to the operator chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks and the bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Watchlist *watchlist.Manager
	Notifier  Sender
	Recorder  recorder.Recorder
	Ctx       context.Context
	logger    zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, wl *watchlist.Manager, sender Sender, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Watchlist: wl,
		Notifier:  sender,
		Recorder:  rec,
		Ctx:       ctx,
		logger:    log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the daily report and the weekly digest.
func (s *Scheduler) RegisterAll(dailyCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

// analyzeWatchlist runs every watched symbol and records the successes.
func (s *Scheduler) analyzeWatchlist() []collector.Result {
	symbols := s.Watchlist.List()
	if len(symbols) == 0 {
		s.logger.Info().Msg("watchlist empty, nothing to analyze")
		return nil
	}
	results := s.Collector.AnalyzeAll(s.Ctx, symbols)
	for _, r := range results {
		if r.Err == nil {
			s.record(r.Analysis)
		}
	}
	return results
}

func (s *Scheduler) dailyTask() {
	s.logger.Info().Msg("running daily task")
	for _, r := range s.analyzeWatchlist() {
		if r.Err != nil {
			s.trySend(notifier.FormatError(r.Symbol, r.Err))
			continue
		}
		s.trySend(notifier.FormatReport(r.Analysis))
	}
}

func (s *Scheduler) digestTask() {
	s.logger.Info().Msg("running digest task")
	results := s.analyzeWatchlist()
	if len(results) == 0 {
		return
	}
	var analyses []*model.Analysis
	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Symbol)
			continue
		}
		analyses = append(analyses, r.Analysis)
	}
	msg := notifier.FormatDigest(analyses)
	if len(failed) > 0 {
		msg += "\n❌ Failed: " + strings.Join(failed, ", ")
	}
	s.trySend(msg)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/analyze@SomeBot AAPL" addresses a bot in a group chat
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch cmd {
	case "/analyze":
		if len(args) != 1 {
			return "Usage: /analyze SYMBOL"
		}
		a, err := s.Collector.Analyze(ctx, args[0])
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", args[0]).Msg("analyze command failed")
			return notifier.FormatError(strings.ToUpper(args[0]), err)
		}
		s.record(a)
		return notifier.FormatReport(a)
	case "/watch":
		if len(args) != 1 {
			return "Usage: /watch SYMBOL"
		}
		sym, err := s.Watchlist.Add(args[0])
		switch {
		case errors.Is(err, watchlist.ErrDuplicate):
			return fmt.Sprintf("%s is already on the watchlist.", sym)
		case err != nil:
			return notifier.FormatError(args[0], err)
		}
		s.recordWatch("ADD", sym)
		return fmt.Sprintf("✅ Added %s to the watchlist.", sym)
	case "/unwatch":
		if len(args) != 1 {
			return "Usage: /unwatch SYMBOL"
		}
		sym, err := s.Watchlist.Remove(args[0])
		switch {
		case errors.Is(err, watchlist.ErrNotFound):
			return fmt.Sprintf("%s is not on the watchlist.", sym)
		case err != nil:
			return notifier.FormatError(args[0], err)
		}
		s.recordWatch("REMOVE", sym)
		return fmt.Sprintf("🗑 Removed %s from the watchlist.", sym)
	case "/list":
		return notifier.FormatWatchlist(s.Watchlist.List())
	case "/history":
		if len(args) != 1 {
			return "Usage: /history SYMBOL"
		}
		sym, err := watchlist.Normalize(args[0])
		if err != nil {
			return notifier.FormatError(args[0], err)
		}
		runs, err := s.Recorder.History(sym, 5)
		if err != nil {
			return notifier.FormatError(sym, err)
		}
		return notifier.FormatHistory(sym, runs)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) record(a *model.Analysis) {
	if _, err := s.Recorder.RecordAnalysis(a); err != nil {
		s.logger.Error().Err(err).Str("symbol", a.Symbol).Msg("record analysis")
	}
}

func (s *Scheduler) recordWatch(action, symbol string) {
	if err := s.Recorder.RecordWatchlistEvent(&recorder.WatchlistEvent{
		Action: action,
		Symbol: symbol,
		Source: "telegram",
	}); err != nil {
		s.logger.Error().Err(err).Msg("record watchlist event")
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
