package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/agent"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/audio"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/config"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/conversation"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider/gemini"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider/openai"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/screenshot"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/store"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/store/sqlite"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, err := newAdapter(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize provider", "error", err)
		os.Exit(1)
	}

	var turns store.TurnStore
	if cfg.DBPath != "" {
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to open turn archive", "error", err)
			os.Exit(1)
		}
		defer s.Close()
		turns = s
	}

	log := conversation.NewLog()
	if turns != nil {
		archived, err := turns.RecentTurns(ctx, conversation.PromptTurns)
		if err != nil {
			slog.Warn("Failed to load archived turns", "error", err)
		} else if len(archived) > 0 {
			log.Restore(archived)
			slog.Info("Restored conversation history from archive", "turns", len(archived))
		}
	}
	gate := audio.NewGate(cfg.FeedbackStrategy)
	pipe := audio.NewNullPipeline()

	a := agent.New(adapter, pipe, gate, log, turns, agent.Config{
		CheckInterval:  time.Duration(cfg.IntervalMinutes) * time.Minute,
		Voice:          cfg.Voice,
		NoiseReduction: cfg.NoiseReduction,
		RecordingsDir:  cfg.RecordingsDir,
	})

	err = a.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Agent stopped unexpectedly", "error", err)
	}

	// Persist the conversation before exiting, interrupt included.
	if log.Len() > 0 {
		path, err := log.SaveSnapshot(cfg.HistoryDir, "")
		if err != nil {
			slog.Error("Failed to save conversation history", "error", err)
		} else {
			slog.Info("Conversation history saved", "path", path, "turns", log.Len())
		}
	}
}

// newAdapter selects the provider adapter once at construction.
func newAdapter(ctx context.Context, cfg *config.Config) (provider.Adapter, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, cfg.APIKey, screenshot.Nop{})
	default:
		return openai.New(cfg.APIKey)
	}
}
