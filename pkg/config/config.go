// Package config parses and validates the agent's CLI knobs and environment
// credentials before the orchestrator is constructed.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/audio"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
)

// Provider selectors.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the validated agent configuration.
type Config struct {
	Provider         string
	APIKey           string
	IntervalMinutes  int
	FeedbackStrategy audio.Strategy
	NoiseReduction   string
	Voice            string
	HistoryDir       string
	RecordingsDir    string
	DBPath           string
	Debug            bool
}

// Load parses args and reads credentials from the environment. The returned
// config is already validated.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("getback2werk", flag.ContinueOnError)

	cfg := &Config{}
	var strategy string
	fs.StringVar(&cfg.Provider, "provider", ProviderOpenAI, "realtime backend: openai or gemini")
	fs.IntVar(&cfg.IntervalMinutes, "interval", 5, "check-in interval in minutes")
	fs.StringVar(&strategy, "feedback-strategy", string(audio.StrategyAPIHandled), "audio feedback prevention: api_handled, smart_muting, or echo_cancellation")
	fs.StringVar(&cfg.NoiseReduction, "noise-reduction", "far_field", "noise reduction type: none, near_field, or far_field")
	fs.StringVar(&cfg.Voice, "voice", "", "voice name (empty uses the provider default)")
	fs.StringVar(&cfg.HistoryDir, "history-dir", "conversation_histories", "directory for conversation history snapshots")
	fs.StringVar(&cfg.RecordingsDir, "recordings-dir", "", "directory for mic recordings (empty disables recording)")
	fs.StringVar(&cfg.DBPath, "db", "", "sqlite path for the turn archive (empty disables the archive)")
	fs.BoolVar(&cfg.Debug, "v", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.FeedbackStrategy = audio.Strategy(strategy)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("check-in interval must be a positive number of minutes, got %d", c.IntervalMinutes)
	}
	if !audio.ValidStrategy(c.FeedbackStrategy) {
		return fmt.Errorf("unknown feedback strategy %q", c.FeedbackStrategy)
	}
	switch c.NoiseReduction {
	case "none", "near_field", "far_field":
	default:
		return fmt.Errorf("unknown noise reduction type %q", c.NoiseReduction)
	}

	switch c.Provider {
	case ProviderOpenAI:
		c.APIKey = os.Getenv("OPENAI_API_KEY")
		if c.APIKey == "" {
			return &provider.AuthError{Provider: c.Provider, Err: errors.New("OPENAI_API_KEY environment variable is required")}
		}
	case ProviderGemini:
		c.APIKey = os.Getenv("GEMINI_API_KEY")
		if c.APIKey == "" {
			return &provider.AuthError{Provider: c.Provider, Err: errors.New("GEMINI_API_KEY environment variable is required")}
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	return nil
}
