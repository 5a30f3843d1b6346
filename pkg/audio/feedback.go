package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Strategy selects how the gate prevents the microphone from picking up
// speaker output.
type Strategy string

const (
	// StrategyAPIHandled forwards everything and relies on server-side noise
	// reduction and turn detection.
	StrategyAPIHandled Strategy = "api_handled"
	// StrategySmartMuting suppresses microphone chunks while the assistant
	// is speaking and for a short delay afterwards.
	StrategySmartMuting Strategy = "smart_muting"
	// StrategyEchoCancellation forwards everything; client-side echo
	// cancellation is a pass-through pending a real algorithm.
	StrategyEchoCancellation Strategy = "echo_cancellation"
)

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyAPIHandled, StrategySmartMuting, StrategyEchoCancellation:
		return true
	}
	return false
}

// Gate applies a feedback-suppression strategy to microphone chunks. The
// receive loop marks assistant speech start/end; the send loop asks the gate
// whether each captured chunk should be forwarded.
type Gate struct {
	strategy Strategy
	// unmuteDelay is how long after assistant speech ends before the
	// microphone opens again under smart muting.
	unmuteDelay time.Duration

	now func() time.Time

	mu         sync.Mutex
	aiSpeaking bool
	lastAITime time.Time
	manualMute bool
}

// NewGate returns a gate for the given strategy.
func NewGate(strategy Strategy) *Gate {
	g := &Gate{
		strategy:    strategy,
		unmuteDelay: 500 * time.Millisecond,
		now:         time.Now,
	}
	switch strategy {
	case StrategyAPIHandled:
		slog.Info("Using API-handled noise cancellation, no client-side audio processing")
	case StrategySmartMuting:
		slog.Info("Using smart muting, microphone suppressed while assistant speaks")
	case StrategyEchoCancellation:
		slog.Info("Using echo cancellation (pass-through)")
	}
	return g
}

// MarkSpeakingStart records that assistant audio is being played.
func (g *Gate) MarkSpeakingStart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aiSpeaking = true
	g.lastAITime = g.now()
}

// MarkSpeakingEnd records that assistant audio has finished.
func (g *Gate) MarkSpeakingEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.aiSpeaking {
		g.aiSpeaking = false
		g.lastAITime = g.now()
	}
}

// SetManualMute mutes or unmutes the microphone regardless of strategy.
func (g *Gate) SetManualMute(muted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.manualMute = muted
}

// Process returns the chunk to forward and true, or nil and false when the
// chunk should be suppressed.
func (g *Gate) Process(chunk []byte) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.manualMute {
		return nil, false
	}

	switch g.strategy {
	case StrategySmartMuting:
		if g.aiSpeaking {
			return nil, false
		}
		if g.now().Sub(g.lastAITime) < g.unmuteDelay {
			return nil, false
		}
	}
	return chunk, true
}

// Status returns a snapshot of the gate's state for diagnostics.
func (g *Gate) Status() map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return map[string]any{
		"strategy":    string(g.strategy),
		"ai_speaking": g.aiSpeaking,
		"manual_mute": g.manualMute,
	}
}

// String implements fmt.Stringer.
func (g *Gate) String() string {
	return fmt.Sprintf("audio gate (%s)", g.strategy)
}
