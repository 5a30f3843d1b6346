// Package agent contains the check-in orchestrator: the state machine and
// concurrency driver that ties the provider adapter, audio pipeline, tool
// dispatcher, and conversation log into repeating connect-converse-disconnect
// cycles on a timer.
package agent

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/audio"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/conversation"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/store"
)

// Config carries orchestrator timings and knobs. Zero values fall back to
// the production defaults.
type Config struct {
	// CheckInterval is the pause between scheduled check-in cycles.
	CheckInterval time.Duration

	// CycleTimeout is the hard ceiling on one cycle; a stuck cycle can never
	// block the timer past it.
	CycleTimeout time.Duration

	// DisconnectGrace is how long EndSession waits after its acknowledgement
	// before tearing the session down.
	DisconnectGrace time.Duration

	// Greeting is the trigger text sent at the start of every cycle.
	Greeting string

	// Voice and NoiseReduction are passed through to session configuration.
	Voice          string
	NoiseReduction string

	// RecordingsDir enables per-cycle WAV capture of outbound mic audio when
	// non-empty.
	RecordingsDir string
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.CheckInterval == 0 {
		out.CheckInterval = 5 * time.Minute
	}
	if out.CycleTimeout == 0 {
		out.CycleTimeout = 120 * time.Second
	}
	if out.DisconnectGrace == 0 {
		out.DisconnectGrace = 10 * time.Second
	}
	if out.Greeting == "" {
		out.Greeting = "check on me"
	}
	return out
}

// Agent drives periodic check-in cycles against one provider adapter.
type Agent struct {
	adapter provider.Adapter
	pipe    audio.Pipeline
	gate    *audio.Gate
	log     *conversation.Log
	turns   store.TurnStore // optional archive; nil disables
	alerter Alerter
	cfg     Config

	running atomic.Bool
	// cycleMu is the single-slot gate: a timer tick that fires while a cycle
	// is still tearing down is skipped rather than overlapped.
	cycleMu sync.Mutex
}

// New constructs an Agent. turns may be nil to disable the archive.
func New(adapter provider.Adapter, pipe audio.Pipeline, gate *audio.Gate, log *conversation.Log, turns store.TurnStore, cfg Config) *Agent {
	return &Agent{
		adapter: adapter,
		pipe:    pipe,
		gate:    gate,
		log:     log,
		turns:   turns,
		alerter: ConsoleAlerter{},
		cfg:     cfg.withDefaults(),
	}
}

// History exposes the conversation log for snapshot export at shutdown.
func (a *Agent) History() *conversation.Log { return a.log }

// Start runs one immediate check-in cycle, then repeats on the configured
// interval until ctx is cancelled. It blocks for the agent's lifetime.
func (a *Agent) Start(ctx context.Context) error {
	a.running.Store(true)
	defer a.Stop()

	slog.Info("Starting check-in agent", "provider", a.adapter.Name(), "interval", a.cfg.CheckInterval)

	// Initial check-in happens right away; the timer covers the rest.
	a.RunCycle(ctx)

	ticker := time.NewTicker(a.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !a.running.Load() {
				return nil
			}
			a.RunCycle(ctx)
		}
	}
}

// Stop ends the agent: the running flag drops, the adapter is force
// disconnected, and the audio pipeline is released. Safe to call with no
// cycle in flight, and more than once.
func (a *Agent) Stop() {
	if !a.running.CompareAndSwap(true, false) {
		return
	}
	slog.Info("Stopping check-in agent")
	if err := a.adapter.Disconnect(); err != nil {
		slog.Warn("Error disconnecting during stop", "error", err)
	}
	if err := a.pipe.Stop(); err != nil {
		slog.Warn("Error stopping audio pipeline", "error", err)
	}
}

// RunCycle performs one check-in cycle if none is in progress. A cycle never
// propagates an error; failures are logged and the next scheduled cycle
// still runs.
func (a *Agent) RunCycle(ctx context.Context) {
	if !a.cycleMu.TryLock() {
		slog.Warn("Check-in cycle already in progress, skipping")
		return
	}
	defer a.cycleMu.Unlock()

	if err := a.runCycle(ctx); err != nil {
		slog.Error("Check-in cycle failed", "error", err)
		if err := a.adapter.Disconnect(); err != nil {
			slog.Warn("Error disconnecting after failed cycle", "error", err)
		}
	}
}

// runCycle is one connect-converse-disconnect iteration.
func (a *Agent) runCycle(parent context.Context) error {
	slog.Info("Starting check-in cycle")

	state := newCycleState()

	ctx, cancel := context.WithTimeout(parent, a.cfg.CycleTimeout)
	defer cancel()

	token, err := a.adapter.CreateSession(ctx)
	if err != nil {
		return err
	}
	if err := a.adapter.Connect(ctx, token); err != nil {
		return err
	}

	if err := a.pipe.Start(); err != nil {
		a.adapter.Disconnect()
		return err
	}
	defer func() {
		if err := a.pipe.Stop(); err != nil {
			slog.Warn("Error closing audio streams", "error", err)
		}
	}()

	sessionCfg := provider.SessionConfig{
		SystemPrompt:   systemPrompt + a.log.FormatHistory(),
		Tools:          checkInTools(),
		Voice:          a.cfg.Voice,
		NoiseReduction: a.cfg.NoiseReduction,
	}
	if err := a.adapter.ConfigureSession(ctx, sessionCfg); err != nil {
		a.adapter.Disconnect()
		return err
	}

	if err := a.adapter.SendText(ctx, a.cfg.Greeting, nil); err != nil {
		a.adapter.Disconnect()
		return err
	}
	slog.Info("Sent check-in greeting")

	dispatcher := &toolDispatcher{
		adapter: a.adapter,
		state:   state,
		alerter: a.alerter,
		grace:   a.cfg.DisconnectGrace,
	}

	var rec *audio.Recorder
	if a.cfg.RecordingsDir != "" {
		rec, err = audio.NewRecorder(a.cfg.RecordingsDir, a.pipe.InputRate())
		if err != nil {
			slog.Warn("Mic recording disabled", "error", err)
			rec = nil
		} else {
			defer func() {
				if err := rec.Close(); err != nil {
					slog.Warn("Error closing mic recording", "error", err)
				}
			}()
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.audioSendLoop(ctx, state, rec)
	}()
	go func() {
		defer wg.Done()
		a.receiveLoop(ctx, state, dispatcher)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// First of: both loops ending naturally, or the cycle ceiling.
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Check-in cycle timed out")
	}

	cancel()
	if a.adapter.Connected() {
		if err := a.adapter.Disconnect(); err != nil {
			slog.Warn("Error disconnecting at cycle end", "error", err)
		}
	} else {
		slog.Info("Session already disconnected during check-in")
	}
	<-done

	sid := state.session()
	switch {
	case state.alarmRaised():
		slog.Info("Alarm was triggered during check-in", "sessionID", sid)
	case state.disconnectRequested():
		slog.Info("Check-in completed, agent requested disconnection", "reason", state.reason(), "sessionID", sid)
	default:
		slog.Info("Check-in cycle completed (timeout or connection closed)", "sessionID", sid)
	}
	return nil
}

// audioSendLoop reads fixed-size microphone chunks, runs them through the
// feedback gate, and forwards survivors to the adapter until the cycle ends.
func (a *Agent) audioSendLoop(ctx context.Context, state *cycleState, rec *audio.Recorder) {
	for {
		if ctx.Err() != nil || state.disconnectRequested() {
			return
		}

		chunk, err := a.pipe.Read()
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Error reading microphone", "error", err)
			}
			return
		}

		processed, ok := a.gate.Process(chunk)
		if !ok {
			continue
		}
		if rec != nil {
			if err := rec.Write(processed); err != nil {
				slog.Warn("Failed to write mic recording", "error", err)
			}
		}
		if err := a.adapter.SendAudio(ctx, processed, a.pipe.InputRate()); err != nil {
			if ctx.Err() == nil {
				slog.Error("Error sending audio chunk", "error", err)
			}
			return
		}
	}
}

// receiveLoop consumes normalized messages and dispatches them by kind until
// the adapter's stream closes or the cycle is cancelled.
func (a *Agent) receiveLoop(ctx context.Context, state *cycleState, dispatcher *toolDispatcher) {
	msgs := a.adapter.Messages()
	if msgs == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			a.handleMessage(ctx, state, dispatcher, msg)
			if state.disconnectRequested() && !a.adapter.Connected() {
				return
			}
		}
	}
}

func (a *Agent) handleMessage(ctx context.Context, state *cycleState, dispatcher *toolDispatcher, msg domain.Message) {
	switch msg.Kind {
	case domain.KindAudio:
		a.gate.MarkSpeakingStart()
		a.pipe.Play(msg.Audio)

	case domain.KindText:
		role := domain.RoleAssistant
		if msg.IsUser() {
			role = domain.RoleUser
		}
		if role == domain.RoleAssistant {
			// A finished transcript means the assistant's audio for this
			// turn is done.
			a.gate.MarkSpeakingEnd()
		}
		a.record(ctx, role, msg.Text)
		slog.Info("Transcript", "role", role, "content", msg.Text)

	case domain.KindToolCall:
		for _, call := range msg.ToolCalls {
			a.record(ctx, domain.RoleAssistant, "[Function Call] "+call.Name)
		}
		dispatcher.handleToolCalls(ctx, msg.ToolCalls)

	case domain.KindError:
		slog.Error("Provider error event", "detail", msg.Text)

	case domain.KindSessionUpdate:
		if id, ok := msg.Metadata[domain.MetaSessionID].(string); ok && id != "" {
			state.setSessionID(id)
			slog.Info("Session created", "sessionID", id)
		}
	}
}

// record appends one turn to the in-memory log and, when configured, the
// archive. Archive failures never interrupt the cycle.
func (a *Agent) record(ctx context.Context, role domain.Role, content string) {
	if content == "" {
		return
	}
	a.log.Append(role, content)
	if a.turns != nil {
		turn := domain.Turn{Timestamp: time.Now(), Role: role, Content: content}
		if err := a.turns.AppendTurn(ctx, turn); err != nil {
			slog.Warn("Failed to archive turn", "error", err)
		}
	}
}
