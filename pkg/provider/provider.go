// Package provider defines the capability contract that every realtime voice
// backend must implement, plus the error taxonomy shared by the adapters.
package provider

import (
	"context"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
)

// Adapter normalizes session creation, connection, configuration, audio/text
// send, tool-result send, and inbound message streaming for one realtime
// backend (e.g. the OpenAI Realtime websocket or a Gemini Live session).
//
// Lifecycle per session: CreateSession -> Connect -> ConfigureSession -> sends
// and receives -> Disconnect. Sessions are never reused across check-in
// cycles; a fresh token and connection are required every cycle.
//
// Send operations invoked while disconnected are silent no-ops, except
// ConfigureSession which requires an established connection and fails
// otherwise. Disconnect is safe to call when already disconnected.
type Adapter interface {
	// Name returns the adapter's identifier (e.g. "openai", "gemini").
	Name() string

	// CreateSession obtains a fresh, short-lived session identifier from the
	// backend. Returns a *ProviderError on a non-success response.
	CreateSession(ctx context.Context) (string, error)

	// Connect opens the realtime channel. Returns a *ConnectionError on
	// handshake failure and leaves the adapter disconnected and retryable.
	Connect(ctx context.Context, sessionToken string) error

	// ConfigureSession sends one configuration message establishing
	// modalities, voice, audio encoding, turn detection, and the tool schema.
	// Must be called exactly once per connection, after Connect and before
	// any send.
	ConfigureSession(ctx context.Context, cfg SessionConfig) error

	// SendAudio forwards one microphone chunk of 16-bit mono PCM captured at
	// sourceRate Hz. Adapters may resample or drop chunks internally; callers
	// must not assume every chunk sent is delivered.
	SendAudio(ctx context.Context, pcm []byte, sourceRate int) error

	// SendText sends a user turn. Adapters that support images may attach
	// them; adapters that do not log a warning and send the text alone.
	SendText(ctx context.Context, text string, images [][]byte) error

	// Messages returns the stream of normalized inbound events. The channel
	// is closed when the underlying connection closes or is cancelled. Decode
	// errors mid-stream surface as KindError messages rather than ending the
	// stream.
	Messages() <-chan domain.Message

	// SendToolResponse delivers tool results back on the active connection,
	// each correlated by CallID.
	SendToolResponse(ctx context.Context, results []domain.ToolResult) error

	// Disconnect cancels background receive activity, closes the connection,
	// and clears session state. Calling it when already disconnected is a
	// no-op.
	Disconnect() error

	// Connected reports whether a session is currently established.
	Connected() bool
}

// SessionConfig carries the per-cycle session configuration. Fields absent
// here (modalities, audio encoding, turn detection, temperature) are fixed by
// each adapter to the values the backends require: modalities text+audio,
// 16-bit PCM in and out, server-side turn detection {threshold 0.5, prefix
// padding 300ms, trailing silence 500ms}, tool_choice auto, temperature 0.8.
type SessionConfig struct {
	// SystemPrompt is the full instruction text, including any rendered
	// conversation history block.
	SystemPrompt string

	// Tools is the provider-agnostic tool schema exposed to the model.
	Tools []domain.ToolDef

	// Voice overrides the adapter's default voice when non-empty.
	Voice string

	// NoiseReduction selects server-side noise reduction ("near_field" or
	// "far_field"). Empty or "none" disables it. Only honored by backends
	// that support it.
	NoiseReduction string
}
