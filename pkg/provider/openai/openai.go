// Package openai implements the provider adapter for the OpenAI Realtime API:
// an ephemeral session token obtained over HTTPS, then a JSON event protocol
// over a raw websocket.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
)

const (
	defaultModel = "gpt-4o-realtime-preview-2025-06-03"
	defaultVoice = "sage"

	defaultSessionsURL = "https://api.openai.com/v1/realtime/sessions"
	defaultRealtimeURL = "wss://api.openai.com/v1/realtime"
)

// Adapter implements provider.Adapter against the OpenAI Realtime API.
type Adapter struct {
	apiKey string
	model  string
	voice  string

	// Endpoint overrides, used by tests.
	sessionsURL string
	realtimeURL string

	httpClient *http.Client
	dialer     *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	writeMu sync.Mutex

	msgs       chan domain.Message
	readerStop chan struct{}
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates an OpenAI Realtime adapter. Returns an *provider.AuthError if
// apiKey is empty.
func New(apiKey string) (*Adapter, error) {
	if apiKey == "" {
		return nil, &provider.AuthError{Provider: "openai", Err: errors.New("OPENAI_API_KEY is not set")}
	}
	return &Adapter{
		apiKey:      apiKey,
		model:       defaultModel,
		voice:       defaultVoice,
		sessionsURL: defaultSessionsURL,
		realtimeURL: defaultRealtimeURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		dialer:      websocket.DefaultDialer,
	}, nil
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "openai" }

// CreateSession obtains a fresh ephemeral client secret for one realtime
// connection.
func (a *Adapter) CreateSession(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"model": a.model,
		"voice": a.voice,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.sessionsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &provider.ProviderError{Provider: "openai", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &provider.ProviderError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Err:        errors.New("failed to create realtime session"),
		}
	}

	var created struct {
		ClientSecret struct {
			Value string `json:"value"`
		} `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", &provider.ProviderError{Provider: "openai", Err: fmt.Errorf("decoding session response: %w", err)}
	}
	if created.ClientSecret.Value == "" {
		return "", &provider.ProviderError{Provider: "openai", Err: errors.New("session response missing client secret")}
	}

	slog.Info("Created OpenAI Realtime session")
	return created.ClientSecret.Value, nil
}

// Connect dials the realtime websocket using the ephemeral session token.
func (a *Adapter) Connect(ctx context.Context, sessionToken string) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+sessionToken)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := a.dialer.DialContext(ctx, a.realtimeURL+"?model="+a.model, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return &provider.ConnectionError{Provider: "openai", Err: err}
	}

	a.mu.Lock()
	a.conn = conn
	a.connected = true
	a.msgs = make(chan domain.Message, 64)
	a.readerStop = make(chan struct{})
	a.mu.Unlock()

	go a.readLoop(conn, a.msgs, a.readerStop)

	slog.Info("Connected to OpenAI Realtime WebSocket")
	return nil
}

// sessionUpdate is the session.update payload. Field names matter on the
// wire; they follow the Realtime API exactly.
type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities              []string        `json:"modalities"`
	Instructions            string          `json:"instructions"`
	Voice                   string          `json:"voice"`
	InputAudioFormat        string          `json:"input_audio_format"`
	OutputAudioFormat       string          `json:"output_audio_format"`
	InputAudioTranscription *transcription  `json:"input_audio_transcription"`
	TurnDetection           *turnDetection  `json:"turn_detection"`
	Tools                   []toolDef       `json:"tools"`
	ToolChoice              string          `json:"tool_choice"`
	Temperature             float64         `json:"temperature"`
	InputAudioNoiseReduct   *noiseReduction `json:"input_audio_noise_reduction,omitempty"`
}

type transcription struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

type toolDef struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type noiseReduction struct {
	Type string `json:"type"`
}

// ConfigureSession sends the single session.update establishing instructions,
// voice, audio formats, turn detection, and the tool schema.
func (a *Adapter) ConfigureSession(ctx context.Context, cfg provider.SessionConfig) error {
	if !a.Connected() {
		return &provider.ProviderError{Provider: "openai", Err: errors.New("configure called before connect")}
	}

	voice := cfg.Voice
	if voice == "" {
		voice = a.voice
	}

	tools := make([]toolDef, 0, len(cfg.Tools))
	for _, t := range cfg.Tools {
		tools = append(tools, toolDef{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	update := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			Modalities:              []string{"text", "audio"},
			Instructions:            cfg.SystemPrompt,
			Voice:                   voice,
			InputAudioFormat:        "pcm16",
			OutputAudioFormat:       "pcm16",
			InputAudioTranscription: &transcription{Model: "whisper-1"},
			TurnDetection: &turnDetection{
				Type:              "server_vad",
				Threshold:         0.5,
				PrefixPaddingMs:   300,
				SilenceDurationMs: 500,
			},
			Tools:       tools,
			ToolChoice:  "auto",
			Temperature: 0.8,
		},
	}
	if cfg.NoiseReduction != "" && cfg.NoiseReduction != "none" {
		update.Session.InputAudioNoiseReduct = &noiseReduction{Type: cfg.NoiseReduction}
	}

	if err := a.writeJSON(update); err != nil {
		return fmt.Errorf("configuring session: %w", err)
	}
	slog.Info("Configured OpenAI Realtime session")
	return nil
}

// SendAudio forwards one microphone chunk. The Realtime API accepts the
// capture rate as-is, so no resampling happens here.
func (a *Adapter) SendAudio(ctx context.Context, pcm []byte, sourceRate int) error {
	if !a.Connected() {
		return nil
	}
	return a.writeJSON(map[string]string{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm),
	})
}

// SendText creates a user conversation item and triggers a response. The
// Realtime API does not accept image input; any supplied images are dropped
// with a warning.
func (a *Adapter) SendText(ctx context.Context, text string, images [][]byte) error {
	if !a.Connected() {
		return nil
	}
	if len(images) > 0 {
		slog.Warn("OpenAI Realtime API does not support image input; sending text only")
	}

	item := map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]string{
				{"type": "input_text", "text": text},
			},
		},
	}
	if err := a.writeJSON(item); err != nil {
		return err
	}
	return a.writeJSON(map[string]string{"type": "response.create"})
}

// SendToolResponse delivers each result as a function_call_output item,
// correlated by call ID.
func (a *Adapter) SendToolResponse(ctx context.Context, results []domain.ToolResult) error {
	if !a.Connected() {
		return nil
	}
	for _, r := range results {
		output, err := json.Marshal(r.Result)
		if err != nil {
			return fmt.Errorf("marshaling tool result %q: %w", r.Name, err)
		}
		event := map[string]any{
			"type": "conversation.item.create",
			"item": map[string]any{
				"type":    "function_call_output",
				"call_id": r.CallID,
				"output":  string(output),
			},
		}
		if err := a.writeJSON(event); err != nil {
			return err
		}
	}
	return nil
}

// Messages returns the normalized inbound event stream for the current
// connection. The channel closes when the connection does.
func (a *Adapter) Messages() <-chan domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.msgs
}

// Disconnect closes the websocket and stops the read pump. Safe to call when
// already disconnected.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	conn := a.conn
	stop := a.readerStop
	a.conn = nil
	a.connected = false
	a.readerStop = nil
	a.mu.Unlock()

	if conn == nil {
		return nil
	}
	if stop != nil {
		close(stop)
	}
	if err := conn.Close(); err != nil {
		slog.Warn("Error closing websocket (may already be closed)", "error", err)
	}
	slog.Info("Disconnected from OpenAI Realtime WebSocket")
	return nil
}

// Connected reports whether the websocket is established.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

func (a *Adapter) writeJSON(v any) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return nil
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// readLoop pumps raw websocket frames into normalized messages until the
// connection closes or Disconnect is called.
func (a *Adapter) readLoop(conn *websocket.Conn, out chan<- domain.Message, stop <-chan struct{}) {
	defer close(out)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stop:
				// Normal teardown.
			default:
				if provider.IsTransientStream(err) {
					slog.Warn("Realtime stream closed", "error", err)
				} else {
					slog.Error("Realtime read error", "error", err)
				}
			}
			return
		}

		msg, ok := ConvertEvent(data)
		if !ok {
			continue
		}
		select {
		case out <- msg:
		case <-stop:
			return
		}
	}
}
