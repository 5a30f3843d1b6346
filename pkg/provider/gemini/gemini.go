// Package gemini implements the provider adapter for the Gemini Live API
// using the Google Gen AI SDK. Unlike the websocket backend, the SDK owns the
// duplex stream: dialing and configuration are a single operation, so Connect
// only readies the adapter and ConfigureSession opens the live session.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/screenshot"
)

const (
	defaultModel = "gemini-2.5-flash-preview-native-audio-dialog"
	defaultVoice = "Zephyr"

	// The Live API requires 16kHz input; playback audio arrives at 24kHz.
	sendSampleRate = 16000

	// Chunks whose RMS falls below this (int16 units) are dropped before
	// transmission as a bandwidth optimization. Callers never observe the
	// drop.
	silenceRMSThreshold = 40.0

	// triggerPhrase opportunistically attaches a screenshot to outgoing text
	// when no image was supplied explicitly.
	triggerPhrase = "check on me"
)

// Adapter implements provider.Adapter using the Google Gen AI SDK.
type Adapter struct {
	client *genai.Client
	shot   screenshot.Capturer
	model  string
	voice  string

	mu         sync.Mutex
	session    *genai.Session
	connected  bool
	msgs       chan domain.Message
	pumpCancel context.CancelFunc
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a Gemini Live adapter. Returns a *provider.AuthError if apiKey
// is empty. shot may be nil to disable screenshot attachment.
func New(ctx context.Context, apiKey string, shot screenshot.Capturer) (*Adapter, error) {
	if apiKey == "" {
		return nil, &provider.AuthError{Provider: "gemini", Err: errors.New("GEMINI_API_KEY is not set")}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if shot == nil {
		shot = screenshot.Nop{}
	}
	return &Adapter{client: client, shot: shot, model: defaultModel, voice: defaultVoice}, nil
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "gemini" }

// CreateSession returns a locally generated identifier. The Live API has no
// pre-created session tokens; the real session opens in ConfigureSession.
func (a *Adapter) CreateSession(ctx context.Context) (string, error) {
	return "gemini-session-" + uuid.New().String(), nil
}

// Connect readies the adapter. The SDK couples dialing with configuration,
// so the duplex stream itself is opened by ConfigureSession.
func (a *Adapter) Connect(ctx context.Context, sessionToken string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = true
	slog.Info("Ready to connect to Gemini Live API")
	return nil
}

// ConfigureSession opens the live session with system instruction, voice,
// and tool declarations, and starts the background receive pump.
func (a *Adapter) ConfigureSession(ctx context.Context, cfg provider.SessionConfig) error {
	if !a.Connected() {
		return &provider.ProviderError{Provider: "gemini", Err: errors.New("configure called before connect")}
	}

	voice := cfg.Voice
	if voice == "" {
		voice = a.voice
	}

	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: cfg.SystemPrompt}},
		},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		Tools:                    convertTools(cfg.Tools),
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}

	session, err := a.client.Live.Connect(ctx, a.model, config)
	if err != nil {
		a.mu.Lock()
		a.connected = false
		a.mu.Unlock()
		return &provider.ConnectionError{Provider: "gemini", Err: err}
	}

	pumpCtx, cancel := context.WithCancel(context.Background())

	a.mu.Lock()
	a.session = session
	a.msgs = make(chan domain.Message, 64)
	a.pumpCancel = cancel
	a.mu.Unlock()

	go a.receivePump(pumpCtx, session, a.msgs)

	slog.Info("Configured Gemini Live session")
	return nil
}

// SendAudio resamples one microphone chunk to 16kHz and forwards it. Chunks
// that are near-silent after resampling are dropped.
func (a *Adapter) SendAudio(ctx context.Context, pcm []byte, sourceRate int) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return nil
	}

	out := pcm
	if sourceRate != sendSampleRate {
		out = resamplePCM16(pcm, sourceRate, sendSampleRate)
	}
	if rmsPCM16(out) < silenceRMSThreshold {
		return nil
	}

	err := session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			MIMEType: fmt.Sprintf("audio/pcm;rate=%d", sendSampleRate),
			Data:     out,
		},
	})
	if err != nil {
		slog.Error("Error sending audio to Gemini", "error", err)
	}
	return nil
}

// SendText sends a user turn. When the text contains the check-in trigger
// phrase and no image was supplied, a fresh screenshot is attached so the
// model can see what the user is doing.
func (a *Adapter) SendText(ctx context.Context, text string, images [][]byte) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return nil
	}

	if len(images) == 0 && strings.Contains(strings.ToLower(text), triggerPhrase) {
		captured, err := a.shot.Capture(ctx)
		if err != nil {
			slog.Warn("Screenshot capture failed", "error", err)
		} else {
			images = captured
		}
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/png", Data: img},
		})
	}
	parts = append(parts, &genai.Part{Text: text})

	return session.SendClientContent(genai.LiveClientContentInput{
		Turns: []*genai.Content{{
			Role:  genai.RoleUser,
			Parts: parts,
		}},
		TurnComplete: genai.Ptr(true),
	})
}

// Messages returns the normalized inbound event stream for the current
// session.
func (a *Adapter) Messages() <-chan domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.msgs
}

// SendToolResponse delivers function responses, each correlated by call ID.
func (a *Adapter) SendToolResponse(ctx context.Context, results []domain.ToolResult) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return nil
	}

	responses := make([]*genai.FunctionResponse, 0, len(results))
	for _, r := range results {
		responses = append(responses, &genai.FunctionResponse{
			ID:       r.CallID,
			Name:     r.Name,
			Response: r.Result,
		})
	}
	return session.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: responses,
	})
}

// Disconnect cancels the receive pump and closes the live session. Safe to
// call when already disconnected.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	session := a.session
	cancel := a.pumpCancel
	a.session = nil
	a.pumpCancel = nil
	a.connected = false
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if session != nil {
		if err := session.Close(); err != nil {
			slog.Warn("Error closing Gemini session", "error", err)
		}
		slog.Info("Disconnected from Gemini Live API")
	}
	return nil
}

// Connected reports whether a session is established or readied.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// receivePump converts live server messages into normalized messages until
// the session closes or the pump is cancelled.
func (a *Adapter) receivePump(ctx context.Context, session *genai.Session, out chan<- domain.Message) {
	defer close(out)
	for {
		msg, err := session.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if provider.IsTransientStream(err) {
				slog.Warn("Gemini live stream closed", "error", err)
				return
			}
			slog.Error("Error in Gemini receive loop", "error", err)
			select {
			case out <- domain.Message{Kind: domain.KindError, Text: err.Error()}:
			case <-ctx.Done():
			}
			return
		}

		for _, m := range ConvertServerMessage(msg) {
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}
}
