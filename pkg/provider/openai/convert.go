package openai

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
)

// realtimeEvent is the superset of inbound Realtime API event fields this
// adapter cares about; the Type discriminator selects which are meaningful.
type realtimeEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
	Name       string `json:"name"`
	Arguments  string `json:"arguments"`
	CallID     string `json:"call_id"`
	Session    struct {
		ID string `json:"id"`
	} `json:"session"`
}

// ConvertEvent normalizes one raw Realtime API event into a domain.Message.
// Events with no orchestrator-visible effect return ok=false. A frame that
// fails to decode yields a KindError message rather than ending the stream.
func ConvertEvent(data []byte) (domain.Message, bool) {
	var ev realtimeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return domain.Message{
			Kind:     domain.KindError,
			Text:     "malformed realtime event: " + err.Error(),
			Metadata: map[string]any{domain.MetaEventType: "decode_error"},
		}, true
	}

	meta := map[string]any{domain.MetaEventType: ev.Type}

	switch ev.Type {
	case "response.audio.delta":
		if ev.Delta == "" {
			return domain.Message{}, false
		}
		pcm, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			return domain.Message{
				Kind:     domain.KindError,
				Text:     "malformed audio delta: " + err.Error(),
				Metadata: meta,
			}, true
		}
		return domain.Message{Kind: domain.KindAudio, Audio: pcm, Metadata: meta}, true

	case "response.audio_transcript.done":
		if ev.Transcript == "" {
			return domain.Message{}, false
		}
		meta[domain.MetaIsAssistant] = true
		return domain.Message{Kind: domain.KindText, Text: ev.Transcript, Metadata: meta}, true

	case "response.text.done":
		if ev.Text == "" {
			return domain.Message{}, false
		}
		meta[domain.MetaIsAssistant] = true
		return domain.Message{Kind: domain.KindText, Text: ev.Text, Metadata: meta}, true

	case "conversation.item.input_audio_transcription.completed":
		if ev.Transcript == "" {
			return domain.Message{}, false
		}
		meta[domain.MetaIsUser] = true
		return domain.Message{Kind: domain.KindText, Text: ev.Transcript, Metadata: meta}, true

	case "response.function_call_arguments.done":
		args := map[string]any{}
		if ev.Arguments != "" {
			if err := json.Unmarshal([]byte(ev.Arguments), &args); err != nil {
				slog.Warn("Unparseable function call arguments", "function", ev.Name, "error", err)
			}
		}
		return domain.Message{
			Kind: domain.KindToolCall,
			ToolCalls: []domain.ToolCall{{
				Name:      ev.Name,
				Arguments: args,
				CallID:    ev.CallID,
			}},
			Metadata: meta,
		}, true

	case "error":
		return domain.Message{Kind: domain.KindError, Text: string(data), Metadata: meta}, true

	case "session.created":
		meta[domain.MetaSessionID] = ev.Session.ID
		return domain.Message{Kind: domain.KindSessionUpdate, Metadata: meta}, true
	}

	return domain.Message{}, false
}
