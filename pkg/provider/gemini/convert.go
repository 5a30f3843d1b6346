package gemini

import (
	"log/slog"

	"google.golang.org/genai"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
)

// ConvertServerMessage normalizes one live server message into zero or more
// domain messages, preserving part order within a model turn.
func ConvertServerMessage(msg *genai.LiveServerMessage) []domain.Message {
	if msg == nil {
		return nil
	}

	var out []domain.Message

	if msg.SetupComplete != nil {
		out = append(out, domain.Message{
			Kind:     domain.KindSessionUpdate,
			Metadata: map[string]any{domain.MetaEventType: "setup_complete"},
		})
	}

	if sc := msg.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part == nil {
					continue
				}
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					out = append(out, domain.Message{
						Kind:     domain.KindAudio,
						Audio:    part.InlineData.Data,
						Metadata: map[string]any{domain.MetaSampleRate: 24000},
					})
				}
				if part.Text != "" {
					out = append(out, domain.Message{
						Kind:     domain.KindText,
						Text:     part.Text,
						Metadata: map[string]any{domain.MetaIsAssistant: true},
					})
				}
				if part.FunctionCall != nil {
					out = append(out, toolCallMessage(part.FunctionCall))
				}
			}
		}

		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			out = append(out, domain.Message{
				Kind:     domain.KindText,
				Text:     sc.InputTranscription.Text,
				Metadata: map[string]any{domain.MetaIsUser: true},
			})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			out = append(out, domain.Message{
				Kind:     domain.KindText,
				Text:     sc.OutputTranscription.Text,
				Metadata: map[string]any{domain.MetaIsAssistant: true},
			})
		}
		if sc.TurnComplete {
			slog.Debug("Gemini turn complete")
		}
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		calls := make([]domain.ToolCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, fc := range msg.ToolCall.FunctionCalls {
			calls = append(calls, asToolCall(fc))
		}
		out = append(out, domain.Message{Kind: domain.KindToolCall, ToolCalls: calls})
	}

	return out
}

func toolCallMessage(fc *genai.FunctionCall) domain.Message {
	return domain.Message{
		Kind:      domain.KindToolCall,
		ToolCalls: []domain.ToolCall{asToolCall(fc)},
	}
}

func asToolCall(fc *genai.FunctionCall) domain.ToolCall {
	callID := fc.ID
	if callID == "" {
		// The Live API omits IDs on some calls; fall back to the function
		// name so the response can still be correlated.
		callID = fc.Name
	}
	return domain.ToolCall{
		Name:      fc.Name,
		Arguments: fc.Args,
		CallID:    callID,
	}
}
