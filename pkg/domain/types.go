package domain

import "time"

// Message is the normalized envelope for every inbound provider event. Each
// realtime backend speaks a different wire protocol; adapters convert their
// events into Messages so the rest of the system only ever sees this type.
//
// Exactly one of Text, Audio, or ToolCalls is meaningfully populated; Kind
// determines which.
type Message struct {
	Kind MessageKind

	// Text content (when Kind == KindText, or an error description for
	// KindError).
	Text string

	// Audio holds a raw 16-bit PCM chunk (when Kind == KindAudio).
	Audio []byte

	// ToolCalls holds function invocations in provider order (when
	// Kind == KindToolCall).
	ToolCalls []ToolCall

	// Metadata carries flags like is_assistant/is_user and the session ID.
	Metadata map[string]any
}

// IsAssistant reports whether the message was flagged as assistant speech.
func (m *Message) IsAssistant() bool {
	v, _ := m.Metadata[MetaIsAssistant].(bool)
	return v
}

// IsUser reports whether the message was flagged as user speech.
func (m *Message) IsUser() bool {
	v, _ := m.Metadata[MetaIsUser].(bool)
	return v
}

// ToolCall represents a function invocation by the model.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	// CallID is an opaque correlation token. It must be echoed back verbatim
	// in the ToolResult so the provider can match response to invocation.
	CallID string `json:"call_id"`
}

// StringArg returns the named argument as a string, or fallback when absent.
func (tc *ToolCall) StringArg(name, fallback string) string {
	if v, ok := tc.Arguments[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

// ToolResult represents the outcome of a tool call, sent back on the active
// connection.
type ToolResult struct {
	Name   string         `json:"name"`
	CallID string         `json:"call_id"`
	Result map[string]any `json:"result"`
}

// ToolDef is a provider-agnostic function declaration. Parameters holds a
// JSON Schema-shaped object; each adapter converts it to its own wire format.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Turn is a single entry in the conversation history.
type Turn struct {
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
}
