package domain

// Role defines the speaker of a conversation turn.
type Role string

const (
	// RoleUser indicates speech or text from the user.
	RoleUser Role = "user"
	// RoleAssistant indicates speech or text from the model.
	RoleAssistant Role = "assistant"
)

// MessageKind discriminates the payload of a Message.
type MessageKind string

const (
	// KindAudio carries a raw PCM chunk from the model.
	KindAudio MessageKind = "audio"
	// KindText carries a transcript or text response.
	KindText MessageKind = "text"
	// KindToolCall carries one or more function invocations from the model.
	KindToolCall MessageKind = "tool_call"
	// KindError carries a provider-reported or decode error.
	KindError MessageKind = "error"
	// KindSessionUpdate carries session lifecycle events (created, setup complete).
	KindSessionUpdate MessageKind = "session_update"
)

// Metadata keys used on Message.
const (
	MetaIsAssistant = "is_assistant"
	MetaIsUser      = "is_user"
	MetaSessionID   = "session_id"
	MetaEventType   = "event_type"
	MetaSampleRate  = "sample_rate"
)
