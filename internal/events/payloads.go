package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// GENERATION EVENTS
// =============================================================================

type GenerationRequestedPayload struct {
	Goals     int `json:"goals"`
	TaskCount int `json:"task_count"`
}

func (GenerationRequestedPayload) EventType() EventType { return EventGenerationRequested }

type TierFailedPayload struct {
	Tier     string        `json:"tier"`
	Attempts int           `json:"attempts"`
	Timeout  bool          `json:"timeout"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (TierFailedPayload) EventType() EventType { return EventTierFailed }

type GenerationCompletedPayload struct {
	Source    string        `json:"source"`
	TaskCount int           `json:"task_count"`
	Goals     int           `json:"goals"`
	Total     string        `json:"total_estimated_time"`
	Duration  time.Duration `json:"duration"`
}

func (GenerationCompletedPayload) EventType() EventType { return EventGenerationCompleted }

type GenerationFailedPayload struct {
	Tiers []string `json:"tiers"`
	Goals int      `json:"goals"`
	Error string   `json:"error"`
}

func (GenerationFailedPayload) EventType() EventType { return EventGenerationFailed }

// =============================================================================
// PERSISTENCE EVENTS
// =============================================================================

type TasksSavedPayload struct {
	SessionID  string `json:"session_id"`
	SavedCount int    `json:"saved_count"`
	Linked     int    `json:"linked"`
	TaskDate   string `json:"task_date"`
}

func (TasksSavedPayload) EventType() EventType { return EventTasksSaved }

type SessionSummaryFailedPayload struct {
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

func (SessionSummaryFailedPayload) EventType() EventType { return EventSessionSummaryFailed }

type TaskStatusChangedPayload struct {
	TaskID string `json:"task_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (TaskStatusChangedPayload) EventType() EventType { return EventTaskStatusChanged }

// =============================================================================
// ASSISTANT EVENTS
// =============================================================================

type AssistantReplyPayload struct {
	ConversationID string `json:"conversation_id"`
	MessageType    string `json:"message_type"`
	Attempts       int    `json:"attempts"`
	Error          string `json:"error,omitempty"`
}

func (AssistantReplyPayload) EventType() EventType { return EventAssistantReply }

// =============================================================================
// MODEL EVENTS
// =============================================================================

// ModelCallPayload traces one chat model call. Phase is "request",
// "response" or "error".
type ModelCallPayload struct {
	Phase        string `json:"phase"`
	Model        string `json:"model"`
	MessageCount int    `json:"message_count,omitempty"`
	TokensInput  int    `json:"tokens_input,omitempty"`
	TokensOutput int    `json:"tokens_output,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (ModelCallPayload) EventType() EventType { return EventModelCall }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func NewTypedStudentEvent(source EventSource, payload EventPayload, studentID string) Event {
	return Event{
		ID:        generateEventID(),
		StudentID: studentID,
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetTierFailedPayload(e Event) (TierFailedPayload, bool) {
	return ExtractPayload[TierFailedPayload](e)
}

func GetGenerationCompletedPayload(e Event) (GenerationCompletedPayload, bool) {
	return ExtractPayload[GenerationCompletedPayload](e)
}

func GetTasksSavedPayload(e Event) (TasksSavedPayload, bool) {
	return ExtractPayload[TasksSavedPayload](e)
}
