package dify

import (
	"encoding/json"
)

// StreamEvent is the discriminator tag carried in the "event" field of
// every server-sent stream payload.
type StreamEvent string

// Stream event tags.
const (
	StreamEventMessage          StreamEvent = "message"
	StreamEventAgentMessage     StreamEvent = "agent_message"
	StreamEventAgentThought     StreamEvent = "agent_thought"
	StreamEventMessageFile      StreamEvent = "message_file"
	StreamEventWorkflowStarted  StreamEvent = "workflow_started"
	StreamEventNodeStarted      StreamEvent = "node_started"
	StreamEventNodeFinished     StreamEvent = "node_finished"
	StreamEventWorkflowFinished StreamEvent = "workflow_finished"
	StreamEventMessageEnd       StreamEvent = "message_end"
	StreamEventMessageReplace   StreamEvent = "message_replace"
	StreamEventError            StreamEvent = "error"
	StreamEventPing             StreamEvent = "ping"

	// Newer workflow tags. Declared so they resolve, but no endpoint
	// family maps them to a dedicated shape yet; they decode as generic
	// passthrough events.
	StreamEventParallelBranchStarted  StreamEvent = "parallel_branch_started"
	StreamEventParallelBranchFinished StreamEvent = "parallel_branch_finished"
	StreamEventNodeRetry              StreamEvent = "node_retry"
)

var streamEventValues = []StreamEvent{
	StreamEventMessage,
	StreamEventAgentMessage,
	StreamEventAgentThought,
	StreamEventMessageFile,
	StreamEventWorkflowStarted,
	StreamEventNodeStarted,
	StreamEventNodeFinished,
	StreamEventWorkflowFinished,
	StreamEventMessageEnd,
	StreamEventMessageReplace,
	StreamEventError,
	StreamEventPing,
	StreamEventParallelBranchStarted,
	StreamEventParallelBranchFinished,
	StreamEventNodeRetry,
}

// ParseStreamEvent resolves raw to a StreamEvent. An unknown tag is a
// protocol violation and fails with an *UnrecognizedValueError.
func ParseStreamEvent(raw string) (StreamEvent, error) {
	return parseEnum("StreamEvent", raw, streamEventValues)
}

// ParseStreamEventOr resolves raw to a StreamEvent, returning def for
// unknown tags instead of failing.
func ParseStreamEventOr(raw string, def StreamEvent) StreamEvent {
	return parseEnumOr(raw, streamEventValues, def)
}

// StreamChunk is implemented by every typed stream event a streaming call
// can yield. Callers type-switch on the concrete type, or inspect the
// common envelope through the interface.
type StreamChunk interface {
	// ChunkEvent returns the discriminator tag of the event.
	ChunkEvent() StreamEvent
	// ChunkTaskID returns the task id of the run the event belongs to.
	ChunkTaskID() string
}

// StreamResponse is the common envelope shared by all stream events.
type StreamResponse struct {
	Event  StreamEvent `json:"event"`
	TaskID string      `json:"task_id,omitempty"`
}

// ChunkEvent returns the discriminator tag.
func (r StreamResponse) ChunkEvent() StreamEvent { return r.Event }

// ChunkTaskID returns the task id.
func (r StreamResponse) ChunkTaskID() string { return r.TaskID }

// PingStreamResponse is a keep-alive event. The streaming pipeline drops
// pings before decode, so callers normally never observe one.
type PingStreamResponse struct {
	StreamResponse
}

// MessageStreamResponse carries one incremental answer fragment.
type MessageStreamResponse struct {
	StreamResponse
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Answer         string `json:"answer"`
	CreatedAt      int64  `json:"created_at"` // unix timestamp seconds
}

// MessageEndStreamResponse signals that the answer is complete and carries
// the final usage metadata.
type MessageEndStreamResponse struct {
	StreamResponse
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CreatedAt      int64     `json:"created_at"`
	Metadata       *Metadata `json:"metadata,omitempty"`
}

// MessageReplaceStreamResponse replaces the answer accumulated so far,
// e.g. after content moderation rewrote it.
type MessageReplaceStreamResponse struct {
	MessageStreamResponse
}

// AgentMessageStreamResponse carries an answer fragment produced by an
// agent-mode app.
type AgentMessageStreamResponse struct {
	MessageStreamResponse
}

// AgentThoughtStreamResponse describes one step of an agent's reasoning,
// including the tool it invoked and what it observed.
type AgentThoughtStreamResponse struct {
	StreamResponse
	ID             string   `json:"id"` // agent thought id
	MessageID      string   `json:"message_id"`
	ConversationID string   `json:"conversation_id"`
	Position       int      `json:"position"` // starts from 1
	Thought        string   `json:"thought"`
	Observation    string   `json:"observation"`
	Tool           string   `json:"tool"`
	ToolInput      string   `json:"tool_input"`
	MessageFiles   []string `json:"message_files,omitempty"`
	CreatedAt      int64    `json:"created_at"`
}

// MessageFileStreamResponse announces a file the assistant produced.
type MessageFileStreamResponse struct {
	StreamResponse
	ID             string `json:"id"` // file id
	ConversationID string `json:"conversation_id"`
	Type           string `json:"type"`       // only "image" today
	BelongsTo      string `json:"belongs_to"` // "assistant"
	URL            string `json:"url"`
}

// WorkflowsStreamResponse is a workflow lifecycle event. The data payload
// depends on the tag; it is kept raw and decoded on demand through the
// typed accessors.
type WorkflowsStreamResponse struct {
	StreamResponse
	WorkflowRunID string          `json:"workflow_run_id"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// WorkflowStartedData decodes the data payload of a workflow_started event.
func (r *WorkflowsStreamResponse) WorkflowStartedData() (*WorkflowStartedData, error) {
	var d WorkflowStartedData
	if err := decodeWorkflowData(r.Data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// NodeStartedData decodes the data payload of a node_started event.
func (r *WorkflowsStreamResponse) NodeStartedData() (*NodeStartedData, error) {
	var d NodeStartedData
	if err := decodeWorkflowData(r.Data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// NodeFinishedData decodes the data payload of a node_finished event.
func (r *WorkflowsStreamResponse) NodeFinishedData() (*NodeFinishedData, error) {
	var d NodeFinishedData
	if err := decodeWorkflowData(r.Data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// WorkflowFinishedData decodes the data payload of a workflow_finished event.
func (r *WorkflowsStreamResponse) WorkflowFinishedData() (*WorkflowFinishedData, error) {
	var d WorkflowFinishedData
	if err := decodeWorkflowData(r.Data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func decodeWorkflowData(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return newDecodeErrorf("workflow event has no data payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newDecodeError(err)
	}
	return nil
}

// ChatWorkflowsStreamResponse is a workflow lifecycle event delivered on
// the chat endpoint, which additionally carries the chat envelope.
type ChatWorkflowsStreamResponse struct {
	WorkflowsStreamResponse
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	CreatedAt      int64  `json:"created_at"`
}

// ErrorStreamResponse is the in-band error event. The streaming pipeline
// converts it into a classified failure and never yields it as a chunk.
type ErrorStreamResponse struct {
	StreamResponse
	Status    int    `json:"status,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// GenericStreamResponse is the passthrough shape for tags that are valid
// globally but carry no dedicated shape for the endpoint family that
// received them. Fields beyond the envelope are preserved raw in Extra.
type GenericStreamResponse struct {
	StreamResponse
	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON captures every field beyond the envelope into Extra.
func (r *GenericStreamResponse) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["event"]; ok {
		if err := json.Unmarshal(raw, &r.Event); err != nil {
			return err
		}
		delete(fields, "event")
	}
	if raw, ok := fields["task_id"]; ok {
		if err := json.Unmarshal(raw, &r.TaskID); err != nil {
			return err
		}
		delete(fields, "task_id")
	}
	if len(fields) > 0 {
		r.Extra = fields
	} else {
		r.Extra = nil
	}
	return nil
}
