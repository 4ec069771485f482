package dify

import "encoding/json"

// Each endpoint family exposes a different subset of stream event kinds.
// The tables below map a tag to the shape its payload decodes into; tags
// missing from a family's table decode as GenericStreamResponse. The
// tables are process-wide constants, never mutated after init.

var completionChunkFactories = map[StreamEvent]func() StreamChunk{
	StreamEventPing:           func() StreamChunk { return &PingStreamResponse{} },
	StreamEventMessage:        func() StreamChunk { return &MessageStreamResponse{} },
	StreamEventMessageEnd:     func() StreamChunk { return &MessageEndStreamResponse{} },
	StreamEventMessageReplace: func() StreamChunk { return &MessageReplaceStreamResponse{} },
}

var chatChunkFactories = map[StreamEvent]func() StreamChunk{
	StreamEventPing:           func() StreamChunk { return &PingStreamResponse{} },
	StreamEventMessage:        func() StreamChunk { return &MessageStreamResponse{} },
	StreamEventMessageEnd:     func() StreamChunk { return &MessageEndStreamResponse{} },
	StreamEventMessageReplace: func() StreamChunk { return &MessageReplaceStreamResponse{} },
	StreamEventMessageFile:    func() StreamChunk { return &MessageFileStreamResponse{} },
	// agent
	StreamEventAgentMessage: func() StreamChunk { return &AgentMessageStreamResponse{} },
	StreamEventAgentThought: func() StreamChunk { return &AgentThoughtStreamResponse{} },
	// workflow lifecycle, carrying the chat envelope
	StreamEventWorkflowStarted:  func() StreamChunk { return &ChatWorkflowsStreamResponse{} },
	StreamEventNodeStarted:      func() StreamChunk { return &ChatWorkflowsStreamResponse{} },
	StreamEventNodeFinished:     func() StreamChunk { return &ChatWorkflowsStreamResponse{} },
	StreamEventWorkflowFinished: func() StreamChunk { return &ChatWorkflowsStreamResponse{} },
}

var workflowChunkFactories = map[StreamEvent]func() StreamChunk{
	StreamEventPing:             func() StreamChunk { return &PingStreamResponse{} },
	StreamEventWorkflowStarted:  func() StreamChunk { return &WorkflowsStreamResponse{} },
	StreamEventNodeStarted:      func() StreamChunk { return &WorkflowsStreamResponse{} },
	StreamEventNodeFinished:     func() StreamChunk { return &WorkflowsStreamResponse{} },
	StreamEventWorkflowFinished: func() StreamChunk { return &WorkflowsStreamResponse{} },
}

// chunkBuilder decodes one raw event payload into a typed stream chunk.
type chunkBuilder func(data []byte) (StreamChunk, error)

func buildStreamChunk(factories map[StreamEvent]func() StreamChunk, data []byte) (StreamChunk, error) {
	var envelope struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, newDecodeError(err)
	}

	// Strict resolution: a tag unknown to the protocol is a decode
	// failure, not a silent default.
	event, err := ParseStreamEvent(envelope.Event)
	if err != nil {
		return nil, err
	}

	factory, ok := factories[event]
	if !ok {
		factory = func() StreamChunk { return &GenericStreamResponse{} }
	}
	chunk := factory()
	if err := json.Unmarshal(data, chunk); err != nil {
		return nil, newDecodeError(err)
	}
	return chunk, nil
}

// BuildCompletionStreamChunk decodes a raw stream payload using the
// completion endpoint's event table.
func BuildCompletionStreamChunk(data []byte) (StreamChunk, error) {
	return buildStreamChunk(completionChunkFactories, data)
}

// BuildChatStreamChunk decodes a raw stream payload using the chat
// endpoint's event table.
func BuildChatStreamChunk(data []byte) (StreamChunk, error) {
	return buildStreamChunk(chatChunkFactories, data)
}

// BuildWorkflowStreamChunk decodes a raw stream payload using the workflow
// endpoint's event table.
func BuildWorkflowStreamChunk(data []byte) (StreamChunk, error) {
	return buildStreamChunk(workflowChunkFactories, data)
}
