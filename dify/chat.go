package dify

import (
	"context"
	"net/http"
)

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	// Query is the user's message (required).
	Query string `json:"query"`

	// Inputs carries the app's variable values. Serialized as {} when nil;
	// the endpoint rejects a missing inputs object.
	Inputs map[string]any `json:"inputs"`

	// ResponseMode selects blocking or streaming delivery. Leave empty to
	// default to the mode of the method being called.
	ResponseMode ResponseMode `json:"response_mode"`

	// User is the end-user identifier for rate limiting and analytics.
	User string `json:"user"`

	// ConversationID continues an existing conversation when set.
	ConversationID string `json:"conversation_id,omitempty"`

	// Files to attach to the message.
	Files []File `json:"files,omitempty"`

	// AutoGenerateName controls server-side conversation titling. Nil
	// leaves the server default (enabled) in place.
	AutoGenerateName *bool `json:"auto_generate_name,omitempty"`
}

// ChatResponse is the blocking-mode result of a chat call. It shares the
// completion shape; chat responses additionally populate ConversationID.
type ChatResponse = CompletionResponse

func (r *ChatRequest) normalized(mode ResponseMode) ChatRequest {
	body := *r
	body.ResponseMode = mode
	if body.Inputs == nil {
		body.Inputs = map[string]any{}
	}
	return body
}

// ChatMessages sends a chat message in blocking mode and waits for the
// full answer. The request's ResponseMode must be empty or blocking.
func (c *Client) ChatMessages(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	mode, err := blockingMode(req.ResponseMode)
	if err != nil {
		return nil, err
	}
	body := req.normalized(mode)

	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, endpointChatMessages, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatMessagesStream sends a chat message in streaming mode. The request's
// ResponseMode must be empty or streaming. The caller owns the returned
// stream and must Close it.
func (c *Client) ChatMessagesStream(ctx context.Context, req *ChatRequest) (*EventStream, error) {
	mode, err := streamingMode(req.ResponseMode)
	if err != nil {
		return nil, err
	}
	body := req.normalized(mode)

	return c.openStream(ctx, endpointChatMessages, &body, BuildChatStreamChunk)
}

// StopChatMessages stops an in-progress streaming chat run. The user must
// match the one that started the run.
func (c *Client) StopChatMessages(ctx context.Context, taskID string, req *StopRequest) (*StopResponse, error) {
	path := expandPath(endpointStopChat, map[string]string{"task_id": taskID})

	var out StopResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
