package dify

import (
	"context"
	"net/http"
)

// CompletionRequest is the request body for the completion endpoint.
type CompletionRequest struct {
	// Inputs carries the app's variable values. Query is required for
	// completion apps.
	Inputs CompletionInputs `json:"inputs"`

	// ResponseMode selects blocking or streaming delivery. Leave empty to
	// default to the mode of the method being called.
	ResponseMode ResponseMode `json:"response_mode"`

	// User is the end-user identifier for rate limiting and analytics.
	User string `json:"user"`

	// ConversationID continues an existing conversation when set.
	ConversationID string `json:"conversation_id,omitempty"`

	// Files to attach to the message.
	Files []File `json:"files,omitempty"`
}

// CompletionResponse is the blocking-mode result of a completion or chat
// call.
type CompletionResponse struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Mode           Mode      `json:"mode"`
	Answer         string    `json:"answer"`
	Metadata       *Metadata `json:"metadata,omitempty"`
	CreatedAt      int64     `json:"created_at"` // unix timestamp seconds
}

// CompletionMessages sends a completion request in blocking mode and waits
// for the full answer. The request's ResponseMode must be empty or
// blocking.
func (c *Client) CompletionMessages(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	mode, err := blockingMode(req.ResponseMode)
	if err != nil {
		return nil, err
	}
	body := *req
	body.ResponseMode = mode

	var out CompletionResponse
	if err := c.do(ctx, http.MethodPost, endpointCompletionMessages, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompletionMessagesStream sends a completion request in streaming mode.
// The request's ResponseMode must be empty or streaming. The caller owns
// the returned stream and must Close it.
func (c *Client) CompletionMessagesStream(ctx context.Context, req *CompletionRequest) (*EventStream, error) {
	mode, err := streamingMode(req.ResponseMode)
	if err != nil {
		return nil, err
	}
	body := *req
	body.ResponseMode = mode

	return c.openStream(ctx, endpointCompletionMessages, &body, BuildCompletionStreamChunk)
}

// StopCompletionMessages stops an in-progress streaming completion run.
// The user must match the one that started the run.
func (c *Client) StopCompletionMessages(ctx context.Context, taskID string, req *StopRequest) (*StopResponse, error) {
	path := expandPath(endpointStopCompletion, map[string]string{"task_id": taskID})

	var out StopResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
