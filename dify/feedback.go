package dify

import (
	"context"
	"net/http"
	"net/url"
)

// FeedbackRequest is the request body for rating a message.
type FeedbackRequest struct {
	// Rating is like, dislike, or empty to retract a previous rating.
	Rating Rating `json:"rating,omitempty"`

	// User is the end-user identifier that submitted the rating.
	User string `json:"user"`
}

// FeedbackResponse acknowledges a feedback submission.
type FeedbackResponse struct {
	Result string `json:"result"` // "success"
}

// MessageFeedback submits end-user feedback on a message.
func (c *Client) MessageFeedback(ctx context.Context, messageID string, req *FeedbackRequest) (*FeedbackResponse, error) {
	path := expandPath(endpointFeedbacks, map[string]string{"message_id": messageID})

	var out FeedbackResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatSuggestRequest identifies the end user asking for suggestions.
type ChatSuggestRequest struct {
	User string `json:"user"`
}

// ChatSuggestResponse carries suggested follow-up questions for a message.
type ChatSuggestResponse struct {
	Result string   `json:"result"`
	Data   []string `json:"data"`
}

// SuggestedMessages fetches suggested follow-up questions after a message.
// The app must have suggestions enabled.
func (c *Client) SuggestedMessages(ctx context.Context, messageID string, req *ChatSuggestRequest) (*ChatSuggestResponse, error) {
	path := expandPath(endpointSuggested, map[string]string{"message_id": messageID})
	query := url.Values{"user": []string{req.User}}.Encode()

	var out ChatSuggestResponse
	if err := c.do(ctx, http.MethodGet, path+"?"+query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
