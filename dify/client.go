package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/petal-labs/dify-go/core"
)

// DefaultAPIKeyEnvVar is the environment variable name for the API key.
const DefaultAPIKeyEnvVar = "DIFY_API_KEY"

// ErrAPIKeyNotFound is returned when the API key environment variable is
// not set.
var ErrAPIKeyNotFound = errors.New("dify: DIFY_API_KEY environment variable not set")

// Endpoint path templates. Placeholders are substituted by expandPath.
const (
	endpointFeedbacks          = "/messages/{message_id}/feedbacks"
	endpointSuggested          = "/messages/{message_id}/suggested"
	endpointFilesUpload        = "/files/upload"
	endpointCompletionMessages = "/completion-messages"
	endpointStopCompletion     = "/completion-messages/{task_id}/stop"
	endpointChatMessages       = "/chat-messages"
	endpointStopChat           = "/chat-messages/{task_id}/stop"
	endpointRunWorkflows       = "/workflows/run"
	endpointStopWorkflows      = "/workflows/{task_id}/stop"
)

// Client is a Dify Service API client. Client is safe for concurrent use;
// independent calls share only the underlying HTTP connection pool.
type Client struct {
	config Config
}

// New creates a new client with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	cfg := Config{
		APIKey:     core.NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
		Telemetry:  core.NoopTelemetryHook{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Timeout > 0 {
		// Shallow-copy so the caller's client is left untouched.
		hc := *cfg.HTTPClient
		hc.Timeout = cfg.Timeout
		cfg.HTTPClient = &hc
	}

	return &Client{config: cfg}
}

// NewFromEnv creates a new client using the DIFY_API_KEY environment
// variable:
//
//	client, err := dify.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}
	return New(apiKey, opts...), nil
}

// buildHeaders constructs the HTTP headers for an API request. The bearer
// token is added only when no Authorization header (any casing) was
// supplied through Config.Headers.
func (c *Client) buildHeaders() http.Header {
	headers := make(http.Header)

	for key, values := range c.config.Headers {
		for _, v := range values {
			headers[key] = append(headers[key], v)
		}
	}

	if !hasAuthorization(headers) {
		headers.Set("Authorization", "Bearer "+c.config.APIKey.Expose())
	}

	return headers
}

func hasAuthorization(headers http.Header) bool {
	for key := range headers {
		if strings.EqualFold(key, "Authorization") {
			return true
		}
	}
	return false
}

// expandPath substitutes path parameters into an endpoint template.
func expandPath(template string, params map[string]string) string {
	path := template
	for name, value := range params {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return path
}

// do issues one blocking request: marshal body (when non-nil), send,
// classify application failures, decode the JSON response into out.
// Transport errors are returned wrapped but not reclassified.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return newDecodeError(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("dify: build request: %w", err)
	}
	req.Header = c.buildHeaders()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	c.config.Telemetry.OnRequestStart(core.RequestStartEvent{
		Endpoint: path,
		Method:   method,
		Start:    start,
	})

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		err = fmt.Errorf("dify: %s %s: %w", method, path, err)
		c.emitRequestEnd(path, method, start, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := classifyResponse(resp)
		c.emitRequestEnd(path, method, start, err)
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			err = newDecodeError(err)
			c.emitRequestEnd(path, method, start, err)
			return err
		}
	}

	c.emitRequestEnd(path, method, start, nil)
	return nil
}

func (c *Client) emitRequestEnd(path, method string, start time.Time, err error) {
	c.config.Telemetry.OnRequestEnd(core.RequestEndEvent{
		Endpoint: path,
		Method:   method,
		Start:    start,
		End:      time.Now(),
		Err:      err,
	})
}

// blockingMode validates response_mode for a blocking call. Validation
// happens before any network activity: empty defaults to blocking, a
// streaming or unknown value is a caller error.
func blockingMode(mode ResponseMode) (ResponseMode, error) {
	switch mode {
	case "", ResponseModeBlocking:
		return ResponseModeBlocking, nil
	case ResponseModeStreaming:
		return "", fmt.Errorf("dify: streaming response_mode on a blocking call: %w", core.ErrInvalidResponseMode)
	default:
		return "", fmt.Errorf("dify: response_mode %q: %w", string(mode), core.ErrInvalidResponseMode)
	}
}

// streamingMode is the streaming-call counterpart of blockingMode.
func streamingMode(mode ResponseMode) (ResponseMode, error) {
	switch mode {
	case "", ResponseModeStreaming:
		return ResponseModeStreaming, nil
	case ResponseModeBlocking:
		return "", fmt.Errorf("dify: blocking response_mode on a streaming call: %w", core.ErrInvalidResponseMode)
	default:
		return "", fmt.Errorf("dify: response_mode %q: %w", string(mode), core.ErrInvalidResponseMode)
	}
}
