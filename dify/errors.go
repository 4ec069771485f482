package dify

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/petal-labs/dify-go/core"
)

// classifyResponse converts a failed HTTP response into a typed failure.
// The body is fully consumed. Status defaults to the HTTP status line when
// the body omits it; a non-JSON body still classifies from the status line.
func classifyResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("dify: read error response: %w", err)
	}

	var details ErrorResponse
	_ = json.Unmarshal(body, &details)

	if details.Status == 0 {
		details.Status = resp.StatusCode
	}
	if details.Message == "" {
		details.Message = http.StatusText(resp.StatusCode)
	}

	return core.Classify(details.Status, details.Code, details.Message)
}

// classifyStreamError converts an in-band error event into a typed
// failure. The associated message id, when present, is not used for
// classification.
func classifyStreamError(data []byte) error {
	var details ErrorStreamResponse
	if err := json.Unmarshal(data, &details); err != nil {
		return newDecodeError(err)
	}
	if details.Status == 0 {
		details.Status = defaultErrorStatus
	}
	return core.Classify(details.Status, details.Code, details.Message)
}

// newDecodeError wraps a JSON decode failure so it classifies under
// core.ErrDecode.
func newDecodeError(err error) error {
	return &core.APIError{Code: "decode_error", Message: err.Error(), Err: core.ErrDecode}
}

// newDecodeErrorf is newDecodeError for failures without an underlying
// error value.
func newDecodeErrorf(format string, args ...any) error {
	return &core.APIError{Code: "decode_error", Message: fmt.Sprintf(format, args...), Err: core.ErrDecode}
}
