package core

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by the Dify API with full context.
// The Status, Code, and Message fields carry the server's values verbatim;
// Err is the sentinel the error classifies under, for errors.Is matching.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("dify: %s (status=%d, code=%s)", e.Message, e.Status, e.Code)
}

// Unwrap returns the sentinel error for error chaining.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Sentinel errors for HTTP-status classification.
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrInternalServer   = errors.New("internal server error")
)

// Sentinel errors for the application error codes the API documents.
var (
	ErrInvalidParam           = errors.New("invalid param")
	ErrNotChatApp             = errors.New("not a chat app")
	ErrAppUnavailable         = errors.New("app unavailable")
	ErrProviderNotInitialized = errors.New("provider not initialized")
	ErrProviderQuotaExceeded  = errors.New("provider quota exceeded")
	ErrModelNotSupported      = errors.New("model currently not supported")
	ErrCompletionRequest      = errors.New("completion request error")

	ErrNoFileUploaded      = errors.New("no file uploaded")
	ErrTooManyFiles        = errors.New("too many files")
	ErrUnsupportedPreview  = errors.New("unsupported preview")
	ErrUnsupportedEstimate = errors.New("unsupported estimate")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")

	ErrStorageConnectionFailed = errors.New("object storage connection failed")
	ErrStoragePermissionDenied = errors.New("object storage permission denied")
	ErrStorageFileTooLarge     = errors.New("object storage file too large")
)

// Sentinel errors for failures produced by this client layer itself.
var (
	// ErrAPI is the generic fallback for API errors with no specific mapping.
	ErrAPI = errors.New("api error")

	// ErrDecode indicates a malformed payload or an unrecognized
	// discriminator tag.
	ErrDecode = errors.New("decode error")

	// ErrInvalidResponseMode indicates a response_mode value that matches
	// neither "blocking" nor "streaming". Raised before any network call.
	ErrInvalidResponseMode = errors.New("invalid response mode")
)

// codeSentinels maps the API's application error codes to sentinels.
var codeSentinels = map[string]error{
	// completion & chat & workflow
	"invalid_param":               ErrInvalidParam,
	"not_chat_app":                ErrNotChatApp,
	"app_unavailable":             ErrAppUnavailable,
	"provider_not_initialize":     ErrProviderNotInitialized,
	"provider_quota_exceeded":     ErrProviderQuotaExceeded,
	"model_currently_not_support": ErrModelNotSupported,
	"completion_request_error":    ErrCompletionRequest,
	// files upload
	"no_file_uploaded":      ErrNoFileUploaded,
	"too_many_files":        ErrTooManyFiles,
	"unsupported_preview":   ErrUnsupportedPreview,
	"unsupported_estimate":  ErrUnsupportedEstimate,
	"file_too_large":        ErrFileTooLarge,
	"unsupported_file_type": ErrUnsupportedFileType,
	"s3_connection_failed":  ErrStorageConnectionFailed,
	"s3_permission_denied":  ErrStoragePermissionDenied,
	"s3_file_too_large":     ErrStorageFileTooLarge,
}

// Classify maps an error payload to an APIError carrying the matching
// sentinel. Status takes precedence over code: 404 always classifies as
// ErrResourceNotFound and 500 as ErrInternalServer. Any other status
// resolves through the application code table, falling back to ErrAPI.
// All three inputs are preserved verbatim on the result.
func Classify(status int, code, message string) *APIError {
	sentinel := ErrAPI
	switch status {
	case http.StatusNotFound:
		sentinel = ErrResourceNotFound
	case http.StatusInternalServerError:
		sentinel = ErrInternalServer
	default:
		if s, ok := codeSentinels[code]; ok {
			sentinel = s
		}
	}
	return &APIError{Status: status, Code: code, Message: message, Err: sentinel}
}
