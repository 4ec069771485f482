package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatusPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"404 wins over known code", 404, "invalid_param", ErrResourceNotFound},
		{"404 with unknown code", 404, "whatever", ErrResourceNotFound},
		{"500 wins over known code", 500, "app_unavailable", ErrInternalServer},
		{"500 with empty code", 500, "", ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(tt.status, tt.code, "msg")
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Classify(%d, %q) sentinel = %v, want %v", tt.status, tt.code, err.Err, tt.sentinel)
			}
		})
	}
}

func TestClassifyCodeTable(t *testing.T) {
	tests := []struct {
		code     string
		sentinel error
	}{
		{"invalid_param", ErrInvalidParam},
		{"not_chat_app", ErrNotChatApp},
		{"app_unavailable", ErrAppUnavailable},
		{"provider_not_initialize", ErrProviderNotInitialized},
		{"provider_quota_exceeded", ErrProviderQuotaExceeded},
		{"model_currently_not_support", ErrModelNotSupported},
		{"completion_request_error", ErrCompletionRequest},
		{"no_file_uploaded", ErrNoFileUploaded},
		{"too_many_files", ErrTooManyFiles},
		{"unsupported_preview", ErrUnsupportedPreview},
		{"unsupported_estimate", ErrUnsupportedEstimate},
		{"file_too_large", ErrFileTooLarge},
		{"unsupported_file_type", ErrUnsupportedFileType},
		{"s3_connection_failed", ErrStorageConnectionFailed},
		{"s3_permission_denied", ErrStoragePermissionDenied},
		{"s3_file_too_large", ErrStorageFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := Classify(400, tt.code, "msg")
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Classify(400, %q) sentinel = %v, want %v", tt.code, err.Err, tt.sentinel)
			}
		})
	}
}

func TestClassifyUnknownCodeFallsBackToGeneric(t *testing.T) {
	err := Classify(400, "something_new", "msg")
	if !errors.Is(err, ErrAPI) {
		t.Errorf("sentinel = %v, want ErrAPI", err.Err)
	}
}

func TestClassifyPreservesFields(t *testing.T) {
	err := Classify(429, "provider_quota_exceeded", "quota exhausted")
	if err.Status != 429 {
		t.Errorf("Status = %d, want 429", err.Status)
	}
	if err.Code != "provider_quota_exceeded" {
		t.Errorf("Code = %q, want provider_quota_exceeded", err.Code)
	}
	if err.Message != "quota exhausted" {
		t.Errorf("Message = %q, want %q", err.Message, "quota exhausted")
	}
}

func TestAPIErrorFormatting(t *testing.T) {
	err := &APIError{Status: 404, Code: "not_found", Message: "no such app", Err: ErrResourceNotFound}
	want := "dify: no such app (status=404, code=not_found)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAPIErrorUnwrapChaining(t *testing.T) {
	err := fmt.Errorf("chat failed: %w", Classify(400, "not_chat_app", "completion app"))
	if !errors.Is(err, ErrNotChatApp) {
		t.Error("wrapped APIError should match its sentinel via errors.Is")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("wrapped APIError should be extractable via errors.As")
	}
	if apiErr.Code != "not_chat_app" {
		t.Errorf("Code = %q, want not_chat_app", apiErr.Code)
	}
}
