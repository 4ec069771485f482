package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, or tracing.
//
// Event types carry operational metadata only. API keys, request bodies,
// and response content are never included, so telemetry data is safe to
// log or ship to external monitoring systems. Keep it that way when
// extending the interface.
type TelemetryHook interface {
	// OnRequestStart is called when a request to the API begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when a request completes. For streaming
	// calls this fires when the stream ends, not when it opens.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	Endpoint string    // Endpoint path, e.g. "/chat-messages"
	Method   string    // HTTP method
	Start    time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
type RequestEndEvent struct {
	Endpoint string    // Endpoint path
	Method   string    // HTTP method
	Start    time.Time // When the request started
	End      time.Time // When the request completed
	Err      error     // Error if the request failed, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// It is the default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
