// Package core provides the shared building blocks of the Dify client:
// the typed error taxonomy and classifier, the redacting secret wrapper
// for API keys, and the telemetry hook interface.
package core
