// Package errors defines the structured error type used across the
// speakerline service: stable error codes, HTTP status mapping, and a
// retryable flag so engine callers can tell transient sidecar failures
// from permanent ones.
package errors
