// Package api registers the speakerline HTTP surface: session lifecycle,
// PCM audio ingest over WebSocket or chunked POST, the sentence event
// stream over SSE, and timeline queries.
package api
