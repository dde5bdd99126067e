// Package server provides the HTTP server for the speakerline service,
// backed by Gin with a standard middleware stack.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - RequestLogger: Request logging with duration tracking
//   - CORS: Cross-origin resource sharing configuration
//   - RequestID: Request ID generation and propagation
//   - BodySizeLimit: Request body size limits
//
// Route registration lives in the api package; the server itself only owns
// the listener lifecycle, the middleware stack, and the response envelope.
package server
