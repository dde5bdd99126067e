// Package logger provides structured logging for the speakerline pipeline,
// built on zerolog.
//
// Every pipeline stage obtains a component-tagged logger via Get:
//
//	log := logger.Get("timeline")
//	log.Warn("clamped non-monotonic range", logger.Fields(
//		logger.FieldStream, streamID,
//		"start", r.Start,
//	))
//
// Output is JSON by default and human-readable console when Format is
// "console" or "pretty".
package logger
