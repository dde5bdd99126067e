// Package validation validates API input for the speakerline handlers.
//
// Two styles are supported. Request bodies use struct tags through
// Validate:
//
//	type createSession struct {
//	    SampleRate int `json:"sample_rate" validate:"required,min=8000,max=48000"`
//	}
//	err := validation.Validate(req)
//
// Ad hoc checks chain on a Validator and collect every failure before
// reporting:
//
//	v := validation.New().
//	    Required("session_id", id).
//	    Range("sample_rate", rate, 8000, 48000)
//	if appErr := v.Validate(); appErr != nil { ... }
//
// Both styles produce an errors.AppError with per-field details.
package validation
