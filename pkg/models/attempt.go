package models

import "time"

// AttemptStatus is the terminal outcome of one generation attempt.
type AttemptStatus string

const (
	AttemptStatusGenerated AttemptStatus = "generated"
	AttemptStatusRejected  AttemptStatus = "rejected"
)

// FailureReason classifies why an attempt was rejected.
type FailureReason string

const (
	// FailureTransport covers network and provider errors, including timeouts. Retryable.
	FailureTransport FailureReason = "transport"
	// FailureMalformedOutput means structured-output recovery could not produce
	// a valid object. Retryable, since resampling often yields valid output.
	FailureMalformedOutput FailureReason = "malformed_output"
	// FailureConfiguration means a precondition is missing (no active prompt
	// version, no provider credential). Never retried.
	FailureConfiguration FailureReason = "configuration"
)

// Retryable reports whether another attempt can change the outcome.
func (r FailureReason) Retryable() bool {
	return r == FailureTransport || r == FailureMalformedOutput
}

// GenerationAttempt records one call to the generation client. Attempts are
// immutable once written and are retained even on failure, raw text intact,
// so formatting regressions in the provider can be diagnosed later.
type GenerationAttempt struct {
	ID            string        `json:"id"`
	ThreadID      string        `json:"thread_id"  validate:"required"`
	PersonaID     string        `json:"persona_id"`
	PromptID      string        `json:"prompt_id,omitempty"` // Prompt version in effect, empty on configuration failures
	TemplateKey   string        `json:"template_key"`
	Phase         Phase         `json:"phase"`
	AttemptNumber int           `json:"attempt_number"`
	Status        AttemptStatus `json:"status"     validate:"required,oneof=generated rejected"`
	FailReason    FailureReason `json:"fail_reason,omitempty"`
	FailDetail    string        `json:"fail_detail,omitempty"`
	RawText       string        `json:"raw_text,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
