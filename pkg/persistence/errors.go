// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrPersonaNotFound indicates a persona was not found by the given identifier.
	ErrPersonaNotFound = errors.New("persona not found")

	// ErrPromptNotFound indicates a prompt version was not found.
	ErrPromptNotFound = errors.New("prompt version not found")

	// ErrNoActivePrompt indicates a persona has no active prompt version.
	// This is a configuration error, not a transient one.
	ErrNoActivePrompt = errors.New("persona has no active prompt version")

	// ErrThreadNotFound indicates a thread was not found by the given identifier.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrThreadAlreadyExists indicates a thread with the same identifier already exists.
	ErrThreadAlreadyExists = errors.New("thread already exists")

	// ErrInvalidThreadStatus indicates an illegal thread status transition.
	ErrInvalidThreadStatus = errors.New("invalid thread status transition")

	// ErrContributionAlreadyExists indicates a contribution already occupies
	// the (thread, persona, phase) slot.
	ErrContributionAlreadyExists = errors.New("contribution already exists")

	// ErrSynthesisAlreadyExists indicates the thread already has a synthesis.
	ErrSynthesisAlreadyExists = errors.New("synthesis already exists")

	// ErrSynthesisNotFound indicates the thread has no synthesis.
	ErrSynthesisNotFound = errors.New("synthesis not found")
)

// ThreadError wraps thread-related errors with additional context.
type ThreadError struct {
	Op       string // Operation being performed (e.g., "GetByID", "Create", "UpdateStatus")
	ThreadID string
	Err      error
}

func (e *ThreadError) Error() string {
	return fmt.Sprintf("%s operation failed for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *ThreadError) Unwrap() error {
	return e.Err
}

func (e *ThreadError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewThreadError creates a new thread error with context.
func NewThreadError(op, threadID string, err error) *ThreadError {
	return &ThreadError{
		Op:       op,
		ThreadID: threadID,
		Err:      err,
	}
}

// PersonaError wraps persona-related errors with additional context.
type PersonaError struct {
	Op        string
	PersonaID string
	Err       error
}

func (e *PersonaError) Error() string {
	return fmt.Sprintf("%s operation failed for persona %s: %v", e.Op, e.PersonaID, e.Err)
}

func (e *PersonaError) Unwrap() error {
	return e.Err
}

func (e *PersonaError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewPersonaError creates a new persona error with context.
func NewPersonaError(op, personaID string, err error) *PersonaError {
	return &PersonaError{
		Op:        op,
		PersonaID: personaID,
		Err:       err,
	}
}

// IsPersonaNotFound checks if an error indicates a persona was not found.
func IsPersonaNotFound(err error) bool {
	return errors.Is(err, ErrPersonaNotFound)
}

// IsNoActivePrompt checks if an error indicates a missing active prompt version.
func IsNoActivePrompt(err error) bool {
	return errors.Is(err, ErrNoActivePrompt)
}

// IsThreadNotFound checks if an error indicates a thread was not found.
func IsThreadNotFound(err error) bool {
	return errors.Is(err, ErrThreadNotFound)
}

// IsInvalidThreadStatus checks if an error indicates an illegal status transition.
func IsInvalidThreadStatus(err error) bool {
	return errors.Is(err, ErrInvalidThreadStatus)
}
