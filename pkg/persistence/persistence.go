// Package persistence provides the data storage abstraction for personas,
// threads, and generation attempts.
package persistence

import (
	"context"

	"github.com/symposiumhq/symposium/pkg/models"
)

type Persistence interface {
	PersonaRepository() PersonaRepository
	ThreadRepository() ThreadRepository
	AttemptRepository() AttemptRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// PersonaRepository manages personas and their versioned prompt sets.
type PersonaRepository interface {
	GetAll(ctx context.Context) ([]*models.Persona, error)
	GetByID(ctx context.Context, id string) (*models.Persona, error)
	Save(ctx context.Context, persona *models.Persona) error

	// Prompts returns every prompt version for a persona, newest first.
	Prompts(ctx context.Context, personaID string) ([]*models.PersonaPrompt, error)

	// ActivePrompt returns the single active prompt version for a persona.
	// Returns ErrNoActivePrompt when none is active.
	ActivePrompt(ctx context.Context, personaID string) (*models.PersonaPrompt, error)

	// SavePrompt appends a new prompt version. Existing versions are never
	// edited in place.
	SavePrompt(ctx context.Context, prompt *models.PersonaPrompt) error

	// ActivatePrompt marks the given version active and deactivates the
	// previously active one as a single atomic operation.
	ActivatePrompt(ctx context.Context, personaID, promptID string) error
}

// ThreadRepository manages thread aggregates, contributions, and syntheses.
type ThreadRepository interface {
	GetAll(ctx context.Context) ([]*models.Thread, error)
	GetByID(ctx context.Context, id string) (*models.Thread, error)

	// Create inserts a new thread. Returns ErrThreadAlreadyExists if the id
	// is taken, giving callers insert-if-absent semantics.
	Create(ctx context.Context, thread *models.Thread) error

	// UpdateStatus persists a status change after checking the transition
	// table. Illegal transitions return ErrInvalidThreadStatus.
	UpdateStatus(ctx context.Context, id string, status models.ThreadStatus) error

	// SaveContribution inserts a contribution at its pre-assigned slot.
	// A second write for the same (thread, persona, phase) returns
	// ErrContributionAlreadyExists so re-runs stay idempotent.
	SaveContribution(ctx context.Context, contribution *models.Contribution) error
	Contributions(ctx context.Context, threadID string) ([]*models.Contribution, error)

	// SaveSynthesis inserts the thread's synthesis. At most one synthesis may
	// exist per thread; a second write returns ErrSynthesisAlreadyExists.
	SaveSynthesis(ctx context.Context, synthesis *models.Synthesis) error

	// Synthesis returns the thread's synthesis, or ErrSynthesisNotFound.
	Synthesis(ctx context.Context, threadID string) (*models.Synthesis, error)
}

// AttemptRepository stores the immutable generation audit trail.
type AttemptRepository interface {
	Save(ctx context.Context, attempt *models.GenerationAttempt) error
	ByThread(ctx context.Context, threadID string) ([]*models.GenerationAttempt, error)
}
