package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/symposiumhq/symposium/pkg/composer"
	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/templates"
)

// DefaultAttemptLimit is the bounded retry ceiling for one participant's
// generation within one phase.
const DefaultAttemptLimit = 2

// Task is one (persona, phase) generation unit. Persona or Prompt may be nil
// when resolution failed upstream; the retrier records that as a
// configuration failure without calling the provider.
type Task struct {
	ThreadID string
	Persona  *models.Persona
	Prompt   *models.PersonaPrompt
	Template *templates.Template
	Tier     models.LengthTier
	Phase    models.Phase
	Source   string
}

// Retrier wraps the generation client in a bounded attempt loop. Every
// attempt, successful or not, is written to the audit trail before the loop
// proceeds. Exhaustion is a result, not an error: the caller's workflow must
// be able to continue with the next participant.
type Retrier struct {
	client     *Client
	attempts   persistence.AttemptRepository
	limit      int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewRetrier creates a retry controller. A non-positive limit falls back to
// DefaultAttemptLimit.
func NewRetrier(client *Client, attempts persistence.AttemptRepository, limit int, retryDelay time.Duration, logger *slog.Logger) *Retrier {
	if limit <= 0 {
		limit = DefaultAttemptLimit
	}

	return &Retrier{
		client:     client,
		attempts:   attempts,
		limit:      limit,
		retryDelay: retryDelay,
		logger:     logger.With("module", "generation_retrier"),
	}
}

// Limit returns the configured attempt ceiling.
func (r *Retrier) Limit() int {
	return r.limit
}

// Do runs the task until success, a non-retryable failure, or exhaustion.
// The returned Output is nil when no attempt succeeded; the returned attempt
// is the final audit record. A non-nil error means the audit trail itself
// could not be written and the caller should surface it upward.
func (r *Retrier) Do(ctx context.Context, task Task) (*Output, *models.GenerationAttempt, error) {
	logger := r.logger.With(
		"thread_id", task.ThreadID,
		"persona_id", task.personaID(),
		"phase", task.Phase,
	)

	request, err := composer.Compose(composer.Input{
		Persona:  task.Persona,
		Prompt:   task.Prompt,
		Template: task.Template,
		Tier:     task.Tier,
		Source:   task.Source,
	})
	if err != nil {
		// Missing configuration cannot be fixed by retrying: exactly one
		// rejected attempt is recorded and the loop never starts.
		logger.WarnContext(ctx, "generation not attempted", "reason", models.FailureConfiguration, "error", err)

		record := r.newAttempt(task, 1)
		record.Status = models.AttemptStatusRejected
		record.FailReason = models.FailureConfiguration
		record.FailDetail = err.Error()

		saveErr := r.attempts.Save(ctx, record)
		if saveErr != nil {
			return nil, nil, fmt.Errorf("failed to record configuration failure: %w", saveErr)
		}

		return nil, record, nil
	}

	var record *models.GenerationAttempt

	for attempt := 1; attempt <= r.limit; attempt++ {
		outcome := r.client.Generate(ctx, request, task.Template)

		record = r.newAttempt(task, attempt)
		record.RawText = outcome.RawText

		if outcome.OK {
			record.Status = models.AttemptStatusGenerated
		} else {
			record.Status = models.AttemptStatusRejected
			record.FailReason = outcome.Reason
			record.FailDetail = outcome.Detail
		}

		err = r.attempts.Save(ctx, record)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to record generation attempt: %w", err)
		}

		if outcome.OK {
			logger.InfoContext(ctx, "generation succeeded", "attempt", attempt)

			return outcome.Output, record, nil
		}

		logger.WarnContext(ctx, "generation attempt failed",
			"attempt", attempt,
			"reason", outcome.Reason,
			"detail", outcome.Detail,
		)

		if !outcome.Reason.Retryable() {
			break
		}

		if attempt < r.limit && r.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, record, nil
			case <-time.After(r.retryDelay):
			}
		}
	}

	logger.WarnContext(ctx, "generation exhausted retries", "limit", r.limit)

	return nil, record, nil
}

func (t Task) personaID() string {
	if t.Persona == nil {
		return ""
	}

	return t.Persona.ID
}

func (r *Retrier) newAttempt(task Task, number int) *models.GenerationAttempt {
	promptID := ""
	if task.Prompt != nil {
		promptID = task.Prompt.ID
	}

	return &models.GenerationAttempt{
		ID:            uuid.New().String(),
		ThreadID:      task.ThreadID,
		PersonaID:     task.personaID(),
		PromptID:      promptID,
		TemplateKey:   task.Template.Key,
		Phase:         task.Phase,
		AttemptNumber: number,
		CreatedAt:     time.Now().UTC(),
	}
}
