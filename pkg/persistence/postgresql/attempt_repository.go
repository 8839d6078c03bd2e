package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/symposiumhq/symposium/pkg/models"
)

// AttemptRepository stores the immutable generation audit trail.
type AttemptRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAttemptRepository creates a new attempt repository.
func NewAttemptRepository(db *sql.DB, logger *slog.Logger) *AttemptRepository {
	return &AttemptRepository{db: db, logger: logger}
}

// Save inserts an attempt record. Records are never updated.
func (r *AttemptRepository) Save(ctx context.Context, attempt *models.GenerationAttempt) error {
	query := `
		INSERT INTO generation_attempts
			(id, thread_id, persona_id, prompt_id, template_key, phase, attempt_number, status, fail_reason, fail_detail, raw_text, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.ThreadID,
		attempt.PersonaID,
		attempt.PromptID,
		attempt.TemplateKey,
		attempt.Phase,
		attempt.AttemptNumber,
		attempt.Status,
		string(attempt.FailReason),
		attempt.FailDetail,
		attempt.RawText,
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation attempt %s: %w", attempt.ID, err)
	}

	return nil
}

// ByThread returns all attempts for a thread in write order.
func (r *AttemptRepository) ByThread(ctx context.Context, threadID string) ([]*models.GenerationAttempt, error) {
	query := `
		SELECT
			id
		  , thread_id
		  , COALESCE(persona_id::text, '')
		  , COALESCE(prompt_id::text, '')
		  , template_key
		  , phase
		  , attempt_number
		  , status
		  , COALESCE(fail_reason, '')
		  , COALESCE(fail_detail, '')
		  , COALESCE(raw_text, '')
		  , created_at
		FROM generation_attempts
		WHERE thread_id = $1
		ORDER BY created_at, attempt_number
	`

	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation attempts: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	attempts := make([]*models.GenerationAttempt, 0)

	for rows.Next() {
		var (
			attempt    models.GenerationAttempt
			failReason string
		)

		err = rows.Scan(
			&attempt.ID,
			&attempt.ThreadID,
			&attempt.PersonaID,
			&attempt.PromptID,
			&attempt.TemplateKey,
			&attempt.Phase,
			&attempt.AttemptNumber,
			&attempt.Status,
			&failReason,
			&attempt.FailDetail,
			&attempt.RawText,
			&attempt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation attempt: %w", err)
		}

		attempt.FailReason = models.FailureReason(failReason)

		attempts = append(attempts, &attempt)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating generation attempts: %w", err)
	}

	return attempts, nil
}
