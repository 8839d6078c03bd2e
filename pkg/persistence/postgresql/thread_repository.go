package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
)

const uniqueViolation = "23505"

// ThreadRepository handles thread-related database operations.
type ThreadRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewThreadRepository creates a new thread repository.
func NewThreadRepository(db *sql.DB, logger *slog.Logger) *ThreadRepository {
	return &ThreadRepository{db: db, logger: logger}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// GetAll returns all threads, newest first.
func (r *ThreadRepository) GetAll(ctx context.Context) ([]*models.Thread, error) {
	query := `
		SELECT
			id
		  , kind
		  , topic
		  , source_title
		  , source_excerpt
		  , question
		  , length_tier
		  , status
		  , created_at
		  , completed_at
		FROM threads
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	threads := make([]*models.Thread, 0)

	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, err
		}

		err = r.loadParticipants(ctx, thread)
		if err != nil {
			return nil, err
		}

		threads = append(threads, thread)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}

	return threads, nil
}

// GetByID returns a thread by its ID, participants included.
func (r *ThreadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	query := `
		SELECT
			id
		  , kind
		  , topic
		  , source_title
		  , source_excerpt
		  , question
		  , length_tier
		  , status
		  , created_at
		  , completed_at
		FROM threads
		WHERE id = $1
	`

	thread, err := scanThread(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrThreadNotFound
		}

		return nil, err
	}

	err = r.loadParticipants(ctx, thread)
	if err != nil {
		return nil, err
	}

	return thread, nil
}

// Create inserts a new thread with its participant roster.
func (r *ThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO threads (id, kind, topic, source_title, source_excerpt, question, length_tier, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = transaction.ExecContext(ctx, query,
		thread.ID,
		thread.Kind,
		thread.Topic,
		thread.SourceTitle,
		thread.SourceExcerpt,
		thread.Question,
		thread.LengthTier,
		thread.Status,
		thread.CreatedAt,
		thread.CompletedAt,
	)
	if err != nil {
		_ = transaction.Rollback()

		if isUniqueViolation(err) {
			return persistence.ErrThreadAlreadyExists
		}

		return fmt.Errorf("failed to insert thread %s: %w", thread.ID, err)
	}

	for _, participant := range thread.Participants {
		_, err = transaction.ExecContext(ctx,
			`INSERT INTO thread_participants (thread_id, persona_id, slot, rebuttal_of) VALUES ($1, $2, $3, NULLIF($4, ''))`,
			thread.ID, participant.PersonaID, participant.Slot, participant.RebuttalOf,
		)
		if err != nil {
			_ = transaction.Rollback()

			return fmt.Errorf("failed to insert participant %s: %w", participant.PersonaID, err)
		}
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit thread %s: %w", thread.ID, err)
	}

	return nil
}

// UpdateStatus persists a status change after checking the transition table.
func (r *ThreadRepository) UpdateStatus(ctx context.Context, id string, status models.ThreadStatus) error {
	var current models.ThreadStatus

	err := r.db.QueryRowContext(ctx, "SELECT status FROM threads WHERE id = $1", id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrThreadNotFound
		}

		return fmt.Errorf("failed to read thread %s status: %w", id, err)
	}

	if current == status {
		return nil
	}

	if !current.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", persistence.ErrInvalidThreadStatus, current, status)
	}

	var completedAt any
	if status == models.ThreadStatusComplete {
		completedAt = time.Now().UTC()
	}

	// The WHERE clause repeats the current status so a concurrent writer
	// cannot slip in a regression between the read and the write.
	result, err := r.db.ExecContext(ctx,
		`UPDATE threads SET status = $1, completed_at = COALESCE($2, completed_at) WHERE id = $3 AND status = $4`,
		status, completedAt, id, current,
	)
	if err != nil {
		return fmt.Errorf("failed to update thread %s status: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update result: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: concurrent status change on thread %s", persistence.ErrInvalidThreadStatus, id)
	}

	return nil
}

// SaveContribution inserts a contribution. The (thread, persona, phase)
// unique index supplies insert-if-absent semantics.
func (r *ThreadRepository) SaveContribution(ctx context.Context, contribution *models.Contribution) error {
	points, err := json.Marshal(contribution.Points)
	if err != nil {
		return fmt.Errorf("failed to marshal contribution points: %w", err)
	}

	query := `
		INSERT INTO contributions (id, thread_id, persona_id, phase, slot, attempt_id, body, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		contribution.ID,
		contribution.ThreadID,
		contribution.PersonaID,
		contribution.Phase,
		contribution.Slot,
		contribution.AttemptID,
		contribution.Text,
		points,
		contribution.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrContributionAlreadyExists
		}

		return fmt.Errorf("failed to insert contribution %s: %w", contribution.ID, err)
	}

	return nil
}

// Contributions returns a thread's contributions in phase then slot order.
func (r *ThreadRepository) Contributions(ctx context.Context, threadID string) ([]*models.Contribution, error) {
	query := `
		SELECT
			id
		  , thread_id
		  , persona_id
		  , phase
		  , slot
		  , attempt_id
		  , body
		  , points
		  , created_at
		FROM contributions
		WHERE thread_id = $1
		ORDER BY CASE phase WHEN 'rebuttal' THEN 1 ELSE 0 END, slot
	`

	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	contributions := make([]*models.Contribution, 0)

	for rows.Next() {
		var (
			contribution models.Contribution
			points       []byte
		)

		err = rows.Scan(
			&contribution.ID,
			&contribution.ThreadID,
			&contribution.PersonaID,
			&contribution.Phase,
			&contribution.Slot,
			&contribution.AttemptID,
			&contribution.Text,
			&points,
			&contribution.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}

		if len(points) > 0 {
			err = json.Unmarshal(points, &contribution.Points)
			if err != nil {
				return nil, fmt.Errorf("failed to parse contribution points: %w", err)
			}
		}

		contributions = append(contributions, &contribution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating contributions: %w", err)
	}

	return contributions, nil
}

// SaveSynthesis inserts the thread's synthesis, at most once.
func (r *ThreadRepository) SaveSynthesis(ctx context.Context, synthesis *models.Synthesis) error {
	tensions, err := json.Marshal(synthesis.Tensions)
	if err != nil {
		return fmt.Errorf("failed to marshal synthesis tensions: %w", err)
	}

	agreements, err := json.Marshal(synthesis.Agreements)
	if err != nil {
		return fmt.Errorf("failed to marshal synthesis agreements: %w", err)
	}

	takeaways, err := json.Marshal(synthesis.Takeaways)
	if err != nil {
		return fmt.Errorf("failed to marshal synthesis takeaways: %w", err)
	}

	query := `
		INSERT INTO syntheses (id, thread_id, tensions, agreements, takeaways, attempt_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		synthesis.ID,
		synthesis.ThreadID,
		tensions,
		agreements,
		takeaways,
		synthesis.AttemptID,
		synthesis.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrSynthesisAlreadyExists
		}

		return fmt.Errorf("failed to insert synthesis %s: %w", synthesis.ID, err)
	}

	return nil
}

// Synthesis returns the thread's synthesis if present.
func (r *ThreadRepository) Synthesis(ctx context.Context, threadID string) (*models.Synthesis, error) {
	query := `
		SELECT
			id
		  , thread_id
		  , tensions
		  , agreements
		  , takeaways
		  , COALESCE(attempt_id::text, '')
		  , created_at
		FROM syntheses
		WHERE thread_id = $1
	`

	var (
		synthesis  models.Synthesis
		tensions   []byte
		agreements []byte
		takeaways  []byte
	)

	err := r.db.QueryRowContext(ctx, query, threadID).Scan(
		&synthesis.ID,
		&synthesis.ThreadID,
		&tensions,
		&agreements,
		&takeaways,
		&synthesis.AttemptID,
		&synthesis.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSynthesisNotFound
		}

		return nil, fmt.Errorf("failed to scan synthesis: %w", err)
	}

	for dst, raw := range map[*[]string][]byte{
		&synthesis.Tensions:   tensions,
		&synthesis.Agreements: agreements,
		&synthesis.Takeaways:  takeaways,
	} {
		if len(raw) > 0 {
			err = json.Unmarshal(raw, dst)
			if err != nil {
				return nil, fmt.Errorf("failed to parse synthesis fields: %w", err)
			}
		}
	}

	return &synthesis, nil
}

func (r *ThreadRepository) loadParticipants(ctx context.Context, thread *models.Thread) error {
	query := `
		SELECT
			persona_id
		  , slot
		  , COALESCE(rebuttal_of::text, '')
		FROM thread_participants
		WHERE thread_id = $1
		ORDER BY slot
	`

	rows, err := r.db.QueryContext(ctx, query, thread.ID)
	if err != nil {
		return fmt.Errorf("failed to query participants: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	thread.Participants = make([]models.Participant, 0)

	for rows.Next() {
		var participant models.Participant

		err = rows.Scan(&participant.PersonaID, &participant.Slot, &participant.RebuttalOf)
		if err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}

		thread.Participants = append(thread.Participants, participant)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating participants: %w", err)
	}

	return nil
}

func scanThread(row rowScanner) (*models.Thread, error) {
	var (
		thread      models.Thread
		completedAt sql.NullTime
	)

	err := row.Scan(
		&thread.ID,
		&thread.Kind,
		&thread.Topic,
		&thread.SourceTitle,
		&thread.SourceExcerpt,
		&thread.Question,
		&thread.LengthTier,
		&thread.Status,
		&thread.CreatedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan thread: %w", err)
	}

	if completedAt.Valid {
		completed := completedAt.Time
		thread.CompletedAt = &completed
	}

	return &thread, nil
}
