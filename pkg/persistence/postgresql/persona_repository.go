package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
)

// PersonaRepository handles persona-related database operations.
type PersonaRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersonaRepository creates a new persona repository.
func NewPersonaRepository(db *sql.DB, logger *slog.Logger) *PersonaRepository {
	return &PersonaRepository{db: db, logger: logger}
}

// GetAll returns all personas sorted by name.
func (r *PersonaRepository) GetAll(ctx context.Context) ([]*models.Persona, error) {
	query := `
		SELECT
			id
		  , name
		  , style
		  , color
		  , initial
		  , created_at
		  , updated_at
		FROM personas
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query personas: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	personas := make([]*models.Persona, 0)

	for rows.Next() {
		var persona models.Persona

		err = rows.Scan(
			&persona.ID,
			&persona.Name,
			&persona.Style,
			&persona.Color,
			&persona.Initial,
			&persona.CreatedAt,
			&persona.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan persona: %w", err)
		}

		personas = append(personas, &persona)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating personas: %w", err)
	}

	return personas, nil
}

// GetByID returns a persona by its ID.
func (r *PersonaRepository) GetByID(ctx context.Context, id string) (*models.Persona, error) {
	query := `
		SELECT
			id
		  , name
		  , style
		  , color
		  , initial
		  , created_at
		  , updated_at
		FROM personas
		WHERE id = $1
	`

	var persona models.Persona

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&persona.ID,
		&persona.Name,
		&persona.Style,
		&persona.Color,
		&persona.Initial,
		&persona.CreatedAt,
		&persona.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrPersonaNotFound
		}

		return nil, fmt.Errorf("failed to scan persona: %w", err)
	}

	return &persona, nil
}

// Save upserts a persona.
func (r *PersonaRepository) Save(ctx context.Context, persona *models.Persona) error {
	query := `
		INSERT INTO personas (id, name, style, color, initial, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , style = EXCLUDED.style
		  , color = EXCLUDED.color
		  , initial = EXCLUDED.initial
		  , updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		persona.ID,
		persona.Name,
		persona.Style,
		persona.Color,
		persona.Initial,
		persona.CreatedAt,
		persona.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save persona %s: %w", persona.ID, err)
	}

	return nil
}

// Prompts returns every prompt version for a persona, newest first.
func (r *PersonaRepository) Prompts(ctx context.Context, personaID string) ([]*models.PersonaPrompt, error) {
	query := `
		SELECT
			id
		  , persona_id
		  , version
		  , content
		  , active
		  , created_at
		FROM persona_prompts
		WHERE persona_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, personaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts for persona %s: %w", personaID, err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	prompts := make([]*models.PersonaPrompt, 0)

	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}

		prompts = append(prompts, prompt)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating prompts: %w", err)
	}

	return prompts, nil
}

// ActivePrompt returns the single active prompt version for a persona.
func (r *PersonaRepository) ActivePrompt(ctx context.Context, personaID string) (*models.PersonaPrompt, error) {
	query := `
		SELECT
			id
		  , persona_id
		  , version
		  , content
		  , active
		  , created_at
		FROM persona_prompts
		WHERE persona_id = $1 AND active
	`

	prompt, err := scanPrompt(r.db.QueryRowContext(ctx, query, personaID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNoActivePrompt
		}

		return nil, err
	}

	return prompt, nil
}

// SavePrompt appends a new prompt version.
func (r *PersonaRepository) SavePrompt(ctx context.Context, prompt *models.PersonaPrompt) error {
	query := `
		INSERT INTO persona_prompts (id, persona_id, version, content, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		prompt.ID,
		prompt.PersonaID,
		prompt.Version,
		prompt.Content,
		prompt.Active,
		prompt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prompt %s: %w", prompt.ID, err)
	}

	return nil
}

// ActivatePrompt deactivates the previous active version and activates the
// given one inside a single transaction.
func (r *PersonaRepository) ActivatePrompt(ctx context.Context, personaID, promptID string) error {
	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = transaction.ExecContext(ctx,
		"UPDATE persona_prompts SET active = false WHERE persona_id = $1 AND active", personaID)
	if err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to deactivate previous prompt: %w", err)
	}

	result, err := transaction.ExecContext(ctx,
		"UPDATE persona_prompts SET active = true WHERE id = $1 AND persona_id = $2", promptID, personaID)
	if err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to activate prompt %s: %w", promptID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to check activation result: %w", err)
	}

	if affected == 0 {
		_ = transaction.Rollback()

		return persistence.ErrPromptNotFound
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit prompt activation: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (*models.PersonaPrompt, error) {
	var prompt models.PersonaPrompt

	err := row.Scan(
		&prompt.ID,
		&prompt.PersonaID,
		&prompt.Version,
		&prompt.Content,
		&prompt.Active,
		&prompt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan prompt: %w", err)
	}

	return &prompt, nil
}
