package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
)

// PersonaService manages personas and their versioned prompt sets.
type PersonaService struct {
	persistence persistence.Persistence
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewPersonaService(p persistence.Persistence, logger *slog.Logger) *PersonaService {
	return &PersonaService{
		persistence: p,
		validator:   validator.New(),
		logger:      logger.With("module", "persona_service"),
	}
}

func (s *PersonaService) List(ctx context.Context) ([]*models.Persona, error) {
	return s.persistence.PersonaRepository().GetAll(ctx)
}

func (s *PersonaService) Get(ctx context.Context, id string) (*models.Persona, error) {
	return s.persistence.PersonaRepository().GetByID(ctx, id)
}

type CreatePersonaParams struct {
	Name    string `validate:"required,min=2"`
	Style   string `validate:"required"`
	Color   string `validate:"omitempty"`
	Initial string `validate:"omitempty,max=2"`
}

func (s *PersonaService) Create(ctx context.Context, params CreatePersonaParams) (*models.Persona, error) {
	err := s.validator.Struct(params)
	if err != nil {
		return nil, fmt.Errorf("invalid persona: %w", err)
	}

	now := time.Now().UTC()
	persona := &models.Persona{
		ID:        uuid.New().String(),
		Name:      params.Name,
		Style:     params.Style,
		Color:     params.Color,
		Initial:   params.Initial,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.persistence.PersonaRepository().Save(ctx, persona)
	if err != nil {
		return nil, fmt.Errorf("failed to save persona: %w", err)
	}

	s.logger.InfoContext(ctx, "persona created", "persona_id", persona.ID, "name", persona.Name)

	return persona, nil
}

func (s *PersonaService) Prompts(ctx context.Context, personaID string) ([]*models.PersonaPrompt, error) {
	return s.persistence.PersonaRepository().Prompts(ctx, personaID)
}

// AddPrompt appends a new prompt version for the persona. The version number
// is one past the newest existing version; when activate is set, the new
// version becomes the active one in the same call.
func (s *PersonaService) AddPrompt(ctx context.Context, personaID, content string, activate bool) (*models.PersonaPrompt, error) {
	if content == "" {
		return nil, fmt.Errorf("prompt content is required")
	}

	personas := s.persistence.PersonaRepository()

	_, err := personas.GetByID(ctx, personaID)
	if err != nil {
		return nil, err
	}

	existing, err := personas.Prompts(ctx, personaID)
	if err != nil {
		return nil, err
	}

	version := 1
	for _, prompt := range existing {
		if prompt.Version >= version {
			version = prompt.Version + 1
		}
	}

	prompt := &models.PersonaPrompt{
		ID:        uuid.New().String(),
		PersonaID: personaID,
		Version:   version,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	err = personas.SavePrompt(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to save prompt version: %w", err)
	}

	if activate {
		err = personas.ActivatePrompt(ctx, personaID, prompt.ID)
		if err != nil {
			return nil, fmt.Errorf("prompt saved but not activated: %w", err)
		}

		prompt.Active = true
	}

	s.logger.InfoContext(ctx, "prompt version added",
		"persona_id", personaID,
		"version", version,
		"active", activate,
	)

	return prompt, nil
}

// ActivatePrompt switches the persona's active version atomically. In-flight
// generations that already resolved the previous version keep using it.
func (s *PersonaService) ActivatePrompt(ctx context.Context, personaID, promptID string) error {
	return s.persistence.PersonaRepository().ActivatePrompt(ctx, personaID, promptID)
}
