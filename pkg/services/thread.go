// Package services implements the application operations behind the API:
// creating threads, managing personas and their prompt versions, and
// assembling the poll-friendly thread view.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/symposiumhq/symposium/pkg/eventbus"
	"github.com/symposiumhq/symposium/pkg/events"
	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
)

// ThreadService creates threads and exposes the read side callers poll.
// Creation is synchronous up to the persisted in-progress row; generation
// happens elsewhere, triggered by the published request event.
type ThreadService struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewThreadService(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *ThreadService {
	return &ThreadService{
		persistence: p,
		publisher:   publisher,
		validator:   validator.New(),
		logger:      logger.With("module", "thread_service"),
	}
}

// CreateDebateParams orders personas by slot: the first entry speaks first.
type CreateDebateParams struct {
	Topic         string            `validate:"required"`
	SourceTitle   string            `validate:"required"`
	SourceExcerpt string            `validate:"omitempty"`
	PersonaIDs    []string          `validate:"required,min=2"`
	LengthTier    models.LengthTier `validate:"required"`
}

// CreateDebate builds the rebuttal ring at creation time: slot n rebuts
// slot n-1 and slot 0 rebuts the last slot. The assignment never changes
// afterwards, whatever each participant's generation does.
func (s *ThreadService) CreateDebate(ctx context.Context, params CreateDebateParams) (*models.Thread, error) {
	err := s.validator.Struct(params)
	if err != nil {
		return nil, fmt.Errorf("invalid debate request: %w", err)
	}

	if len(params.PersonaIDs) < 2 {
		return nil, ErrTooFewParticipants
	}

	participants, err := s.ring(ctx, params.PersonaIDs)
	if err != nil {
		return nil, err
	}

	thread := &models.Thread{
		ID:            uuid.New().String(),
		Kind:          models.ThreadKindDebate,
		Topic:         params.Topic,
		SourceTitle:   params.SourceTitle,
		SourceExcerpt: params.SourceExcerpt,
		LengthTier:    params.LengthTier.OrDefault(),
		Status:        models.ThreadStatusInProgress,
		Participants:  participants,
		CreatedAt:     time.Now().UTC(),
	}

	return s.create(ctx, thread)
}

type CreateQuestionParams struct {
	Question   string            `validate:"required"`
	PersonaIDs []string          `validate:"required,min=1"`
	LengthTier models.LengthTier `validate:"required"`
}

func (s *ThreadService) CreateQuestion(ctx context.Context, params CreateQuestionParams) (*models.Thread, error) {
	err := s.validator.Struct(params)
	if err != nil {
		return nil, fmt.Errorf("invalid question request: %w", err)
	}

	participants, err := s.roster(ctx, params.PersonaIDs)
	if err != nil {
		return nil, err
	}

	thread := &models.Thread{
		ID:           uuid.New().String(),
		Kind:         models.ThreadKindQuestion,
		Question:     params.Question,
		LengthTier:   params.LengthTier.OrDefault(),
		Status:       models.ThreadStatusInProgress,
		Participants: participants,
		CreatedAt:    time.Now().UTC(),
	}

	return s.create(ctx, thread)
}

type CreateCommentaryParams struct {
	SourceTitle   string            `validate:"required"`
	SourceExcerpt string            `validate:"omitempty"`
	PersonaID     string            `validate:"required"`
	LengthTier    models.LengthTier `validate:"required"`
}

func (s *ThreadService) CreateCommentary(ctx context.Context, params CreateCommentaryParams) (*models.Thread, error) {
	err := s.validator.Struct(params)
	if err != nil {
		return nil, fmt.Errorf("invalid commentary request: %w", err)
	}

	participants, err := s.roster(ctx, []string{params.PersonaID})
	if err != nil {
		return nil, err
	}

	thread := &models.Thread{
		ID:            uuid.New().String(),
		Kind:          models.ThreadKindCommentary,
		SourceTitle:   params.SourceTitle,
		SourceExcerpt: params.SourceExcerpt,
		LengthTier:    params.LengthTier.OrDefault(),
		Status:        models.ThreadStatusInProgress,
		Participants:  participants,
		CreatedAt:     time.Now().UTC(),
	}

	return s.create(ctx, thread)
}

// View is the poll shape: always consistent, including mid-generation. A
// participant without a contribution simply has none yet, or never will.
type View struct {
	Thread        *models.Thread
	Contributions []*models.Contribution
	Synthesis     *models.Synthesis
}

func (s *ThreadService) GetThread(ctx context.Context, id string) (*View, error) {
	threads := s.persistence.ThreadRepository()

	thread, err := threads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	contributions, err := threads.Contributions(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &View{Thread: thread, Contributions: contributions}

	synthesis, err := threads.Synthesis(ctx, id)
	if err == nil {
		view.Synthesis = synthesis
	} else if !errors.Is(err, persistence.ErrSynthesisNotFound) {
		return nil, err
	}

	return view, nil
}

func (s *ThreadService) ListThreads(ctx context.Context) ([]*models.Thread, error) {
	return s.persistence.ThreadRepository().GetAll(ctx)
}

// Attempts exposes the generation audit trail for one thread.
func (s *ThreadService) Attempts(ctx context.Context, threadID string) ([]*models.GenerationAttempt, error) {
	_, err := s.persistence.ThreadRepository().GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	return s.persistence.AttemptRepository().ByThread(ctx, threadID)
}

func (s *ThreadService) create(ctx context.Context, thread *models.Thread) (*models.Thread, error) {
	err := s.persistence.ThreadRepository().Create(ctx, thread)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	event := events.ThreadRequested{
		BaseEvent: events.NewBaseEvent(events.ThreadRequestedEvent, thread.ID),
		Kind:      thread.Kind,
	}

	err = s.publisher.Publish(ctx, thread.ID, event)
	if err != nil {
		// The row exists and is pollable; a worker can still pick it up via
		// a republished event or operator action.
		s.logger.ErrorContext(ctx, "failed to publish thread request", "thread_id", thread.ID, "error", err)

		return thread, fmt.Errorf("thread %s created but request event not published: %w", thread.ID, err)
	}

	s.logger.InfoContext(ctx, "thread created", "thread_id", thread.ID, "kind", thread.Kind)

	return thread, nil
}

// roster verifies every persona exists and assigns slots in request order.
func (s *ThreadService) roster(ctx context.Context, personaIDs []string) ([]models.Participant, error) {
	personas := s.persistence.PersonaRepository()
	seen := make(map[string]struct{}, len(personaIDs))
	participants := make([]models.Participant, 0, len(personaIDs))

	for slot, personaID := range personaIDs {
		if _, dup := seen[personaID]; dup {
			return nil, ErrDuplicateParticipant
		}

		seen[personaID] = struct{}{}

		_, err := personas.GetByID(ctx, personaID)
		if err != nil {
			return nil, fmt.Errorf("participant %s: %w", personaID, err)
		}

		participants = append(participants, models.Participant{
			PersonaID: personaID,
			Slot:      slot,
		})
	}

	return participants, nil
}

// ring is roster plus the rebuttal assignment for debates.
func (s *ThreadService) ring(ctx context.Context, personaIDs []string) ([]models.Participant, error) {
	participants, err := s.roster(ctx, personaIDs)
	if err != nil {
		return nil, err
	}

	for i := range participants {
		target := i - 1
		if target < 0 {
			target = len(participants) - 1
		}

		participants[i].RebuttalOf = participants[target].PersonaID
	}

	return participants, nil
}
