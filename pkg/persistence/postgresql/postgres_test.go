package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{
		"generation_attempts", "syntheses", "contributions", "thread_participants",
		"threads", "persona_prompts", "personas", "schema_migrations",
	} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("symposium_test"),
			postgres.WithUsername("symposium"),
			postgres.WithPassword("symposium"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func seedPersona(ctx context.Context, t *testing.T, p *postgresql.Persistence) *models.Persona {
	t.Helper()

	persona := &models.Persona{
		ID:        uuid.New().String(),
		Name:      "Simone Weil",
		Style:     "mystic",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.PersonaRepository().Save(ctx, persona))

	return persona
}

func seedThread(ctx context.Context, t *testing.T, p *postgresql.Persistence, personas ...*models.Persona) *models.Thread {
	t.Helper()

	participants := make([]models.Participant, 0, len(personas))
	for slot, persona := range personas {
		participants = append(participants, models.Participant{PersonaID: persona.ID, Slot: slot})
	}

	thread := &models.Thread{
		ID:           uuid.New().String(),
		Kind:         models.ThreadKindQuestion,
		Question:     "Is attention the rarest form of generosity?",
		LengthTier:   models.LengthShort,
		Status:       models.ThreadStatusPending,
		Participants: participants,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, p.ThreadRepository().Create(ctx, thread))

	return thread
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'threads')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "threads table should exist")

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'schema_migrations')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "schema_migrations table should exist")

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestPersonaRepository_SaveAndRetrieve(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	persona := seedPersona(ctx, t, p)

	found, err := p.PersonaRepository().GetByID(ctx, persona.ID)
	require.NoError(t, err)
	assert.Equal(t, persona.Name, found.Name)
	assert.Equal(t, persona.Style, found.Style)

	_, err = p.PersonaRepository().GetByID(ctx, uuid.New().String())
	assert.True(t, persistence.IsPersonaNotFound(err))
}

func TestPersonaRepository_PromptActivation(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	persona := seedPersona(ctx, t, p)
	repo := p.PersonaRepository()

	first := &models.PersonaPrompt{
		ID:        uuid.New().String(),
		PersonaID: persona.ID,
		Version:   1,
		Content:   "Speak plainly about difficult things.",
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SavePrompt(ctx, first))

	_, err := repo.ActivePrompt(ctx, persona.ID)
	assert.True(t, persistence.IsNoActivePrompt(err))

	require.NoError(t, repo.ActivatePrompt(ctx, persona.ID, first.ID))

	second := &models.PersonaPrompt{
		ID:        uuid.New().String(),
		PersonaID: persona.ID,
		Version:   2,
		Content:   "Speak plainly, and shortly, about difficult things.",
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SavePrompt(ctx, second))
	require.NoError(t, repo.ActivatePrompt(ctx, persona.ID, second.ID))

	active, err := repo.ActivePrompt(ctx, persona.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 2, active.Version)

	prompts, err := repo.Prompts(ctx, persona.ID)
	require.NoError(t, err)
	require.Len(t, prompts, 2)

	activeCount := 0

	for _, prompt := range prompts {
		if prompt.Active {
			activeCount++
		}
	}

	assert.Equal(t, 1, activeCount)
}

func TestThreadRepository_CreateAndStatus(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	persona := seedPersona(ctx, t, p)
	thread := seedThread(ctx, t, p, persona)
	repo := p.ThreadRepository()

	err := repo.Create(ctx, thread)
	assert.ErrorIs(t, err, persistence.ErrThreadAlreadyExists)

	found, err := repo.GetByID(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ThreadStatusPending, found.Status)
	require.Len(t, found.Participants, 1)
	assert.Equal(t, persona.ID, found.Participants[0].PersonaID)

	require.NoError(t, repo.UpdateStatus(ctx, thread.ID, models.ThreadStatusInProgress))

	err = repo.UpdateStatus(ctx, thread.ID, models.ThreadStatusPending)
	assert.True(t, persistence.IsInvalidThreadStatus(err))

	require.NoError(t, repo.UpdateStatus(ctx, thread.ID, models.ThreadStatusComplete))

	found, err = repo.GetByID(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ThreadStatusComplete, found.Status)
	assert.NotNil(t, found.CompletedAt)
}

func TestThreadRepository_ContributionIdempotence(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	persona := seedPersona(ctx, t, p)
	thread := seedThread(ctx, t, p, persona)
	repo := p.ThreadRepository()

	contribution := &models.Contribution{
		ID:        uuid.New().String(),
		ThreadID:  thread.ID,
		PersonaID: persona.ID,
		Phase:     models.PhaseResponse,
		Slot:      0,
		AttemptID: uuid.New().String(),
		Points:    []string{"attention is moral effort", "generosity is costly"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveContribution(ctx, contribution))

	duplicate := *contribution
	duplicate.ID = uuid.New().String()
	err := repo.SaveContribution(ctx, &duplicate)
	assert.ErrorIs(t, err, persistence.ErrContributionAlreadyExists)

	contributions, err := repo.Contributions(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, contributions, 1)
	assert.Equal(t, contribution.Points, contributions[0].Points)
}

func TestThreadRepository_SynthesisAtMostOne(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	persona := seedPersona(ctx, t, p)
	thread := seedThread(ctx, t, p, persona)
	repo := p.ThreadRepository()

	_, err := repo.Synthesis(ctx, thread.ID)
	assert.ErrorIs(t, err, persistence.ErrSynthesisNotFound)

	synthesis := &models.Synthesis{
		ID:        uuid.New().String(),
		ThreadID:  thread.ID,
		Tensions:  []string{"grace vs gravity"},
		Takeaways: []string{"attention matters"},
		AttemptID: uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveSynthesis(ctx, synthesis))

	second := *synthesis
	second.ID = uuid.New().String()
	err = repo.SaveSynthesis(ctx, &second)
	assert.ErrorIs(t, err, persistence.ErrSynthesisAlreadyExists)

	found, err := repo.Synthesis(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, synthesis.Tensions, found.Tensions)
}

func TestAttemptRepository_AuditTrailOrder(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	persona := seedPersona(ctx, t, p)
	thread := seedThread(ctx, t, p, persona)
	repo := p.AttemptRepository()

	failed := &models.GenerationAttempt{
		ID:            uuid.New().String(),
		ThreadID:      thread.ID,
		PersonaID:     persona.ID,
		TemplateKey:   "question_response",
		Phase:         models.PhaseResponse,
		AttemptNumber: 1,
		Status:        models.AttemptStatusRejected,
		FailReason:    models.FailureTransport,
		FailDetail:    "connection reset",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, failed))

	succeeded := &models.GenerationAttempt{
		ID:            uuid.New().String(),
		ThreadID:      thread.ID,
		PersonaID:     persona.ID,
		TemplateKey:   "question_response",
		Phase:         models.PhaseResponse,
		AttemptNumber: 2,
		Status:        models.AttemptStatusGenerated,
		RawText:       `{"points": ["a"]}`,
		CreatedAt:     time.Now().UTC().Add(time.Millisecond),
	}
	require.NoError(t, repo.Save(ctx, succeeded))

	attempts, err := repo.ByThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, models.FailureTransport, attempts[0].FailReason)
	assert.Equal(t, "connection reset", attempts[0].FailDetail)
	assert.Equal(t, 2, attempts[1].AttemptNumber)
	assert.Equal(t, `{"points": ["a"]}`, attempts[1].RawText)
}

func TestAttemptRepository_ConfigurationFailureWithoutPersona(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	persona := seedPersona(ctx, t, p)
	thread := seedThread(ctx, t, p, persona)
	repo := p.AttemptRepository()

	attempt := &models.GenerationAttempt{
		ID:            uuid.New().String(),
		ThreadID:      thread.ID,
		TemplateKey:   "question_response",
		Phase:         models.PhaseResponse,
		AttemptNumber: 1,
		Status:        models.AttemptStatusRejected,
		FailReason:    models.FailureConfiguration,
		FailDetail:    "no active prompt version",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, attempt))

	attempts, err := repo.ByThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Empty(t, attempts[0].PersonaID)
	assert.Equal(t, models.FailureConfiguration, attempts[0].FailReason)
}
