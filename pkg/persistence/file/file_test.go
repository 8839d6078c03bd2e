package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
)

func newTestPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func savePersonaWithPrompt(t *testing.T, p persistence.Persistence, id string) {
	t.Helper()

	ctx := context.Background()
	personas := p.PersonaRepository()

	require.NoError(t, personas.Save(ctx, &models.Persona{ID: id, Name: "Epicurus", Style: "hedonist"}))
	require.NoError(t, personas.SavePrompt(ctx, &models.PersonaPrompt{
		ID:        id + "-v1",
		PersonaID: id,
		Version:   1,
		Content:   "Seek tranquil pleasure.",
	}))
	require.NoError(t, personas.ActivatePrompt(ctx, id, id+"-v1"))
}

func TestPersonaRepository_SaveAndGet(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	savePersonaWithPrompt(t, p, "p1")

	persona, err := p.PersonaRepository().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Epicurus", persona.Name)

	all, err := p.PersonaRepository().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPersonaRepository_GetByID_NotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.PersonaRepository().GetByID(context.Background(), "nobody")
	assert.True(t, persistence.IsPersonaNotFound(err))
}

func TestPersonaRepository_ActivePrompt_NoneActive(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	personas := p.PersonaRepository()

	require.NoError(t, personas.Save(ctx, &models.Persona{ID: "p1", Name: "Epicurus", Style: "hedonist"}))
	require.NoError(t, personas.SavePrompt(ctx, &models.PersonaPrompt{
		ID: "v1", PersonaID: "p1", Version: 1, Content: "x",
	}))

	_, err := personas.ActivePrompt(ctx, "p1")
	assert.True(t, persistence.IsNoActivePrompt(err))
}

func TestPersonaRepository_ActivatePrompt_SwapsAtomically(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	personas := p.PersonaRepository()

	savePersonaWithPrompt(t, p, "p1")
	require.NoError(t, personas.SavePrompt(ctx, &models.PersonaPrompt{
		ID: "p1-v2", PersonaID: "p1", Version: 2, Content: "Seek ataraxia.",
	}))

	require.NoError(t, personas.ActivatePrompt(ctx, "p1", "p1-v2"))

	active, err := personas.ActivePrompt(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1-v2", active.ID)

	// Exactly one active version.
	prompts, err := personas.Prompts(ctx, "p1")
	require.NoError(t, err)

	activeCount := 0

	for _, prompt := range prompts {
		if prompt.Active {
			activeCount++
		}
	}

	assert.Equal(t, 1, activeCount)
}

func TestPersonaRepository_ActivatePrompt_UnknownVersion(t *testing.T) {
	p := newTestPersistence(t)

	savePersonaWithPrompt(t, p, "p1")

	err := p.PersonaRepository().ActivatePrompt(context.Background(), "p1", "no-such-version")
	assert.ErrorIs(t, err, persistence.ErrPromptNotFound)
}

func newThread(id string) *models.Thread {
	return &models.Thread{
		ID:         id,
		Kind:       models.ThreadKindQuestion,
		Question:   "What is justice?",
		LengthTier: models.LengthShort,
		Status:     models.ThreadStatusPending,
		Participants: []models.Participant{
			{PersonaID: "p1", Slot: 0},
			{PersonaID: "p2", Slot: 1},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestThreadRepository_CreateAndGet(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	threads := p.ThreadRepository()

	require.NoError(t, threads.Create(ctx, newThread("t1")))

	thread, err := threads.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.ThreadStatusPending, thread.Status)
	assert.Len(t, thread.Participants, 2)
}

func TestThreadRepository_Create_Duplicate(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	threads := p.ThreadRepository()

	require.NoError(t, threads.Create(ctx, newThread("t1")))
	assert.ErrorIs(t, threads.Create(ctx, newThread("t1")), persistence.ErrThreadAlreadyExists)
}

func TestThreadRepository_UpdateStatus_LegalPath(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	threads := p.ThreadRepository()

	require.NoError(t, threads.Create(ctx, newThread("t1")))
	require.NoError(t, threads.UpdateStatus(ctx, "t1", models.ThreadStatusInProgress))
	require.NoError(t, threads.UpdateStatus(ctx, "t1", models.ThreadStatusComplete))

	thread, err := threads.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.ThreadStatusComplete, thread.Status)
	assert.NotNil(t, thread.CompletedAt)
}

func TestThreadRepository_UpdateStatus_IllegalTransition(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	threads := p.ThreadRepository()

	require.NoError(t, threads.Create(ctx, newThread("t1")))

	// pending cannot jump straight to complete.
	err := threads.UpdateStatus(ctx, "t1", models.ThreadStatusComplete)
	assert.True(t, persistence.IsInvalidThreadStatus(err))

	require.NoError(t, threads.UpdateStatus(ctx, "t1", models.ThreadStatusInProgress))
	require.NoError(t, threads.UpdateStatus(ctx, "t1", models.ThreadStatusComplete))

	// complete is terminal.
	err = threads.UpdateStatus(ctx, "t1", models.ThreadStatusInProgress)
	assert.True(t, persistence.IsInvalidThreadStatus(err))
}

func TestThreadRepository_SaveContribution_DuplicateRejected(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	threads := p.ThreadRepository()

	require.NoError(t, threads.Create(ctx, newThread("t1")))

	contribution := &models.Contribution{
		ID:        "c1",
		ThreadID:  "t1",
		PersonaID: "p1",
		Phase:     models.PhaseResponse,
		Slot:      0,
		AttemptID: "a1",
		Points:    []string{"one"},
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, threads.SaveContribution(ctx, contribution))

	duplicate := *contribution
	duplicate.ID = "c2"
	assert.ErrorIs(t, threads.SaveContribution(ctx, &duplicate), persistence.ErrContributionAlreadyExists)
}

func TestThreadRepository_Contributions_Ordering(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	threads := p.ThreadRepository()

	thread := newThread("t1")
	thread.Kind = models.ThreadKindDebate
	require.NoError(t, threads.Create(ctx, thread))

	// Insert out of order: rebuttal for slot 0 first, then statements.
	save := func(id, persona string, phase models.Phase, slot int) {
		require.NoError(t, threads.SaveContribution(ctx, &models.Contribution{
			ID: id, ThreadID: "t1", PersonaID: persona, Phase: phase, Slot: slot,
			AttemptID: id + "-attempt", Text: "x", CreatedAt: time.Now().UTC(),
		}))
	}

	save("c1", "p1", models.PhaseRebuttal, 0)
	save("c2", "p2", models.PhaseStatement, 1)
	save("c3", "p1", models.PhaseStatement, 0)

	contributions, err := threads.Contributions(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, contributions, 3)

	// Statements in slot order, then rebuttals.
	assert.Equal(t, "c3", contributions[0].ID)
	assert.Equal(t, "c2", contributions[1].ID)
	assert.Equal(t, "c1", contributions[2].ID)
}

func TestThreadRepository_Synthesis_AtMostOne(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	threads := p.ThreadRepository()

	require.NoError(t, threads.Create(ctx, newThread("t1")))

	_, err := threads.Synthesis(ctx, "t1")
	assert.ErrorIs(t, err, persistence.ErrSynthesisNotFound)

	synthesis := &models.Synthesis{
		ID:        "s1",
		ThreadID:  "t1",
		Tensions:  []string{"a"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, threads.SaveSynthesis(ctx, synthesis))

	second := *synthesis
	second.ID = "s2"
	assert.ErrorIs(t, threads.SaveSynthesis(ctx, &second), persistence.ErrSynthesisAlreadyExists)

	stored, err := threads.Synthesis(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "s1", stored.ID)
}

func TestAttemptRepository_AppendsInOrder(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()
	attempts := p.AttemptRepository()

	for i := 1; i <= 3; i++ {
		require.NoError(t, attempts.Save(ctx, &models.GenerationAttempt{
			ID:            time.Now().Format("150405.000000000"),
			ThreadID:      "t1",
			PersonaID:     "p1",
			Phase:         models.PhaseResponse,
			AttemptNumber: i,
			Status:        models.AttemptStatusRejected,
			FailReason:    models.FailureTransport,
		}))
	}

	records, err := attempts.ByThread(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 1, records[0].AttemptNumber)
	assert.Equal(t, 3, records[2].AttemptNumber)
}

func TestAttemptRepository_EmptyThread(t *testing.T) {
	p := newTestPersistence(t)

	records, err := p.AttemptRepository().ByThread(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, records)
}
