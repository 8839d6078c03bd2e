package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/persistence/file"
)

func newPersonaService(t *testing.T) *PersonaService {
	t.Helper()

	return NewPersonaService(file.NewPersistence(t.TempDir()), slog.Default())
}

func TestPersonaService_CreateAndGet(t *testing.T) {
	service := newPersonaService(t)
	ctx := context.Background()

	persona, err := service.Create(ctx, CreatePersonaParams{
		Name:    "Hannah Arendt",
		Style:   "political",
		Initial: "HA",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, persona.ID)

	fetched, err := service.Get(ctx, persona.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hannah Arendt", fetched.Name)
}

func TestPersonaService_Create_InvalidName(t *testing.T) {
	service := newPersonaService(t)

	_, err := service.Create(context.Background(), CreatePersonaParams{
		Name:  "H",
		Style: "political",
	})
	assert.Error(t, err)
}

func TestPersonaService_AddPrompt_VersionsAreAppendOnly(t *testing.T) {
	service := newPersonaService(t)
	ctx := context.Background()

	persona, err := service.Create(ctx, CreatePersonaParams{Name: "Hannah Arendt", Style: "political"})
	require.NoError(t, err)

	first, err := service.AddPrompt(ctx, persona.ID, "Think without a banister.", true)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.True(t, first.Active)

	second, err := service.AddPrompt(ctx, persona.ID, "Consider the banality of evil.", false)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.False(t, second.Active)

	prompts, err := service.Prompts(ctx, persona.ID)
	require.NoError(t, err)
	assert.Len(t, prompts, 2)
}

func TestPersonaService_ActivatePrompt_Switches(t *testing.T) {
	service := newPersonaService(t)
	ctx := context.Background()

	persona, err := service.Create(ctx, CreatePersonaParams{Name: "Hannah Arendt", Style: "political"})
	require.NoError(t, err)

	first, err := service.AddPrompt(ctx, persona.ID, "Version one content here.", true)
	require.NoError(t, err)

	second, err := service.AddPrompt(ctx, persona.ID, "Version two content here.", false)
	require.NoError(t, err)

	require.NoError(t, service.ActivatePrompt(ctx, persona.ID, second.ID))

	prompts, err := service.Prompts(ctx, persona.ID)
	require.NoError(t, err)

	for _, prompt := range prompts {
		if prompt.ID == first.ID {
			assert.False(t, prompt.Active)
		}

		if prompt.ID == second.ID {
			assert.True(t, prompt.Active)
		}
	}
}

func TestPersonaService_AddPrompt_UnknownPersona(t *testing.T) {
	service := newPersonaService(t)

	_, err := service.AddPrompt(context.Background(), "ghost", "Some content.", false)
	assert.True(t, persistence.IsPersonaNotFound(err))
}
