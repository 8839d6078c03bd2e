package scheduler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/symposiumhq/symposium/pkg/mocks"
	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/persistence/file"
	"github.com/symposiumhq/symposium/pkg/services"
)

func newTestScheduler(t *testing.T, topics []Topic) (*Scheduler, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	threads := services.NewThreadService(p, bus, slog.Default())
	personas := services.NewPersonaService(p, slog.Default())

	return NewScheduler(threads, personas, topics, slog.Default()), p
}

func seedPersonas(t *testing.T, p persistence.Persistence, ids ...string) {
	t.Helper()

	for _, id := range ids {
		require.NoError(t, p.PersonaRepository().Save(context.Background(), &models.Persona{
			ID: id, Name: "Persona " + id, Style: "stoic", CreatedAt: time.Now().UTC(),
		}))
	}
}

func TestNextTopic_Rotation(t *testing.T) {
	s, _ := newTestScheduler(t, []Topic{
		{Topic: "first"},
		{Topic: "second"},
	})

	got := make([]string, 0, 4)

	for range 4 {
		topic, ok := s.nextTopic()
		require.True(t, ok)
		got = append(got, topic.Topic)
	}

	assert.Equal(t, []string{"first", "second", "first", "second"}, got)
}

func TestNextTopic_EmptyList(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	_, ok := s.nextTopic()
	assert.False(t, ok)
}

func TestPickPersonas(t *testing.T) {
	personas := []*models.Persona{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"},
	}

	picked := pickPersonas(personas, 3)
	assert.Len(t, picked, 3)

	// Fewer personas than the cap returns everyone.
	picked = pickPersonas(personas[:2], 3)
	assert.ElementsMatch(t, []string{"a", "b"}, picked)
}

func TestFire_CreatesDebate(t *testing.T) {
	ctx := context.Background()
	s, p := newTestScheduler(t, []Topic{
		{Topic: "Is virtue teachable?", SourceTitle: "Meno"},
	})
	seedPersonas(t, p, "a", "b", "c", "d")

	s.fire(ctx)

	threads, err := p.ThreadRepository().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)

	thread := threads[0]
	assert.Equal(t, models.ThreadKindDebate, thread.Kind)
	assert.Equal(t, "Is virtue teachable?", thread.Topic)
	assert.Equal(t, "Meno", thread.SourceTitle)
	assert.Equal(t, models.LengthMedium, thread.LengthTier)
	assert.Len(t, thread.Participants, debateSize)
}

func TestFire_SkipsWithoutEnoughPersonas(t *testing.T) {
	ctx := context.Background()
	s, p := newTestScheduler(t, []Topic{{Topic: "Solitary musings"}})
	seedPersonas(t, p, "a")

	s.fire(ctx)

	threads, err := p.ThreadRepository().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestFire_SkipsWithoutTopics(t *testing.T) {
	ctx := context.Background()
	s, p := newTestScheduler(t, nil)
	seedPersonas(t, p, "a", "b", "c")

	s.fire(ctx)

	threads, err := p.ThreadRepository().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestLoadTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"topic": "Is virtue teachable?", "source_title": "Meno"},
		{"topic": "What is justice?", "source_title": "The Republic", "source_excerpt": "Book I"}
	]`), 0o600))

	topics, err := LoadTopics(path)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Meno", topics[0].SourceTitle)
	assert.Equal(t, "Book I", topics[1].SourceExcerpt)
}

func TestLoadTopics_MissingFile(t *testing.T) {
	_, err := LoadTopics(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
