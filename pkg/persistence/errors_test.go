package persistence_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/symposiumhq/symposium/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error constants are available", func(t *testing.T) {
		assert.NotNil(t, persistence.ErrPersonaNotFound)
		assert.NotNil(t, persistence.ErrPromptNotFound)
		assert.NotNil(t, persistence.ErrNoActivePrompt)
		assert.NotNil(t, persistence.ErrThreadNotFound)
		assert.NotNil(t, persistence.ErrThreadAlreadyExists)
		assert.NotNil(t, persistence.ErrInvalidThreadStatus)
		assert.NotNil(t, persistence.ErrContributionAlreadyExists)
		assert.NotNil(t, persistence.ErrSynthesisAlreadyExists)
		assert.NotNil(t, persistence.ErrSynthesisNotFound)
	})

	t.Run("error checking functions work correctly", func(t *testing.T) {
		threadErr := persistence.NewThreadError("GetByID", "thread-123", persistence.ErrThreadNotFound)
		personaErr := persistence.NewPersonaError("ActivatePrompt", "persona-456", persistence.ErrPersonaNotFound)

		assert.True(t, persistence.IsThreadNotFound(threadErr))
		assert.True(t, persistence.IsPersonaNotFound(personaErr))

		// Test error unwrapping
		assert.True(t, errors.Is(threadErr, persistence.ErrThreadNotFound))
		assert.True(t, errors.Is(personaErr, persistence.ErrPersonaNotFound))
	})

	t.Run("thread error contains context", func(t *testing.T) {
		err := persistence.NewThreadError("UpdateStatus", "thread-123", persistence.ErrInvalidThreadStatus)

		assert.Contains(t, err.Error(), "UpdateStatus")
		assert.Contains(t, err.Error(), "thread-123")
		assert.Contains(t, err.Error(), "invalid thread status transition")
	})

	t.Run("persona error contains context", func(t *testing.T) {
		err := persistence.NewPersonaError("ActivePrompt", "persona-456", persistence.ErrNoActivePrompt)

		assert.Contains(t, err.Error(), "ActivePrompt")
		assert.Contains(t, err.Error(), "persona-456")
		assert.Contains(t, err.Error(), "no active prompt version")
	})
}
