// Package file provides file-based persistence for personas, threads, and
// generation attempts. It is intended for tests and local development.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/symposiumhq/symposium/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root        string
	personaRepo *PersonaRepository
	threadRepo  *ThreadRepository
	attemptRepo *AttemptRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:        cleanRoot,
		personaRepo: NewPersonaRepository(cleanRoot),
		threadRepo:  NewThreadRepository(cleanRoot),
		attemptRepo: NewAttemptRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) PersonaRepository() persistence.PersonaRepository {
	return fp.personaRepo
}

func (fp *Persistence) ThreadRepository() persistence.ThreadRepository {
	return fp.threadRepo
}

func (fp *Persistence) AttemptRepository() persistence.AttemptRepository {
	return fp.attemptRepo
}
