package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/symposiumhq/symposium/pkg/models"
)

// AttemptRepository stores the generation audit trail, one file per thread.
type AttemptRepository struct {
	root string
	mu   sync.Mutex
}

// NewAttemptRepository creates a new attempt repository.
func NewAttemptRepository(root string) *AttemptRepository {
	return &AttemptRepository{root: root}
}

func (ar *AttemptRepository) dir() string {
	return path.Join(ar.root, "attempts")
}

func (ar *AttemptRepository) filePath(threadID string) string {
	return path.Join(ar.dir(), threadID+".json")
}

// Save appends an attempt record. Records are never modified after the write.
func (ar *AttemptRepository) Save(ctx context.Context, attempt *models.GenerationAttempt) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	attempts, err := ar.load(attempt.ThreadID)
	if err != nil {
		return err
	}

	attempts = append(attempts, attempt)

	err = os.MkdirAll(ar.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create attempts directory: %w", err)
	}

	data, err := json.MarshalIndent(attempts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal attempts for thread %s: %w", attempt.ThreadID, err)
	}

	err = os.WriteFile(ar.filePath(attempt.ThreadID), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write attempts for thread %s: %w", attempt.ThreadID, err)
	}

	return nil
}

// ByThread returns all attempts for a thread in write order.
func (ar *AttemptRepository) ByThread(ctx context.Context, threadID string) ([]*models.GenerationAttempt, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	return ar.load(threadID)
}

func (ar *AttemptRepository) load(threadID string) ([]*models.GenerationAttempt, error) {
	data, err := os.ReadFile(ar.filePath(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.GenerationAttempt{}, nil
		}

		return nil, fmt.Errorf("failed to read attempts for thread %s: %w", threadID, err)
	}

	var attempts []*models.GenerationAttempt

	err = json.Unmarshal(data, &attempts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attempts for thread %s: %w", threadID, err)
	}

	return attempts, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
