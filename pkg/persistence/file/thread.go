package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
)

// threadRecord is the on-disk document: the thread aggregate with its
// contributions and synthesis.
type threadRecord struct {
	Thread        *models.Thread         `json:"thread"`
	Contributions []*models.Contribution `json:"contributions"`
	Synthesis     *models.Synthesis      `json:"synthesis,omitempty"`
}

// ThreadRepository handles thread-related file operations.
type ThreadRepository struct {
	root string
	mu   sync.Mutex
}

// NewThreadRepository creates a new thread repository.
func NewThreadRepository(root string) *ThreadRepository {
	return &ThreadRepository{root: root}
}

func (tr *ThreadRepository) dir() string {
	return path.Join(tr.root, "threads")
}

func (tr *ThreadRepository) filePath(id string) string {
	return path.Join(tr.dir(), id+".json")
}

func (tr *ThreadRepository) load(id string) (*threadRecord, error) {
	data, err := os.ReadFile(tr.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrThreadNotFound
		}

		return nil, fmt.Errorf("failed to read thread %s: %w", id, err)
	}

	var record threadRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to parse thread %s: %w", id, err)
	}

	return &record, nil
}

func (tr *ThreadRepository) store(id string, record *threadRecord) error {
	err := os.MkdirAll(tr.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create threads directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal thread %s: %w", id, err)
	}

	err = os.WriteFile(tr.filePath(id), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write thread %s: %w", id, err)
	}

	return nil
}

// GetAll returns all threads, newest first.
func (tr *ThreadRepository) GetAll(ctx context.Context) ([]*models.Thread, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	root := os.DirFS(tr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list thread files: %w", err)
	}

	threads := make([]*models.Thread, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		record, err := tr.load(file[:len(file)-len(".json")])
		if err != nil {
			return nil, err
		}

		threads = append(threads, record.Thread)
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})

	return threads, nil
}

// GetByID returns a thread by its ID.
func (tr *ThreadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	record, err := tr.load(id)
	if err != nil {
		return nil, err
	}

	return record.Thread, nil
}

// Create inserts a new thread, failing if the id already exists.
func (tr *ThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, err := tr.load(thread.ID); err == nil {
		return persistence.ErrThreadAlreadyExists
	}

	return tr.store(thread.ID, &threadRecord{
		Thread:        thread,
		Contributions: []*models.Contribution{},
	})
}

// UpdateStatus persists a status change after checking the transition table.
func (tr *ThreadRepository) UpdateStatus(ctx context.Context, id string, status models.ThreadStatus) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	record, err := tr.load(id)
	if err != nil {
		return err
	}

	if record.Thread.Status == status {
		return nil
	}

	if !record.Thread.Status.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", persistence.ErrInvalidThreadStatus, record.Thread.Status, status)
	}

	record.Thread.Status = status

	if status == models.ThreadStatusComplete {
		now := nowUTC()
		record.Thread.CompletedAt = &now
	}

	return tr.store(id, record)
}

// SaveContribution inserts a contribution, rejecting duplicates for the same
// (persona, phase) so re-runs stay idempotent.
func (tr *ThreadRepository) SaveContribution(ctx context.Context, contribution *models.Contribution) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	record, err := tr.load(contribution.ThreadID)
	if err != nil {
		return err
	}

	for _, existing := range record.Contributions {
		if existing.PersonaID == contribution.PersonaID && existing.Phase == contribution.Phase {
			return persistence.ErrContributionAlreadyExists
		}
	}

	record.Contributions = append(record.Contributions, contribution)

	return tr.store(contribution.ThreadID, record)
}

// Contributions returns a thread's contributions in slot order, statements
// before rebuttals.
func (tr *ThreadRepository) Contributions(ctx context.Context, threadID string) ([]*models.Contribution, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	record, err := tr.load(threadID)
	if err != nil {
		return nil, err
	}

	contributions := make([]*models.Contribution, len(record.Contributions))
	copy(contributions, record.Contributions)

	sort.SliceStable(contributions, func(i, j int) bool {
		if contributions[i].Phase != contributions[j].Phase {
			return phaseRank(contributions[i].Phase) < phaseRank(contributions[j].Phase)
		}

		return contributions[i].Slot < contributions[j].Slot
	})

	return contributions, nil
}

// SaveSynthesis inserts the thread's synthesis, at most once.
func (tr *ThreadRepository) SaveSynthesis(ctx context.Context, synthesis *models.Synthesis) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	record, err := tr.load(synthesis.ThreadID)
	if err != nil {
		return err
	}

	if record.Synthesis != nil {
		return persistence.ErrSynthesisAlreadyExists
	}

	record.Synthesis = synthesis

	return tr.store(synthesis.ThreadID, record)
}

// Synthesis returns the thread's synthesis if present.
func (tr *ThreadRepository) Synthesis(ctx context.Context, threadID string) (*models.Synthesis, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	record, err := tr.load(threadID)
	if err != nil {
		return nil, err
	}

	if record.Synthesis == nil {
		return nil, persistence.ErrSynthesisNotFound
	}

	return record.Synthesis, nil
}

func phaseRank(phase models.Phase) int {
	switch phase {
	case models.PhaseStatement, models.PhaseResponse, models.PhaseCommentary:
		return 0
	case models.PhaseRebuttal:
		return 1
	}

	return 2
}
