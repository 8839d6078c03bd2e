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

// personaRecord is the on-disk document: the persona together with every
// prompt version. Keeping them in one file makes prompt activation a single
// rewrite, which is as atomic as file persistence gets.
type personaRecord struct {
	Persona *models.Persona         `json:"persona"`
	Prompts []*models.PersonaPrompt `json:"prompts"`
}

// PersonaRepository handles persona-related file operations.
type PersonaRepository struct {
	root string
	mu   sync.Mutex
}

// NewPersonaRepository creates a new persona repository.
func NewPersonaRepository(root string) *PersonaRepository {
	return &PersonaRepository{root: root}
}

func (pr *PersonaRepository) dir() string {
	return path.Join(pr.root, "personas")
}

func (pr *PersonaRepository) filePath(id string) string {
	return path.Join(pr.dir(), id+".json")
}

func (pr *PersonaRepository) load(id string) (*personaRecord, error) {
	data, err := os.ReadFile(pr.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrPersonaNotFound
		}

		return nil, fmt.Errorf("failed to read persona %s: %w", id, err)
	}

	var record personaRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to parse persona %s: %w", id, err)
	}

	return &record, nil
}

func (pr *PersonaRepository) store(id string, record *personaRecord) error {
	err := os.MkdirAll(pr.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create personas directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal persona %s: %w", id, err)
	}

	err = os.WriteFile(pr.filePath(id), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write persona %s: %w", id, err)
	}

	return nil
}

// GetAll returns all personas sorted by name.
func (pr *PersonaRepository) GetAll(ctx context.Context) ([]*models.Persona, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	root := os.DirFS(pr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list persona files: %w", err)
	}

	personas := make([]*models.Persona, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		record, err := pr.load(file[:len(file)-len(".json")])
		if err != nil {
			return nil, err
		}

		personas = append(personas, record.Persona)
	}

	sort.Slice(personas, func(i, j int) bool {
		return personas[i].Name < personas[j].Name
	})

	return personas, nil
}

// GetByID returns a persona by its ID.
func (pr *PersonaRepository) GetByID(ctx context.Context, id string) (*models.Persona, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	record, err := pr.load(id)
	if err != nil {
		return nil, err
	}

	return record.Persona, nil
}

// Save creates or updates a persona, keeping its existing prompt versions.
func (pr *PersonaRepository) Save(ctx context.Context, persona *models.Persona) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	record, err := pr.load(persona.ID)
	if err != nil {
		record = &personaRecord{Prompts: []*models.PersonaPrompt{}}
	}

	record.Persona = persona

	return pr.store(persona.ID, record)
}

// Prompts returns every prompt version for a persona, newest first.
func (pr *PersonaRepository) Prompts(ctx context.Context, personaID string) ([]*models.PersonaPrompt, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	record, err := pr.load(personaID)
	if err != nil {
		return nil, err
	}

	prompts := make([]*models.PersonaPrompt, len(record.Prompts))
	copy(prompts, record.Prompts)

	sort.Slice(prompts, func(i, j int) bool {
		return prompts[i].Version > prompts[j].Version
	})

	return prompts, nil
}

// ActivePrompt returns the single active prompt version for a persona.
func (pr *PersonaRepository) ActivePrompt(ctx context.Context, personaID string) (*models.PersonaPrompt, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	record, err := pr.load(personaID)
	if err != nil {
		return nil, err
	}

	for _, prompt := range record.Prompts {
		if prompt.Active {
			return prompt, nil
		}
	}

	return nil, persistence.ErrNoActivePrompt
}

// SavePrompt appends a new prompt version.
func (pr *PersonaRepository) SavePrompt(ctx context.Context, prompt *models.PersonaPrompt) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	record, err := pr.load(prompt.PersonaID)
	if err != nil {
		return err
	}

	record.Prompts = append(record.Prompts, prompt)

	return pr.store(prompt.PersonaID, record)
}

// ActivatePrompt marks the given version active and deactivates the previous
// one. The whole prompt list is rewritten in one file write.
func (pr *PersonaRepository) ActivatePrompt(ctx context.Context, personaID, promptID string) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	record, err := pr.load(personaID)
	if err != nil {
		return err
	}

	found := false

	for _, prompt := range record.Prompts {
		if prompt.ID == promptID {
			found = true

			break
		}
	}

	if !found {
		return persistence.ErrPromptNotFound
	}

	for _, prompt := range record.Prompts {
		prompt.Active = prompt.ID == promptID
	}

	return pr.store(personaID, record)
}
