// Package models defines the core domain models for persona-driven content generation.
package models

import "time"

// Persona represents a configured philosopher identity used to frame generation requests.
type Persona struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"    validate:"required,min=2"`
	Style     string    `json:"style"   validate:"required"`
	Color     string    `json:"color"`
	Initial   string    `json:"initial"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersonaPrompt is one version of a persona's instruction set. Versions are
// append-only; exactly one version per persona is active at any time.
// Historical versions are retained so past generations stay reproducible.
type PersonaPrompt struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"persona_id" validate:"required"`
	Version   int       `json:"version"`
	Content   string    `json:"content"    validate:"required"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
