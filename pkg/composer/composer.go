// Package composer builds the model-facing request from a persona, its active
// prompt version, a content template, and the source material.
package composer

import (
	"fmt"
	"strings"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/provider"
	"github.com/symposiumhq/symposium/pkg/templates"
)

// PersonaTemperature favors stylistic variety for persona generations.
const PersonaTemperature = 0.8

// Input carries everything one composition needs. Prompt must be the
// persona's active prompt version; composition fails closed without it.
type Input struct {
	Persona  *models.Persona
	Prompt   *models.PersonaPrompt
	Template *templates.Template
	Tier     models.LengthTier
	Source   string
}

// Compose merges the persona frame and the content frame into one provider
// request. Returns persistence.ErrNoActivePrompt-shaped configuration errors
// via the generation client; here a nil prompt is simply rejected.
func Compose(in Input) (provider.Request, error) {
	if in.Persona == nil {
		return provider.Request{}, fmt.Errorf("composer: persona is required")
	}

	if in.Prompt == nil || in.Prompt.Content == "" {
		return provider.Request{}, fmt.Errorf("composer: persona %s has no active prompt version", in.Persona.ID)
	}

	if in.Template == nil {
		return provider.Request{}, fmt.Errorf("composer: content template is required")
	}

	var user strings.Builder

	user.WriteString(in.Template.Instantiate(in.Tier))
	user.WriteString("\n\n")

	if in.Template.Reply {
		// The label is a behavioral contract: the material is a statement
		// being responded to, not raw factual input.
		user.WriteString("STATEMENT TO RESPOND TO:\n")
	} else {
		user.WriteString("SOURCE MATERIAL:\n")
	}

	user.WriteString(in.Source)

	return provider.Request{
		System:      personaFrame(in.Persona, in.Prompt),
		User:        user.String(),
		MaxTokens:   in.Tier.MaxTokens(),
		Temperature: PersonaTemperature,
	}, nil
}

func personaFrame(persona *models.Persona, prompt *models.PersonaPrompt) string {
	return fmt.Sprintf("You are %s, writing in the %s tradition.\n\n%s",
		persona.Name, persona.Style, prompt.Content)
}
