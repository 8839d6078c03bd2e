// Package web provides HTTP request and response types for the thread API.
package web

import (
	"time"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/services"
)

// CreateDebateRequest represents the request body for starting a debate.
// Personas are listed in speaking order.
type CreateDebateRequest struct {
	Topic         string   `json:"topic"          validate:"required,min=3"`
	SourceTitle   string   `json:"source_title"   validate:"required"`
	SourceExcerpt string   `json:"source_excerpt"`
	PersonaIDs    []string `json:"persona_ids"    validate:"required,min=2,dive,required"`
	Length        string   `json:"length"         validate:"omitempty,oneof=short medium long"`
}

// CreateQuestionRequest represents the request body for a reader question thread.
type CreateQuestionRequest struct {
	Question   string   `json:"question"    validate:"required,min=3"`
	PersonaIDs []string `json:"persona_ids" validate:"required,min=1,dive,required"`
	Length     string   `json:"length"      validate:"omitempty,oneof=short medium long"`
}

// CreateCommentaryRequest represents the request body for a single-persona commentary.
type CreateCommentaryRequest struct {
	SourceTitle   string `json:"source_title"   validate:"required"`
	SourceExcerpt string `json:"source_excerpt"`
	PersonaID     string `json:"persona_id"     validate:"required"`
	Length        string `json:"length"         validate:"omitempty,oneof=short medium long"`
}

// CreatePersonaRequest represents the request body for registering a persona.
type CreatePersonaRequest struct {
	Name    string `json:"name"    validate:"required,min=2"`
	Style   string `json:"style"   validate:"required"`
	Color   string `json:"color"`
	Initial string `json:"initial" validate:"omitempty,max=2"`
}

// AddPromptRequest represents the request body for appending a prompt version.
type AddPromptRequest struct {
	Content  string `json:"content"  validate:"required,min=10"`
	Activate bool   `json:"activate"`
}

// ParticipantResponse is one roster entry in the thread view. Pending is true
// while the thread is in-progress and the participant has not contributed;
// once the thread is complete a missing contribution means the persona did
// not respond.
type ParticipantResponse struct {
	PersonaID     string                  `json:"persona_id"`
	Slot          int                     `json:"slot"`
	RebuttalOf    string                  `json:"rebuttal_of,omitempty"`
	Contributions []*ContributionResponse `json:"contributions"`
	Pending       bool                    `json:"pending"`
	DidNotRespond bool                    `json:"did_not_respond"`
}

// ContributionResponse represents one generated contribution.
type ContributionResponse struct {
	ID        string        `json:"id"`
	Phase     models.Phase  `json:"phase"`
	Text      string        `json:"text,omitempty"`
	Points    []string      `json:"points,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ThreadResponse is the poll shape: consistent at every point of the
// generation lifecycle.
type ThreadResponse struct {
	ID            string                `json:"id"`
	Kind          models.ThreadKind     `json:"kind"`
	Topic         string                `json:"topic,omitempty"`
	SourceTitle   string                `json:"source_title,omitempty"`
	SourceExcerpt string                `json:"source_excerpt,omitempty"`
	Question      string                `json:"question,omitempty"`
	Length        models.LengthTier     `json:"length"`
	Status        models.ThreadStatus   `json:"status"`
	Participants  []ParticipantResponse `json:"participants"`
	Synthesis     *SynthesisResponse    `json:"synthesis,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
}

// SynthesisResponse represents the cross-contribution summary.
type SynthesisResponse struct {
	Tensions   []string  `json:"tensions"`
	Agreements []string  `json:"agreements"`
	Takeaways  []string  `json:"takeaways"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransformThreadResponse flattens the service view into the poll shape.
func TransformThreadResponse(view *services.View) ThreadResponse {
	thread := view.Thread

	byPersona := make(map[string][]*ContributionResponse, len(view.Contributions))
	for _, contribution := range view.Contributions {
		byPersona[contribution.PersonaID] = append(byPersona[contribution.PersonaID], &ContributionResponse{
			ID:        contribution.ID,
			Phase:     contribution.Phase,
			Text:      contribution.Text,
			Points:    contribution.Points,
			CreatedAt: contribution.CreatedAt,
		})
	}

	participants := make([]ParticipantResponse, 0, len(thread.Participants))

	for _, participant := range thread.Participants {
		contributions := byPersona[participant.PersonaID]
		if contributions == nil {
			contributions = []*ContributionResponse{}
		}

		participants = append(participants, ParticipantResponse{
			PersonaID:     participant.PersonaID,
			Slot:          participant.Slot,
			RebuttalOf:    participant.RebuttalOf,
			Contributions: contributions,
			Pending:       len(contributions) == 0 && thread.Status != models.ThreadStatusComplete,
			DidNotRespond: len(contributions) == 0 && thread.Status == models.ThreadStatusComplete,
		})
	}

	response := ThreadResponse{
		ID:            thread.ID,
		Kind:          thread.Kind,
		Topic:         thread.Topic,
		SourceTitle:   thread.SourceTitle,
		SourceExcerpt: thread.SourceExcerpt,
		Question:      thread.Question,
		Length:        thread.LengthTier,
		Status:        thread.Status,
		Participants:  participants,
		CreatedAt:     thread.CreatedAt,
		CompletedAt:   thread.CompletedAt,
	}

	if view.Synthesis != nil {
		response.Synthesis = &SynthesisResponse{
			Tensions:   view.Synthesis.Tensions,
			Agreements: view.Synthesis.Agreements,
			Takeaways:  view.Synthesis.Takeaways,
			CreatedAt:  view.Synthesis.CreatedAt,
		}
	}

	return response
}
