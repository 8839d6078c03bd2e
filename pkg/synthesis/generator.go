// Package synthesis produces the persona-less cross-contribution summary for
// a thread. It is generated at most once, with a single provider call, and is
// best-effort: a thread completes with or without it.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/symposiumhq/symposium/pkg/generation"
	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/provider"
	"github.com/symposiumhq/symposium/pkg/templates"
)

// Temperature favors consistency over stylistic variety: the synthesis is an
// impartial aggregation, not a persona performance.
const Temperature = 0.2

// MaxTokens bounds the synthesis call independently of the thread's length tier.
const MaxTokens = 1200

// Generator runs the second-order summary generation over a thread's
// successful contributions.
type Generator struct {
	client   *generation.Client
	attempts persistence.AttemptRepository
	logger   *slog.Logger
}

// NewGenerator creates a synthesis generator.
func NewGenerator(client *generation.Client, attempts persistence.AttemptRepository, logger *slog.Logger) *Generator {
	return &Generator{
		client:   client,
		attempts: attempts,
		logger:   logger.With("module", "synthesis_generator"),
	}
}

// Generate performs one synthesis call over the contributions, records the
// attempt, and returns the synthesis on success. A failed generation returns
// (nil, nil): the caller logs and moves on. A non-nil error means the audit
// record could not be written.
func (g *Generator) Generate(ctx context.Context, thread *models.Thread, personas map[string]*models.Persona, contributions []*models.Contribution) (*models.Synthesis, error) {
	if len(contributions) == 0 {
		return nil, nil
	}

	template, err := templates.Get(templates.KeySynthesis)
	if err != nil {
		return nil, err
	}

	request := provider.Request{
		// No persona framing: the synthesis speaks for no one.
		User:        template.Instantiate(thread.LengthTier) + "\n\n" + renderContributions(personas, contributions),
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	}

	outcome := g.client.Generate(ctx, request, template)

	record := &models.GenerationAttempt{
		ID:            uuid.New().String(),
		ThreadID:      thread.ID,
		TemplateKey:   template.Key,
		Phase:         models.PhaseSynthesis,
		AttemptNumber: 1,
		RawText:       outcome.RawText,
		CreatedAt:     time.Now().UTC(),
	}

	if outcome.OK {
		record.Status = models.AttemptStatusGenerated
	} else {
		record.Status = models.AttemptStatusRejected
		record.FailReason = outcome.Reason
		record.FailDetail = outcome.Detail
	}

	err = g.attempts.Save(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to record synthesis attempt: %w", err)
	}

	if !outcome.OK {
		g.logger.WarnContext(ctx, "synthesis generation failed",
			"thread_id", thread.ID,
			"reason", outcome.Reason,
			"detail", outcome.Detail,
		)

		return nil, nil
	}

	return &models.Synthesis{
		ID:         uuid.New().String(),
		ThreadID:   thread.ID,
		Tensions:   outcome.Output.Tensions,
		Agreements: outcome.Output.Agreements,
		Takeaways:  outcome.Output.Takeaways,
		AttemptID:  record.ID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func renderContributions(personas map[string]*models.Persona, contributions []*models.Contribution) string {
	var b strings.Builder

	b.WriteString("CONTRIBUTIONS:\n")

	for _, contribution := range contributions {
		name := contribution.PersonaID
		if persona, ok := personas[contribution.PersonaID]; ok {
			name = persona.Name
		}

		b.WriteString(fmt.Sprintf("\n[%s, %s]\n", name, contribution.Phase))

		if contribution.Text != "" {
			b.WriteString(contribution.Text)
			b.WriteString("\n")
		}

		for i, point := range contribution.Points {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, point))
		}
	}

	return b.String()
}
