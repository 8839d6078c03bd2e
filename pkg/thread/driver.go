// Package thread drives a thread's generation workflow from in-progress to
// complete: one bounded generation per participant per phase, contributions
// committed independently, a best-effort synthesis, and a guaranteed terminal
// status no matter what fails along the way.
package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/symposiumhq/symposium/pkg/generation"
	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/otelhelper"
	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/synthesis"
	"github.com/symposiumhq/symposium/pkg/templates"
)

// DefaultStepDelay is the pause between sequential provider calls within one
// thread, a rate-limit safeguard on top of the provider's own limits.
const DefaultStepDelay = 2 * time.Second

// Driver executes one thread's generation workflow. Participants run
// sequentially in slot order; distinct threads may run concurrent drivers
// since they touch disjoint rows.
type Driver struct {
	persistence persistence.Persistence
	retrier     *generation.Retrier
	synthesizer *synthesis.Generator
	stepDelay   time.Duration
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewDriver creates a driver. A negative stepDelay falls back to
// DefaultStepDelay; zero disables the inter-call pause (tests rely on this).
func NewDriver(
	p persistence.Persistence,
	retrier *generation.Retrier,
	synthesizer *synthesis.Generator,
	stepDelay time.Duration,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Driver {
	if stepDelay < 0 {
		stepDelay = DefaultStepDelay
	}

	return &Driver{
		persistence: p,
		retrier:     retrier,
		synthesizer: synthesizer,
		stepDelay:   stepDelay,
		tracer:      tracer,
		logger:      logger.With("module", "thread_driver"),
	}
}

// phasesFor returns the ordered generation rounds a thread kind runs.
func phasesFor(kind models.ThreadKind) []models.Phase {
	switch kind {
	case models.ThreadKindDebate:
		return []models.Phase{models.PhaseStatement, models.PhaseRebuttal}
	case models.ThreadKindQuestion:
		return []models.Phase{models.PhaseResponse}
	case models.ThreadKindCommentary:
		return []models.Phase{models.PhaseCommentary}
	}

	return nil
}

// Run drives the thread to complete. Whatever happens after the thread is
// in-progress, the deferred transition to complete runs: a thread is never
// left stuck. The returned error reports persistence problems for the
// caller's logs; the thread is terminal either way.
func (d *Driver) Run(ctx context.Context, threadID string) error {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "thread.run",
		attribute.String(otelhelper.ThreadIDKey, threadID),
	)
	defer span.End()

	threads := d.persistence.ThreadRepository()

	thread, err := threads.GetByID(ctx, threadID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	span.SetAttributes(attribute.String(otelhelper.ThreadKindKey, string(thread.Kind)))

	if thread.Status == models.ThreadStatusComplete {
		d.logger.InfoContext(ctx, "thread already complete, nothing to drive", "thread_id", threadID)

		return nil
	}

	if thread.Status == models.ThreadStatusPending {
		err = threads.UpdateStatus(ctx, threadID, models.ThreadStatusInProgress)
		if err != nil {
			otelhelper.SetError(span, err)

			return fmt.Errorf("failed to start thread %s: %w", threadID, err)
		}
	}

	// The terminal transition is the driver's last act on every path out of
	// this function, including panics inside generation.
	defer d.forceComplete(ctx, span, threadID)

	contributions, err := d.loadContributions(ctx, threadID)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	participants := make([]models.Participant, len(thread.Participants))
	copy(participants, thread.Participants)
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Slot < participants[j].Slot
	})

	for _, phase := range phasesFor(thread.Kind) {
		err = d.runPhase(ctx, thread, phase, participants, contributions)
		if err != nil {
			otelhelper.SetError(span, err)

			return err
		}
	}

	err = d.synthesize(ctx, thread, contributions)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}

// runPhase generates one round for every participant, in slot order. Each
// participant's result commits independently: a crash mid-phase keeps prior
// contributions.
func (d *Driver) runPhase(
	ctx context.Context,
	thread *models.Thread,
	phase models.Phase,
	participants []models.Participant,
	contributions map[contributionKey]*models.Contribution,
) error {
	template, err := templates.ForPhase(phase)
	if err != nil {
		return err
	}

	for _, participant := range participants {
		if thread.Kind == models.ThreadKindCommentary && participant.Slot != 0 {
			continue
		}

		key := contributionKey{PersonaID: participant.PersonaID, Phase: phase}
		if _, done := contributions[key]; done {
			// Re-delivery after a partial run: this participant already
			// contributed in this phase.
			continue
		}

		source, ok := d.sourceFor(ctx, thread, phase, participant, contributions)
		if !ok {
			continue
		}

		contribution, err := d.generateOne(ctx, thread, phase, participant, template, source)
		if err != nil {
			return err
		}

		if contribution != nil {
			contributions[key] = contribution
		}

		if d.stepDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.stepDelay):
			}
		}
	}

	return nil
}

func (d *Driver) generateOne(
	ctx context.Context,
	thread *models.Thread,
	phase models.Phase,
	participant models.Participant,
	template *templates.Template,
	source string,
) (*models.Contribution, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "thread.generate",
		attribute.String(otelhelper.ThreadIDKey, thread.ID),
		attribute.String(otelhelper.PersonaIDKey, participant.PersonaID),
		attribute.String(otelhelper.PhaseKey, string(phase)),
		attribute.Int(otelhelper.SlotKey, participant.Slot),
		attribute.String(otelhelper.TemplateKeyKey, template.Key),
	)
	defer span.End()

	persona, prompt := d.resolvePersona(ctx, participant.PersonaID)

	output, attempt, err := d.retrier.Do(ctx, generation.Task{
		ThreadID: thread.ID,
		Persona:  persona,
		Prompt:   prompt,
		Template: template,
		Tier:     thread.LengthTier,
		Phase:    phase,
		Source:   source,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if output == nil {
		// Exhausted or unrecoverable. The audit trail has the details; the
		// thread continues with the remaining participants.
		return nil, nil
	}

	contribution := &models.Contribution{
		ID:        uuid.New().String(),
		ThreadID:  thread.ID,
		PersonaID: participant.PersonaID,
		Phase:     phase,
		Slot:      participant.Slot,
		AttemptID: attempt.ID,
		Text:      output.Text,
		Points:    output.Points,
		CreatedAt: time.Now().UTC(),
	}

	err = d.persistence.ThreadRepository().SaveContribution(ctx, contribution)
	if err != nil {
		if errors.Is(err, persistence.ErrContributionAlreadyExists) {
			return nil, nil
		}

		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save contribution: %w", err)
	}

	return contribution, nil
}

// resolvePersona loads the participant's persona and its active prompt.
// Either may come back nil; the retrier turns that into an audited
// configuration failure rather than a provider call.
func (d *Driver) resolvePersona(ctx context.Context, personaID string) (*models.Persona, *models.PersonaPrompt) {
	personas := d.persistence.PersonaRepository()

	persona, err := personas.GetByID(ctx, personaID)
	if err != nil {
		d.logger.WarnContext(ctx, "persona resolution failed", "persona_id", personaID, "error", err)

		return nil, nil
	}

	prompt, err := personas.ActivePrompt(ctx, personaID)
	if err != nil {
		if !persistence.IsNoActivePrompt(err) {
			d.logger.WarnContext(ctx, "active prompt lookup failed", "persona_id", personaID, "error", err)
		}

		return persona, nil
	}

	return persona, prompt
}

// sourceFor picks the material this participant responds to. A rebuttal
// needs its pre-assigned target's statement; when the target never produced
// one, the rebuttal is skipped without consuming attempts.
func (d *Driver) sourceFor(
	ctx context.Context,
	thread *models.Thread,
	phase models.Phase,
	participant models.Participant,
	contributions map[contributionKey]*models.Contribution,
) (string, bool) {
	if phase != models.PhaseRebuttal {
		return thread.SourceMaterial(), true
	}

	target, ok := contributions[contributionKey{PersonaID: participant.RebuttalOf, Phase: models.PhaseStatement}]
	if !ok || target.Text == "" {
		d.logger.InfoContext(ctx, "rebuttal skipped, target statement missing",
			"thread_id", thread.ID,
			"persona_id", participant.PersonaID,
			"rebuttal_of", participant.RebuttalOf,
		)

		return "", false
	}

	return target.Text, true
}

// synthesize runs the best-effort summary over whatever succeeded. Synthesis
// failure is logged and swallowed: it never blocks completion.
func (d *Driver) synthesize(ctx context.Context, thread *models.Thread, contributions map[contributionKey]*models.Contribution) error {
	if thread.Kind == models.ThreadKindCommentary {
		// A single voice has nothing to cross-summarize.
		return nil
	}

	if len(contributions) == 0 {
		d.logger.InfoContext(ctx, "no contributions, synthesis skipped", "thread_id", thread.ID)

		return nil
	}

	ordered := make([]*models.Contribution, 0, len(contributions))
	for _, contribution := range contributions {
		ordered = append(ordered, contribution)
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Phase != ordered[j].Phase {
			return phaseRank(ordered[i].Phase) < phaseRank(ordered[j].Phase)
		}

		return ordered[i].Slot < ordered[j].Slot
	})

	personas := make(map[string]*models.Persona, len(thread.Participants))

	for _, participant := range thread.Participants {
		persona, err := d.persistence.PersonaRepository().GetByID(ctx, participant.PersonaID)
		if err == nil {
			personas[participant.PersonaID] = persona
		}
	}

	result, err := d.synthesizer.Generate(ctx, thread, personas, ordered)
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	err = d.persistence.ThreadRepository().SaveSynthesis(ctx, result)
	if err != nil && !errors.Is(err, persistence.ErrSynthesisAlreadyExists) {
		return fmt.Errorf("failed to save synthesis: %w", err)
	}

	return nil
}

// forceComplete is the deferred terminal transition. It recovers panics from
// the generation path so the status write still happens.
func (d *Driver) forceComplete(ctx context.Context, span trace.Span, threadID string) {
	// The terminal write must survive cancellation of the run context.
	ctx = context.WithoutCancel(ctx)

	if r := recover(); r != nil {
		err := fmt.Errorf("driver panicked: %v", r)
		otelhelper.SetError(span, err)
		d.logger.ErrorContext(ctx, "recovered panic while driving thread", "thread_id", threadID, "panic", r)
	}

	err := d.persistence.ThreadRepository().UpdateStatus(ctx, threadID, models.ThreadStatusComplete)
	if err != nil && !persistence.IsInvalidThreadStatus(err) {
		otelhelper.SetError(span, err)
		d.logger.ErrorContext(ctx, "failed to mark thread complete", "thread_id", threadID, "error", err)
	}
}

type contributionKey struct {
	PersonaID string
	Phase     models.Phase
}

func (d *Driver) loadContributions(ctx context.Context, threadID string) (map[contributionKey]*models.Contribution, error) {
	existing, err := d.persistence.ThreadRepository().Contributions(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions for %s: %w", threadID, err)
	}

	contributions := make(map[contributionKey]*models.Contribution, len(existing))
	for _, contribution := range existing {
		contributions[contributionKey{PersonaID: contribution.PersonaID, Phase: contribution.Phase}] = contribution
	}

	return contributions, nil
}

func phaseRank(phase models.Phase) int {
	if phase == models.PhaseRebuttal {
		return 1
	}

	return 0
}
