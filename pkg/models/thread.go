package models

import "time"

// ThreadStatus represents the lifecycle state of a thread.
type ThreadStatus string

const (
	ThreadStatusPending    ThreadStatus = "pending"     // Created, generation not yet started
	ThreadStatusInProgress ThreadStatus = "in-progress" // Generation running
	ThreadStatusComplete   ThreadStatus = "complete"    // Terminal, possibly with gaps
)

// threadTransitions is the closed transition table. Status never regresses;
// a thread reaches complete exactly once.
var threadTransitions = map[ThreadStatus][]ThreadStatus{
	ThreadStatusPending:    {ThreadStatusInProgress},
	ThreadStatusInProgress: {ThreadStatusComplete},
	ThreadStatusComplete:   {},
}

// CanTransition reports whether moving from s to next is a legal status change.
func (s ThreadStatus) CanTransition(next ThreadStatus) bool {
	for _, allowed := range threadTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Valid reports whether s is one of the known status values.
func (s ThreadStatus) Valid() bool {
	_, ok := threadTransitions[s]

	return ok
}

// ThreadKind selects the generation workflow a thread runs.
type ThreadKind string

const (
	ThreadKindDebate     ThreadKind = "debate"     // Statements plus one rebuttal round
	ThreadKindQuestion   ThreadKind = "question"   // One response per participant
	ThreadKindCommentary ThreadKind = "commentary" // Single persona, single piece
)

// Phase identifies one generation round within a thread.
type Phase string

const (
	PhaseStatement  Phase = "statement"
	PhaseRebuttal   Phase = "rebuttal"
	PhaseResponse   Phase = "response"
	PhaseCommentary Phase = "commentary"
	PhaseSynthesis  Phase = "synthesis"
)

// Participant is one persona's pre-assigned place in a thread. Slot order and
// the rebuttal target are fixed at thread creation and never recomputed from
// generation completion order.
type Participant struct {
	PersonaID  string `json:"persona_id"             validate:"required"`
	Slot       int    `json:"slot"`
	RebuttalOf string `json:"rebuttal_of,omitempty"` // Persona whose statement this participant rebuts (debates only)
}

// Thread is the aggregate for one debate, question thread, or commentary run.
type Thread struct {
	ID            string        `json:"id"`
	Kind          ThreadKind    `json:"kind"           validate:"required,oneof=debate question commentary"`
	Topic         string        `json:"topic,omitempty"`
	SourceTitle   string        `json:"source_title,omitempty"`
	SourceExcerpt string        `json:"source_excerpt,omitempty"`
	Question      string        `json:"question,omitempty"`
	LengthTier    LengthTier    `json:"length_tier"    validate:"required"`
	Status        ThreadStatus  `json:"status"         validate:"required"`
	Participants  []Participant `json:"participants"   validate:"required,min=1,dive"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// ParticipantBySlot returns the participant assigned to the given slot.
func (t *Thread) ParticipantBySlot(slot int) (Participant, bool) {
	for _, p := range t.Participants {
		if p.Slot == slot {
			return p, true
		}
	}

	return Participant{}, false
}

// SourceMaterial returns the text participants respond to, depending on kind.
func (t *Thread) SourceMaterial() string {
	switch t.Kind {
	case ThreadKindQuestion:
		return t.Question
	case ThreadKindDebate, ThreadKindCommentary:
		if t.SourceExcerpt != "" {
			return t.SourceTitle + "\n\n" + t.SourceExcerpt
		}

		return t.SourceTitle
	}

	return ""
}

// Contribution is a persisted successful generation attributed to one
// participant within one thread. It always references the attempt that
// produced it; failed attempts never produce contributions.
type Contribution struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"  validate:"required"`
	PersonaID string    `json:"persona_id" validate:"required"`
	Phase     Phase     `json:"phase"      validate:"required"`
	Slot      int       `json:"slot"`
	AttemptID string    `json:"attempt_id" validate:"required"`
	Text      string    `json:"text,omitempty"`
	Points    []string  `json:"points,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Synthesis is the persona-less cross-contribution summary. At most one
// exists per thread and its absence never blocks completion.
type Synthesis struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id" validate:"required"`
	Tensions   []string  `json:"tensions"`
	Agreements []string  `json:"agreements"`
	Takeaways  []string  `json:"takeaways"`
	AttemptID  string    `json:"attempt_id"`
	CreatedAt  time.Time `json:"created_at"`
}
