// Package templates defines the static content-template registry: for each
// kind of generated content, the instruction text, the expected output shape,
// and the JSON schema the parsed output is validated against. Templates are
// configuration, not data — they never change at runtime.
package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/symposiumhq/symposium/pkg/models"
)

// Shape names the structural form of a template's output.
type Shape string

const (
	// ShapeText is a single body of prose plus a short tone label.
	ShapeText Shape = "text"
	// ShapePoints is an ordered list of standalone text fragments.
	ShapePoints Shape = "points"
	// ShapeSynthesis is the cross-contribution summary object.
	ShapeSynthesis Shape = "synthesis"
)

// lengthPlaceholder is substituted with the tier's guidance text when the
// request is composed.
const lengthPlaceholder = "{length_guidance}"

// Template is a named, immutable description of one kind of generated content.
type Template struct {
	Key          string
	Instructions string
	Shape        Shape
	// Reply marks templates whose source material is a statement being
	// responded to rather than raw factual input. The composed user frame
	// labels it accordingly.
	Reply bool
	// Schema is the JSON schema the parsed model output must satisfy.
	Schema string
}

// Instantiate returns the instruction text with the length placeholder
// replaced by the tier's guidance.
func (t *Template) Instantiate(tier models.LengthTier) string {
	return strings.ReplaceAll(t.Instructions, lengthPlaceholder, tier.Guidance())
}

const (
	KeyCommentary       = "commentary"
	KeyDebateStatement  = "debate_statement"
	KeyDebateRebuttal   = "debate_rebuttal"
	KeyQuestionResponse = "question_response"
	KeySynthesis        = "synthesis"
)

const textSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string", "minLength": 1},
		"tone": {"type": "string"}
	}
}`

const pointsSchema = `{
	"type": "object",
	"required": ["points"],
	"properties": {
		"points": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		}
	}
}`

const synthesisSchema = `{
	"type": "object",
	"required": ["tensions", "agreements", "takeaways"],
	"properties": {
		"tensions":   {"type": "array", "items": {"type": "string"}},
		"agreements": {"type": "array", "items": {"type": "string"}},
		"takeaways":  {"type": "array", "items": {"type": "string"}}
	}
}`

var registry = map[string]*Template{
	KeyCommentary: {
		Key:   KeyCommentary,
		Shape: ShapeText,
		Instructions: `Write a commentary on the material below, in your own voice and from your own philosophical standpoint. ` +
			lengthPlaceholder + ` Respond with a single JSON object: {"text": "<your commentary>", "tone": "<one word describing the register>"}. Output only the JSON object.`,
		Schema: textSchema,
	},
	KeyDebateStatement: {
		Key:   KeyDebateStatement,
		Shape: ShapeText,
		Instructions: `State your position on the debate topic below, grounded in the source material. Commit to a clear stance. ` +
			lengthPlaceholder + ` Respond with a single JSON object: {"text": "<your statement>", "tone": "<one word>"}. Output only the JSON object.`,
		Schema: textSchema,
	},
	KeyDebateRebuttal: {
		Key:   KeyDebateRebuttal,
		Shape: ShapeText,
		Reply: true,
		Instructions: `The statement below was made by another participant in this debate. Rebut it directly: engage its strongest point, not a caricature. ` +
			lengthPlaceholder + ` Respond with a single JSON object: {"text": "<your rebuttal>", "tone": "<one word>"}. Output only the JSON object.`,
		Schema: textSchema,
	},
	KeyQuestionResponse: {
		Key:   KeyQuestionResponse,
		Shape: ShapePoints,
		Instructions: `A reader has asked the question below. Answer it as a numbered sequence of distinct points, each standing on its own. ` +
			lengthPlaceholder + ` Respond with a single JSON object: {"points": ["<first point>", "<second point>", ...]}. Output only the JSON object.`,
		Schema: pointsSchema,
	},
	KeySynthesis: {
		Key:   KeySynthesis,
		Shape: ShapeSynthesis,
		Instructions: `You are an impartial moderator. Below are the contributions made in one discussion. Summarize it: where the participants genuinely disagree, where they converge, and what a reader should take away. ` +
			`Respond with a single JSON object: {"tensions": [...], "agreements": [...], "takeaways": [...]}, each an array of short strings. Output only the JSON object.`,
		Schema: synthesisSchema,
	},
}

// Get returns the template registered under key.
func Get(key string) (*Template, error) {
	template, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("unknown content template: %s", key)
	}

	return template, nil
}

// Keys returns all registered template keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// ForPhase maps a thread phase to its content template.
func ForPhase(phase models.Phase) (*Template, error) {
	switch phase {
	case models.PhaseStatement:
		return Get(KeyDebateStatement)
	case models.PhaseRebuttal:
		return Get(KeyDebateRebuttal)
	case models.PhaseResponse:
		return Get(KeyQuestionResponse)
	case models.PhaseCommentary:
		return Get(KeyCommentary)
	}

	return nil, fmt.Errorf("no content template for phase: %s", phase)
}
