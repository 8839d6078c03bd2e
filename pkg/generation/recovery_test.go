package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence_FencedJSON(t *testing.T) {
	raw := "```json\n{\"text\": \"hello\"}\n```"
	assert.Equal(t, `{"text": "hello"}`, StripCodeFence(raw))
}

func TestStripCodeFence_FenceWithoutLanguage(t *testing.T) {
	raw := "```\n{\"text\": \"hello\"}\n```"
	assert.Equal(t, `{"text": "hello"}`, StripCodeFence(raw))
}

func TestStripCodeFence_NoFence(t *testing.T) {
	raw := "  {\"text\": \"hello\"}  "
	assert.Equal(t, `{"text": "hello"}`, StripCodeFence(raw))
}

func TestRepairJSON_SplitList(t *testing.T) {
	broken := `{"points": ["a", "b"] , ["c"]}`
	assert.Equal(t, `{"points": ["a", "b", "c"]}`, RepairJSON(broken))
}

func TestRepairJSON_TrailingComma(t *testing.T) {
	assert.Equal(t, `{"points": ["a"]}`, RepairJSON(`{"points": ["a",]}`))
	assert.Equal(t, `{"text": "a"}`, RepairJSON(`{"text": "a",}`))
}

func TestParseStructured_DirectParse(t *testing.T) {
	parsed, err := ParseStructured(`{"text": "the will to power", "tone": "emphatic"}`)
	require.NoError(t, err)
	assert.Equal(t, "the will to power", parsed["text"])
	assert.Equal(t, "emphatic", parsed["tone"])
}

func TestParseStructured_FencedOutput(t *testing.T) {
	parsed, err := ParseStructured("```json\n{\"text\": \"x\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "x", parsed["text"])
}

func TestParseStructured_RepairsSplitListAndTrailingComma(t *testing.T) {
	raw := `{"points": ["first", "second"] , ["third",]}`

	parsed, err := ParseStructured(raw)
	require.NoError(t, err)

	points, ok := parsed["points"].([]any)
	require.True(t, ok)
	assert.Len(t, points, 3)
	assert.Equal(t, "third", points[2])
}

func TestParseStructured_ValidOutputNotDamagedByRepairs(t *testing.T) {
	// A legitimate string containing "], [" must survive because the direct
	// parse succeeds before any repair runs.
	raw := `{"text": "lists like [1, 2], [3, 4] are fine"}`

	parsed, err := ParseStructured(raw)
	require.NoError(t, err)
	assert.Equal(t, "lists like [1, 2], [3, 4] are fine", parsed["text"])
}

func TestParseStructured_Unrecoverable(t *testing.T) {
	_, err := ParseStructured("I cannot answer that in JSON form.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecoverable")
}

func TestParseStructured_EmptyOutput(t *testing.T) {
	_, err := ParseStructured("")
	assert.Error(t, err)
}
