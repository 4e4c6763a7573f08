package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type judgmentPayload struct {
	Summary string `json:"activity_summary"`
	Score   int    `json:"alignment_score"`
}

func TestExtractJSONPlainObject(t *testing.T) {
	var got judgmentPayload
	err := extractJSON(`{"activity_summary": "wrote code", "alignment_score": 8}`, &got)
	require.NoError(t, err)
	assert.Equal(t, "wrote code", got.Summary)
	assert.Equal(t, 8, got.Score)
}

func TestExtractJSONStripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"activity_summary\": \"reading\", \"alignment_score\": 6}\n```"
	var got judgmentPayload
	err := extractJSON(raw, &got)
	require.NoError(t, err)
	assert.Equal(t, "reading", got.Summary)
}

func TestExtractJSONIgnoresSurroundingProse(t *testing.T) {
	raw := "Here is my assessment:\n{\"activity_summary\": \"emails\", \"alignment_score\": 4}\nHope that helps!"
	var got judgmentPayload
	err := extractJSON(raw, &got)
	require.NoError(t, err)
	assert.Equal(t, "emails", got.Summary)
}

func TestExtractJSONHandlesNestedBracesAndStrings(t *testing.T) {
	raw := `{"activity_summary": "debugging {weird} stuff with \"quotes\"", "alignment_score": 7}`
	var got judgmentPayload
	err := extractJSON(raw, &got)
	require.NoError(t, err)
	assert.Equal(t, `debugging {weird} stuff with "quotes"`, got.Summary)
}

func TestExtractJSONNoObject(t *testing.T) {
	var got judgmentPayload
	err := extractJSON("I cannot answer that.", &got)
	assert.Error(t, err)
}

func TestExtractJSONMalformedObject(t *testing.T) {
	var got judgmentPayload
	err := extractJSON(`{"activity_summary": }`, &got)
	assert.Error(t, err)
}

func TestFirstJSONBlockUnbalanced(t *testing.T) {
	assert.Empty(t, firstJSONBlock(`{"open": "never closed"`))
}
