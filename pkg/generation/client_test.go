package generation

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symposiumhq/symposium/pkg/mocks"
	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/provider"
	"github.com/symposiumhq/symposium/pkg/templates"
)

func textTemplate(t *testing.T) *templates.Template {
	t.Helper()

	template, err := templates.Get(templates.KeyCommentary)
	require.NoError(t, err)

	return template
}

func pointsTemplate(t *testing.T) *templates.Template {
	t.Helper()

	template, err := templates.Get(templates.KeyQuestionResponse)
	require.NoError(t, err)

	return template
}

func TestClient_Generate_Success(t *testing.T) {
	providerMock := &mocks.MockProvider{}
	providerMock.On("Complete", context.Background(), provider.Request{User: "go"}).
		Return(`{"text": "All is flux.", "tone": "serene"}`, nil)

	client := NewClient(providerMock, slog.Default())

	outcome := client.Generate(context.Background(), provider.Request{User: "go"}, textTemplate(t))

	require.True(t, outcome.OK)
	assert.Equal(t, "All is flux.", outcome.Output.Text)
	assert.Equal(t, "serene", outcome.Output.Tone)
	assert.Equal(t, `{"text": "All is flux.", "tone": "serene"}`, outcome.RawText)
}

func TestClient_Generate_FencedOutputRecovered(t *testing.T) {
	providerMock := &mocks.MockProvider{}
	providerMock.On("Complete", context.Background(), provider.Request{}).
		Return("```json\n{\"text\": \"Doubt everything.\"}\n```", nil)

	client := NewClient(providerMock, slog.Default())

	outcome := client.Generate(context.Background(), provider.Request{}, textTemplate(t))

	require.True(t, outcome.OK)
	assert.Equal(t, "Doubt everything.", outcome.Output.Text)
}

func TestClient_Generate_TransportFailure(t *testing.T) {
	providerMock := &mocks.MockProvider{}
	providerMock.On("Complete", context.Background(), provider.Request{}).
		Return("", errors.New("connection refused"))

	client := NewClient(providerMock, slog.Default())

	outcome := client.Generate(context.Background(), provider.Request{}, textTemplate(t))

	require.False(t, outcome.OK)
	assert.Equal(t, models.FailureTransport, outcome.Reason)
	assert.True(t, outcome.Reason.Retryable())
}

func TestClient_Generate_MalformedOutputKeepsRawText(t *testing.T) {
	providerMock := &mocks.MockProvider{}
	providerMock.On("Complete", context.Background(), provider.Request{}).
		Return("As an impartial observer, I decline.", nil)

	client := NewClient(providerMock, slog.Default())

	outcome := client.Generate(context.Background(), provider.Request{}, textTemplate(t))

	require.False(t, outcome.OK)
	assert.Equal(t, models.FailureMalformedOutput, outcome.Reason)
	assert.Equal(t, "As an impartial observer, I decline.", outcome.RawText)
}

func TestClient_Generate_SchemaMismatchIsMalformed(t *testing.T) {
	providerMock := &mocks.MockProvider{}
	// Valid JSON, wrong shape for the points template.
	providerMock.On("Complete", context.Background(), provider.Request{}).
		Return(`{"text": "not a points object"}`, nil)

	client := NewClient(providerMock, slog.Default())

	outcome := client.Generate(context.Background(), provider.Request{}, pointsTemplate(t))

	require.False(t, outcome.OK)
	assert.Equal(t, models.FailureMalformedOutput, outcome.Reason)
}

func TestClient_Generate_PointsShape(t *testing.T) {
	providerMock := &mocks.MockProvider{}
	providerMock.On("Complete", context.Background(), provider.Request{}).
		Return(`{"points": ["First premise.", "Second premise."]}`, nil)

	client := NewClient(providerMock, slog.Default())

	outcome := client.Generate(context.Background(), provider.Request{}, pointsTemplate(t))

	require.True(t, outcome.OK)
	assert.Equal(t, []string{"First premise.", "Second premise."}, outcome.Output.Points)
	assert.Empty(t, outcome.Output.Text)
}

func TestClient_Generate_SplitListRepaired(t *testing.T) {
	providerMock := &mocks.MockProvider{}
	providerMock.On("Complete", context.Background(), provider.Request{}).
		Return(`{"points": ["one", "two"] , ["three"]}`, nil)

	client := NewClient(providerMock, slog.Default())

	outcome := client.Generate(context.Background(), provider.Request{}, pointsTemplate(t))

	require.True(t, outcome.OK)
	assert.Equal(t, []string{"one", "two", "three"}, outcome.Output.Points)
}
