package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"teamsync-backend/internal/llm"
)

type fakeModel struct {
	reply string
	err   error
	seen  string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.seen = text.Text
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestCompleteUsesSinglePrompt(t *testing.T) {
	model := &fakeModel{reply: "  - Book venue \n"}
	out, err := NewFromModel(model).Complete(context.Background(), "todos?")
	require.NoError(t, err)
	assert.Equal(t, "- Book venue", out)
	assert.Equal(t, "todos?", model.seen)
}

func TestCompleteErrors(t *testing.T) {
	_, err := NewFromModel(&fakeModel{err: errors.New("quota")}).Complete(context.Background(), "p")
	require.Error(t, err)

	_, err = NewFromModel(&fakeModel{reply: " "}).Complete(context.Background(), "p")
	require.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	require.Error(t, err)
}
