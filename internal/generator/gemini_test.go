package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/mockdrive/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (m *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if txt, ok := p.(genai.Text); ok {
			m.prompts = append(m.prompts, string(txt))
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(m.response)}}}},
	}, nil
}

func TestGeminiGenerator_Questions(t *testing.T) {
	model := &fakeModel{response: "```json\n" + `{"questions": [{"text": "What is 15% of 200?", "options": ["20", "25", "30", "35"], "correctOption": "30", "difficulty": "easy", "tags": ["Percentages"]}]}` + "\n```"}
	g := &geminiGenerator{model: model}

	qs, err := g.GenerateQuestions(context.Background(), QuestionRequest{Difficulty: "easy", Count: 1, JobTitle: "Data Analyst"})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "30", qs[0].CorrectOption)
	assert.Equal(t, []string{"Percentages"}, qs[0].Tags)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Write 1 multiple-choice")
	assert.Contains(t, model.prompts[0], "Data Analyst")
	assert.Contains(t, model.prompts[0], "of easy difficulty")
}

func TestGeminiGenerator_Problems(t *testing.T) {
	model := &fakeModel{response: `{"problems": [{"title": "Sum of Two", "description": "Print a+b.", "testCases": [{"input": "1 2", "expectedOutput": "3"}, {"input": "5 5", "expectedOutput": "10", "isHidden": true}], "referenceSolution": "print(sum(map(int, input().split())))"}]}`}
	g := &geminiGenerator{model: model}

	ps, err := g.GenerateProblems(context.Background(), ProblemRequest{Count: 1, Language: "Python 3"})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Len(t, ps[0].TestCases, 2)
	assert.True(t, ps[0].TestCases[1].IsHidden)
	assert.NotEmpty(t, ps[0].ReferenceSolution)
	assert.Contains(t, model.prompts[0], "reference solution in Python 3")
	assert.Contains(t, model.prompts[0], "mix of easy, medium and hard")
}

func TestGeminiGenerator_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("transport failure", func(t *testing.T) {
		g := &geminiGenerator{model: &fakeModel{err: errors.New("429 quota")}}
		_, err := g.GenerateQuestions(ctx, QuestionRequest{Count: 3})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unreadable reply", func(t *testing.T) {
		g := &geminiGenerator{model: &fakeModel{response: "Here are some questions!"}}
		_, err := g.GenerateProblems(ctx, ProblemRequest{Count: 1})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("no api key", func(t *testing.T) {
		g, err := NewGeminiGenerator(&config.Config{})
		require.NoError(t, err)
		_, err = g.GenerateQuestions(ctx, QuestionRequest{Count: 1})
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
