package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/mockdrive/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type geminiGenerator struct {
	model contentGenerator
}

// NewGeminiGenerator returns a Generator backed by Gemini. Without an API key it
// still constructs, but every call fails with ErrUnavailable.
func NewGeminiGenerator(cfg *config.Config) (Generator, error) {
	g := &geminiGenerator{}
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Content generation will fall back to the bank.")
		return g, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Interview.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.8)
	g.model = model
	return g, nil
}

func (g *geminiGenerator) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]Question, error) {
	var out struct {
		Questions []Question `json:"questions"`
	}
	if err := g.generate(ctx, questionPrompt(req), &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (g *geminiGenerator) GenerateProblems(ctx context.Context, req ProblemRequest) ([]Problem, error) {
	var out struct {
		Problems []Problem `json:"problems"`
	}
	if err := g.generate(ctx, problemPrompt(req), &out); err != nil {
		return nil, err
	}
	return out.Problems, nil
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string, out any) error {
	if g.model == nil {
		return fmt.Errorf("%w: gemini client not initialized", ErrUnavailable)
	}
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Msg("Gemini API error during content generation")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	text := responseText(resp)
	if err := decodeObject(text, out); err != nil {
		log.Warn().Err(err).Str("rawResponse", text).Msg("Failed to parse generated content from Gemini response")
		return fmt.Errorf("%w: unreadable content: %v", ErrUnavailable, err)
	}
	return nil
}

func questionPrompt(req QuestionRequest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Write %d multiple-choice aptitude questions for a campus placement test", req.Count))
	if req.JobTitle != "" {
		b.WriteString(" for candidates applying as " + req.JobTitle)
	}
	b.WriteString(". " + difficultyLine(req.Difficulty))
	b.WriteString(`
Cover quantitative, logical and verbal reasoning. Each question has exactly four distinct options and one correct answer.
Respond with JSON only, in exactly this shape:
{"questions": [{"text": "...", "options": ["...", "...", "...", "..."], "correctOption": "<the correct option text>", "explanation": "...", "difficulty": "easy|medium|hard", "tags": ["<topic>"]}]}`)
	return b.String()
}

func problemPrompt(req ProblemRequest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Write %d programming problems for a timed placement coding round. ", req.Count))
	b.WriteString(difficultyLine(req.Difficulty))
	b.WriteString(fmt.Sprintf(`
Each problem reads from standard input and writes to standard output.
Give two sample test cases and at least three hidden ones, and a reference solution in %s that passes every case.
Respond with JSON only, in exactly this shape:
{"problems": [{"title": "...", "description": "...", "difficulty": "easy|medium|hard", "tags": ["<topic>"], "hints": ["..."], "testCases": [{"input": "...", "expectedOutput": "...", "isHidden": false}], "referenceSolution": "..."}]}`, req.Language))
	return b.String()
}

func difficultyLine(difficulty string) string {
	if difficulty == "" {
		return "Use a mix of easy, medium and hard difficulty."
	}
	return fmt.Sprintf("Every item must be of %s difficulty.", difficulty)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// decodeObject reads the JSON object in raw, tolerating a fenced code block around it.
func decodeObject(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(raw[start:end+1]), out)
}
