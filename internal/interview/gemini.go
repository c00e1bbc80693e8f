package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/lshigami/mockdrive/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// chatStarter and contentGenerator are the parts of genai.GenerativeModel in use.
type chatStarter interface {
	StartChat() chatSession
}

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type genaiChatModel struct {
	model *genai.GenerativeModel
}

func (m genaiChatModel) StartChat() chatSession { return m.model.StartChat() }

type session struct {
	mu            sync.Mutex
	candidateID   uint
	jobTitle      string
	companyName   string
	chat          chatSession
	questions     []string
	answers       []string
	questionCount int
	completed     bool
	feedback      *Feedback
}

type geminiInterviewer struct {
	chat          chatStarter
	evaluator     contentGenerator
	questionCount int

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewGeminiInterviewer returns an Interviewer driven by Gemini. Without an API key it
// still constructs, but every call fails with ErrUnavailable.
func NewGeminiInterviewer(cfg *config.Config) (Interviewer, error) {
	iv := &geminiInterviewer{
		questionCount: cfg.Interview.QuestionCount,
		sessions:      make(map[string]*session),
	}
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Interviewer will be non-functional.")
		return iv, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	chatModel := client.GenerativeModel(cfg.Interview.Model)
	chatModel.SystemInstruction = genai.NewUserContent(genai.Text(interviewerInstruction))
	chatModel.SetTemperature(0.7)

	evalModel := client.GenerativeModel(cfg.Interview.Model)
	evalModel.ResponseMIMEType = "application/json"
	evalModel.SetTemperature(0.2)

	iv.chat = genaiChatModel{model: chatModel}
	iv.evaluator = evalModel
	return iv, nil
}

const interviewerInstruction = `You are a professional technical interviewer running a mock placement interview.
Ask exactly one question at a time. Keep each question under 60 words.
Mix technical, problem-solving and behavioural questions suited to the role.
Reply with the next question only, without numbering, commentary or feedback.`

func (g *geminiInterviewer) StartSession(ctx context.Context, req StartRequest) (*Session, error) {
	if g.chat == nil {
		return nil, fmt.Errorf("%w: gemini client not initialized", ErrUnavailable)
	}

	s := &session{
		candidateID:   req.CandidateID,
		jobTitle:      req.JobTitle,
		companyName:   req.CompanyName,
		chat:          g.chat.StartChat(),
		questionCount: g.questionCount,
	}

	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Start a mock interview for the role of %s", orDefault(req.JobTitle, "Software Engineer")))
	if req.CompanyName != "" {
		prompt.WriteString(fmt.Sprintf(" at %s", req.CompanyName))
	}
	prompt.WriteString(fmt.Sprintf(". There will be %d questions in total. Ask the first question.", s.questionCount))
	if req.ResumeID != "" {
		prompt.WriteString(fmt.Sprintf(" The candidate's resume reference is %s; tailor questions to a typical profile for the role.", req.ResumeID))
	}

	first, err := send(ctx, s.chat, prompt.String())
	if err != nil {
		log.Error().Err(err).Uint("candidateID", req.CandidateID).Msg("Gemini API error while starting interview")
		return nil, err
	}
	s.questions = append(s.questions, first)

	id := uuid.NewString()
	g.mu.Lock()
	g.sessions[id] = s
	g.mu.Unlock()

	return &Session{ID: id, FirstQuestion: first, QuestionCount: s.questionCount}, nil
}

func (g *geminiInterviewer) SubmitAnswer(ctx context.Context, sessionID string, candidateID uint, answer string) (*AnswerAck, error) {
	s, err := g.lookup(sessionID, candidateID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return nil, ErrSessionCompleted
	}

	s.answers = append(s.answers, answer)
	if len(s.answers) >= s.questionCount {
		s.completed = true
		return &AnswerAck{AnsweredCount: len(s.answers), Completed: true}, nil
	}

	next, err := send(ctx, s.chat, fmt.Sprintf("Candidate's answer:\n%s\n\nAsk question %d of %d.", answer, len(s.answers)+1, s.questionCount))
	if err != nil {
		// Keep the session consistent so the candidate can resend the answer.
		s.answers = s.answers[:len(s.answers)-1]
		log.Error().Err(err).Str("sessionID", sessionID).Msg("Gemini API error while asking next question")
		return nil, err
	}
	s.questions = append(s.questions, next)
	return &AnswerAck{NextQuestion: next, AnsweredCount: len(s.answers)}, nil
}

func (g *geminiInterviewer) GetFeedback(ctx context.Context, sessionID string, candidateID uint) (*Feedback, error) {
	s, err := g.lookup(sessionID, candidateID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed {
		return nil, ErrNoFeedback
	}
	if s.feedback != nil {
		return s.feedback, nil
	}
	if g.evaluator == nil {
		return nil, fmt.Errorf("%w: gemini client not initialized", ErrUnavailable)
	}

	resp, err := g.evaluator.GenerateContent(ctx, genai.Text(evaluationPrompt(s)))
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("Gemini API error during interview evaluation")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	text := responseText(resp)
	fb, err := parseFeedback(text)
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", text).Msg("Failed to parse interview feedback from Gemini response")
		return nil, fmt.Errorf("%w: unreadable evaluation: %v", ErrUnavailable, err)
	}
	s.feedback = fb
	return fb, nil
}

func (g *geminiInterviewer) lookup(sessionID string, candidateID uint) (*session, error) {
	g.mu.RLock()
	s, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if !ok || s.candidateID != candidateID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func evaluationPrompt(s *session) string {
	var b strings.Builder
	b.WriteString("You are an expert interviewer evaluating a candidate's mock interview")
	if s.jobTitle != "" {
		b.WriteString(" for the role of " + s.jobTitle)
	}
	if s.companyName != "" {
		b.WriteString(" at " + s.companyName)
	}
	b.WriteString(".\n\nTranscript:\n")
	for i, q := range s.questions {
		b.WriteString(fmt.Sprintf("Q%d: %s\n", i+1, q))
		if i < len(s.answers) {
			b.WriteString(fmt.Sprintf("A%d: %s\n", i+1, s.answers[i]))
		}
	}
	b.WriteString(`
Evaluate communication, technical depth, problem solving and clarity.
Respond with JSON only, in exactly this shape:
{"overallScore": <number 0-100>, "keyStrengths": ["..."], "areasForImprovement": ["..."]}
Give two to four items per list.`)
	return b.String()
}

func send(ctx context.Context, chat chatSession, prompt string) (string, error) {
	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no text content", ErrUnavailable)
	}
	return text, nil
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

// parseFeedback reads the evaluator's JSON, tolerating a fenced code block around it.
func parseFeedback(raw string) (*Feedback, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var fb Feedback
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fb); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	if fb.OverallScore < 0 {
		fb.OverallScore = 0
	}
	if fb.OverallScore > 100 {
		fb.OverallScore = 100
	}
	fb.KeyStrengths = compact(fb.KeyStrengths)
	fb.AreasForImprovement = compact(fb.AreasForImprovement)
	return &fb, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
