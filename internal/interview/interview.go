package interview

import (
	"context"
	"errors"
)

var (
	// ErrNoFeedback means the session has not produced feedback (yet).
	ErrNoFeedback = errors.New("interview feedback not available")
	// ErrSessionNotFound means the collaborator does not know the session.
	ErrSessionNotFound = errors.New("interview session not found")
	// ErrSessionCompleted is returned when answering a finished session.
	ErrSessionCompleted = errors.New("interview session already completed")
	// ErrUnavailable wraps transport failures of the interview service and replies it
	// could not read. Both are retryable.
	ErrUnavailable = errors.New("interview service unavailable")
)

type StartRequest struct {
	CandidateID uint
	ResumeID    string
	JobTitle    string
	CompanyName string
}

type Session struct {
	ID            string
	FirstQuestion string
	QuestionCount int
}

type AnswerAck struct {
	NextQuestion  string
	AnsweredCount int
	Completed     bool
}

// Feedback is the structured evaluation of a finished session. OverallScore is 0-100.
type Feedback struct {
	OverallScore        float64  `json:"overallScore"`
	KeyStrengths        []string `json:"keyStrengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
}

// Interviewer owns the conversational state of AI interviews.
type Interviewer interface {
	StartSession(ctx context.Context, req StartRequest) (*Session, error)
	SubmitAnswer(ctx context.Context, sessionID string, candidateID uint, answer string) (*AnswerAck, error)
	GetFeedback(ctx context.Context, sessionID string, candidateID uint) (*Feedback, error)
}
