package dto

type StartInterviewRequest struct {
	ResumeID string `json:"resume_id"`
}

type SubmitInterviewAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

type InterviewSessionResponse struct {
	SessionID       uint     `json:"session_id"`
	AttemptID       uint     `json:"attempt_id"`
	Status          string   `json:"status"`
	CurrentQuestion string   `json:"current_question,omitempty"`
	AnsweredCount   int      `json:"answered_count"`
	QuestionCount   int      `json:"question_count"`
	HasFeedback     bool     `json:"has_feedback"`
	OverallScore    *float64 `json:"overall_score,omitempty"`
}
