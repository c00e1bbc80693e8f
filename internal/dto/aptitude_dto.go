package dto

import (
	"time"

	"github.com/lshigami/mockdrive/internal/scoring"
)

// AptitudeQuestionDTO never carries the correct option.
type AptitudeQuestionDTO struct {
	ID         uint     `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags,omitempty"`
	OrderIndex int      `json:"order_index"`
}

type AptitudeTestResponse struct {
	AttemptID       uint                  `json:"attempt_id"`
	DurationMinutes int                   `json:"duration_minutes"`
	Questions       []AptitudeQuestionDTO `json:"questions"`
}

type AptitudeAnswerDTO struct {
	QuestionID     uint   `json:"question_id" binding:"required"`
	SelectedOption string `json:"selected_option"`
}

type SubmitAptitudeRequest struct {
	Answers []AptitudeAnswerDTO `json:"answers" binding:"required,dive"`
}

type AptitudeResultResponse struct {
	ResponseID     uint              `json:"response_id"`
	AttemptID      uint              `json:"attempt_id"`
	CorrectCount   int               `json:"correct_count"`
	TotalQuestions int               `json:"total_questions"`
	Percentage     float64           `json:"percentage"`
	Breakdown      scoring.Breakdown `json:"breakdown"`
	SubmittedAt    time.Time         `json:"submitted_at"`
}
