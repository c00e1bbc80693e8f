package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	InterviewStatusInProgress = "in_progress"
	InterviewStatusCompleted  = "completed"
)

// InterviewSession mirrors the externally owned interview for one attempt.
type InterviewSession struct {
	ID                  uint                        `gorm:"primarykey" json:"id"`
	AttemptID           uint                        `json:"attempt_id" gorm:"not null;uniqueIndex"`
	ExternalSessionID   string                      `json:"external_session_id" gorm:"not null"`
	Status              string                      `json:"status" gorm:"not null"` // "in_progress", "completed"
	CurrentQuestion     string                      `json:"current_question,omitempty" gorm:"type:text"`
	AnsweredCount       int                         `json:"answered_count"`
	QuestionCount       int                         `json:"question_count"`
	HasFeedback         bool                        `json:"has_feedback"`
	OverallScore        float64                     `json:"overall_score"`
	KeyStrengths        datatypes.JSONSlice[string] `json:"key_strengths"`
	AreasForImprovement datatypes.JSONSlice[string] `json:"areas_for_improvement"`
	StartedAt           time.Time                   `json:"started_at"`
	CompletedAt         *time.Time                  `json:"completed_at,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}
