package model

import (
	"time"

	"github.com/lshigami/mockdrive/internal/scoring"
	"gorm.io/datatypes"
)

// AptitudeResponse is the single answer set of an attempt.
type AptitudeResponse struct {
	ID             uint                                  `gorm:"primarykey" json:"id"`
	AttemptID      uint                                  `json:"attempt_id" gorm:"not null;uniqueIndex"`
	Answers        datatypes.JSONType[map[uint]string]   `json:"answers"`
	CorrectCount   int                                   `json:"correct_count"`
	TotalQuestions int                                   `json:"total_questions"`
	Percentage     float64                               `json:"percentage"`
	Breakdown      datatypes.JSONType[scoring.Breakdown] `json:"breakdown"`
	SubmittedAt    time.Time                             `json:"submitted_at" gorm:"autoCreateTime"`
	CreatedAt      time.Time                             `json:"created_at"`
}

type TestCaseResult struct {
	Index    int    `json:"index"`
	Outcome  string `json:"outcome"`
	IsHidden bool   `json:"isHidden"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Time     string `json:"time,omitempty"`
	MemoryKB int    `json:"memoryKb,omitempty"`
}

// CodeSubmission is append-only; one row per judged submission.
type CodeSubmission struct {
	ID            uint                                `gorm:"primarykey" json:"id"`
	AttemptID     uint                                `json:"attempt_id" gorm:"not null;index"`
	ProblemID     uint                                `json:"problem_id" gorm:"not null;index"`
	LanguageID    int                                 `json:"language_id" gorm:"not null"`
	SourceCode    string                              `json:"source_code" gorm:"type:text;not null"`
	Status        string                              `json:"status" gorm:"not null"`
	PassedCount   int                                 `json:"passed_count"`
	TotalCount    int                                 `json:"total_count"`
	Score         float64                             `json:"score"`
	Results       datatypes.JSONSlice[TestCaseResult] `json:"results"`
	CompileOutput string                              `json:"compile_output,omitempty" gorm:"type:text"`
	SubmittedAt   time.Time                           `json:"submitted_at" gorm:"autoCreateTime"`
}
