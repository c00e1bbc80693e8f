package dto

import "time"

type VisibleTestCaseDTO struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// ProblemDTO shows only the visible test cases of a problem.
type ProblemDTO struct {
	ID              uint                 `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Difficulty      string               `json:"difficulty"`
	Hints           []string             `json:"hints,omitempty"`
	Points          float64              `json:"points"`
	OrderIndex      int                  `json:"order_index"`
	SampleTestCases []VisibleTestCaseDTO `json:"sample_test_cases"`
	HiddenTestCount int                  `json:"hidden_test_count"`
	BestScore       *float64             `json:"best_score,omitempty"`
}

type MachineTestResponse struct {
	AttemptID       uint         `json:"attempt_id"`
	DurationMinutes int          `json:"duration_minutes"`
	Problems        []ProblemDTO `json:"problems"`
}

type SubmitCodeRequest struct {
	LanguageID int    `json:"language_id" binding:"required,gt=0"`
	SourceCode string `json:"source_code" binding:"required"`
}

type TestCaseResultDTO struct {
	Index    int    `json:"index"`
	Outcome  string `json:"outcome"`
	IsHidden bool   `json:"is_hidden"`
	Stdout   string `json:"stdout,omitempty"`
	Time     string `json:"time,omitempty"`
	MemoryKB int    `json:"memory_kb,omitempty"`
}

type CodeSubmissionResponse struct {
	ID            uint                `json:"id"`
	AttemptID     uint                `json:"attempt_id"`
	ProblemID     uint                `json:"problem_id"`
	Status        string              `json:"status"`
	PassedCount   int                 `json:"passed_count"`
	TotalCount    int                 `json:"total_count"`
	Score         float64             `json:"score"`
	BestScore     float64             `json:"best_score"`
	CompileOutput string              `json:"compile_output,omitempty"`
	Results       []TestCaseResultDTO `json:"results"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}
