package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

// HiddenCount is the number of hidden cases.
func HiddenCount(cases []TestCase) int {
	n := 0
	for _, tc := range cases {
		if tc.IsHidden {
			n++
		}
	}
	return n
}

// EphemeralProblem is a coding problem drawn for a single mock drive.
type EphemeralProblem struct {
	ID                  uint                          `gorm:"primarykey" json:"id"`
	MockDriveID         uint                          `json:"mock_drive_id" gorm:"not null;index"`
	SourceBankProblemID *uint                         `json:"source_bank_problem_id,omitempty" gorm:"index"`
	Title               string                        `json:"title" gorm:"not null"`
	Description         string                        `json:"description" gorm:"type:text;not null"`
	Difficulty          string                        `json:"difficulty" gorm:"not null"`
	Tags                datatypes.JSONSlice[string]   `json:"tags"`
	Hints               datatypes.JSONSlice[string]   `json:"hints"`
	TestCases           datatypes.JSONSlice[TestCase] `json:"test_cases"`
	TestCasesValidated  bool                          `json:"test_cases_validated"`
	Points              float64                       `json:"points" gorm:"not null"`
	OrderIndex          int                           `json:"order_index" gorm:"not null"`
	TotalAttempts       int                           `json:"total_attempts" gorm:"not null;default:0"`
	SolvedCount         int                           `json:"solved_count" gorm:"not null;default:0"`
	PartialSolveCount   int                           `json:"partial_solve_count" gorm:"not null;default:0"`
	FailedCount         int                           `json:"failed_count" gorm:"not null;default:0"`
	SolveRate           float64                       `json:"solve_rate" gorm:"not null;default:0"`
	IsMigrated          bool                          `json:"is_migrated" gorm:"not null;default:false;index"`
	MigratedToID        *uint                         `json:"migrated_to_id,omitempty"`
	MigratedAt          *time.Time                    `json:"migrated_at,omitempty"`
	CreatedAt           time.Time                     `json:"created_at"`
	UpdatedAt           time.Time                     `json:"updated_at"`
	DeletedAt           gorm.DeletedAt                `gorm:"index" json:"-"`
}

// BankProblem is a permanent coding problem.
type BankProblem struct {
	ID                 uint                          `gorm:"primarykey" json:"id"`
	Title              string                        `json:"title" gorm:"not null"`
	Description        string                        `json:"description" gorm:"type:text;not null"`
	Difficulty         string                        `json:"difficulty" gorm:"not null;index"`
	Topic              string                        `json:"topic" gorm:"index"`
	Tags               datatypes.JSONSlice[string]   `json:"tags"`
	Hints              datatypes.JSONSlice[string]   `json:"hints"`
	TestCases          datatypes.JSONSlice[TestCase] `json:"test_cases"`
	TestCasesValidated bool                          `json:"test_cases_validated"`
	Points             float64                       `json:"points"`
	QualityScore       float64                       `json:"quality_score"`
	SourceEphemeralID  *uint                         `json:"source_ephemeral_id,omitempty"`
	SourceDriveID      *uint                         `json:"source_drive_id,omitempty"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}
