package model

import (
	"time"

	"gorm.io/datatypes"
)

// MockDriveResult is the final, immutable score record of a completed attempt.
type MockDriveResult struct {
	ID                  uint                        `gorm:"primarykey" json:"id"`
	AttemptID           uint                        `json:"attempt_id" gorm:"not null;uniqueIndex"`
	MockDriveID         uint                        `json:"mock_drive_id" gorm:"not null;index"`
	CandidateID         uint                        `json:"candidate_id" gorm:"not null;index"`
	AptitudeScore       float64                     `json:"aptitude_score"`
	AptitudeMaxScore    float64                     `json:"aptitude_max_score"`
	MachineTestScore    float64                     `json:"machine_test_score"`
	MachineTestMaxScore float64                     `json:"machine_test_max_score"`
	InterviewScore      float64                     `json:"interview_score"`
	InterviewMaxScore   float64                     `json:"interview_max_score"`
	TotalScore          float64                     `json:"total_score"`
	TotalMaxScore       float64                     `json:"total_max_score"`
	Percentage          float64                     `json:"percentage"`
	Strengths           datatypes.JSONSlice[string] `json:"strengths"`
	AreasForImprovement datatypes.JSONSlice[string] `json:"areas_for_improvement"`
	CreatedAt           time.Time                   `json:"created_at"`
}
