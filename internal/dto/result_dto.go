package dto

import "time"

type ComponentScoreDTO struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
}

type ResultResponse struct {
	ID                  uint              `json:"id"`
	AttemptID           uint              `json:"attempt_id"`
	MockDriveID         uint              `json:"mock_drive_id"`
	CandidateID         uint              `json:"candidate_id"`
	Aptitude            ComponentScoreDTO `json:"aptitude"`
	MachineTest         ComponentScoreDTO `json:"machine_test"`
	Interview           ComponentScoreDTO `json:"interview"`
	TotalScore          float64           `json:"total_score"`
	TotalMaxScore       float64           `json:"total_max_score"`
	Percentage          float64           `json:"percentage"`
	Strengths           []string          `json:"strengths"`
	AreasForImprovement []string          `json:"areas_for_improvement"`
	CreatedAt           time.Time         `json:"created_at"`
}
