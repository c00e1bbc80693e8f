package model

import (
	"time"
)

const (
	AttemptStatusInProgress = "IN_PROGRESS"
	AttemptStatusCompleted  = "COMPLETED"
	AttemptStatusAbandoned  = "ABANDONED"
)

const (
	EndReasonCompleted = "completed"
	EndReasonAbandoned = "abandoned"
	EndReasonExpired   = "expired"
)

// MockDriveAttempt is one candidate's run through a mock drive. Stage progress is
// derived from the optional links, never stored as an enum.
type MockDriveAttempt struct {
	ID                   uint       `gorm:"primarykey" json:"id"`
	MockDriveID          uint       `json:"mock_drive_id" gorm:"not null;uniqueIndex:idx_attempt_drive_candidate"`
	MockDrive            *MockDrive `json:"mock_drive,omitempty" gorm:"foreignKey:MockDriveID"`
	CandidateID          uint       `json:"candidate_id" gorm:"not null;uniqueIndex:idx_attempt_drive_candidate;index"`
	Status               string     `json:"status" gorm:"not null;index"` // "IN_PROGRESS", "COMPLETED", "ABANDONED"
	StartedAt            time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	AbandonedAt          *time.Time `json:"abandoned_at,omitempty"`
	EndReason            string     `json:"end_reason,omitempty"`
	AptitudeResponseID   *uint      `json:"aptitude_response_id,omitempty"`
	InterviewSessionID   *uint      `json:"interview_session_id,omitempty"`
	MachineTestStartedAt *time.Time `json:"machine_test_started_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (a *MockDriveAttempt) IsTerminal() bool {
	return a.Status != AttemptStatusInProgress
}
