package dto

import (
	"time"

	"github.com/lshigami/mockdrive/internal/scoring"
)

// AttemptResponse is the candidate-facing view of a mock drive attempt.
type AttemptResponse struct {
	ID                   uint       `json:"id"`
	MockDriveID          uint       `json:"mock_drive_id"`
	CandidateID          uint       `json:"candidate_id"`
	Status               string     `json:"status"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	AbandonedAt          *time.Time `json:"abandoned_at,omitempty"`
	EndReason            string     `json:"end_reason,omitempty"`
	Deadline             *time.Time `json:"deadline,omitempty"`
	AptitudeResponseID   *uint      `json:"aptitude_response_id,omitempty"`
	InterviewSessionID   *uint      `json:"interview_session_id,omitempty"`
	MachineTestStartedAt *time.Time `json:"machine_test_started_at,omitempty"`
}

type StartAttemptResponse struct {
	Attempt         AttemptResponse         `json:"attempt"`
	ComponentStatus scoring.ComponentStatus `json:"component_status"`
	Resumed         bool                    `json:"resumed"`
}

type AttemptStatusResponse struct {
	AttemptID       uint                    `json:"attempt_id"`
	Status          string                  `json:"status"`
	ComponentStatus scoring.ComponentStatus `json:"component_status"`
	Deadline        *time.Time              `json:"deadline,omitempty"`
}

// AdvanceResponse carries the final result once the attempt completes.
type AdvanceResponse struct {
	AttemptID       uint                    `json:"attempt_id"`
	Status          string                  `json:"status"`
	ComponentStatus scoring.ComponentStatus `json:"component_status"`
	Result          *ResultResponse         `json:"result,omitempty"`
}

type ReapResponse struct {
	Expired int `json:"expired"`
}
