package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	DriveStatusDraft     = "draft"
	DriveStatusPublished = "published"
	DriveStatusOngoing   = "ongoing"
	DriveStatusCompleted = "completed"
)

type AptitudeConfig struct {
	Enabled         bool `json:"enabled"`
	QuestionCount   int  `json:"question_count"`
	EasyCount       int  `json:"easy_count"`
	MediumCount     int  `json:"medium_count"`
	HardCount       int  `json:"hard_count"`
	DurationMinutes int  `json:"duration_minutes"`
}

type MachineTestConfig struct {
	Enabled         bool    `json:"enabled"`
	ProblemCount    int     `json:"problem_count"`
	EasyCount       int     `json:"easy_count"`
	MediumCount     int     `json:"medium_count"`
	HardCount       int     `json:"hard_count"`
	DurationMinutes int     `json:"duration_minutes"`
	DefaultPoints   float64 `json:"default_points"`
}

type InterviewConfig struct {
	Enabled         bool   `json:"enabled"`
	JobTitle        string `json:"job_title"`
	CompanyName     string `json:"company_name"`
	DurationMinutes int    `json:"duration_minutes"`
}

// MockDrive is an assessment definition owned by an institution.
type MockDrive struct {
	ID                uint                     `gorm:"primarykey" json:"id"`
	InstitutionID     uint                     `json:"institution_id" gorm:"not null;index"`
	Title             string                   `json:"title" gorm:"not null"`
	Description       string                   `json:"description,omitempty" gorm:"type:text"`
	Status            string                   `json:"status" gorm:"not null;index"` // "draft", "published", "ongoing", "completed"
	EligibleYears     datatypes.JSONSlice[int] `json:"eligible_years"`
	MinCGPA           float64                  `json:"min_cgpa"`
	RegistrationStart time.Time                `json:"registration_start"`
	RegistrationEnd   time.Time                `json:"registration_end"`
	DriveStart        time.Time                `json:"drive_start"`
	DriveEnd          time.Time                `json:"drive_end"`
	DurationMinutes   int                      `json:"duration_minutes"`
	Aptitude          AptitudeConfig           `json:"aptitude" gorm:"embedded;embeddedPrefix:aptitude_"`
	MachineTest       MachineTestConfig        `json:"machine_test" gorm:"embedded;embeddedPrefix:machine_test_"`
	Interview         InterviewConfig          `json:"interview" gorm:"embedded;embeddedPrefix:interview_"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// TimeBudget is the time an attempt may take. Zero means unbounded.
func (d *MockDrive) TimeBudget() time.Duration {
	minutes := d.DurationMinutes
	if minutes <= 0 {
		if d.Aptitude.Enabled {
			minutes += d.Aptitude.DurationMinutes
		}
		if d.MachineTest.Enabled {
			minutes += d.MachineTest.DurationMinutes
		}
		if d.Interview.Enabled {
			minutes += d.Interview.DurationMinutes
		}
	}
	return time.Duration(minutes) * time.Minute
}

// ValidateBudget rejects an enabled component whose duration exceeds the drive's
// overall duration. Without an overall duration the components define the budget.
func (d *MockDrive) ValidateBudget() error {
	if d.DurationMinutes <= 0 {
		return nil
	}
	for _, c := range []struct {
		name    string
		enabled bool
		minutes int
	}{
		{"aptitude", d.Aptitude.Enabled, d.Aptitude.DurationMinutes},
		{"machine test", d.MachineTest.Enabled, d.MachineTest.DurationMinutes},
		{"interview", d.Interview.Enabled, d.Interview.DurationMinutes},
	} {
		if c.enabled && c.minutes > d.DurationMinutes {
			return fmt.Errorf("%s duration of %d minutes exceeds the drive duration of %d minutes", c.name, c.minutes, d.DurationMinutes)
		}
	}
	return nil
}

// IsActive reports whether candidates may work on the drive at now.
func (d *MockDrive) IsActive(now time.Time) bool {
	if d.Status != DriveStatusPublished && d.Status != DriveStatusOngoing {
		return false
	}
	return !now.Before(d.DriveStart) && now.Before(d.DriveEnd)
}

// IsOver reports whether the drive no longer accepts candidates.
func (d *MockDrive) IsOver(now time.Time) bool {
	return d.Status == DriveStatusCompleted || !now.Before(d.DriveEnd)
}

// AttemptDeadline is the moment an attempt started at startedAt expires: the end of
// its time budget, capped by the end of the drive. The zero time means never.
func (d *MockDrive) AttemptDeadline(startedAt time.Time) time.Time {
	var deadline time.Time
	if budget := d.TimeBudget(); budget > 0 {
		deadline = startedAt.Add(budget)
	}
	if !d.DriveEnd.IsZero() && (deadline.IsZero() || d.DriveEnd.Before(deadline)) {
		deadline = d.DriveEnd
	}
	return deadline
}

type Batch struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	MockDriveID uint      `json:"mock_drive_id" gorm:"not null;index"`
	Name        string    `json:"name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActive reports whether now falls inside the batch slot.
func (b *Batch) IsActive(now time.Time) bool {
	return !now.Before(b.StartTime) && now.Before(b.EndTime)
}

const (
	RegistrationStatusRegistered = "registered"
	RegistrationStatusCancelled  = "cancelled"
)

type Registration struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	MockDriveID       uint      `json:"mock_drive_id" gorm:"not null;uniqueIndex:idx_registration_drive_candidate"`
	CandidateID       uint      `json:"candidate_id" gorm:"not null;uniqueIndex:idx_registration_drive_candidate"`
	Status            string    `json:"status" gorm:"not null"`
	IsEligible        bool      `json:"is_eligible"`
	EligibilityReason string    `json:"eligibility_reason,omitempty"`
	BatchID           *uint     `json:"batch_id,omitempty" gorm:"index"`
	Batch             *Batch    `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
