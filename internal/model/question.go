package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EphemeralQuestion is an aptitude question drawn for a single mock drive.
type EphemeralQuestion struct {
	ID                   uint                        `gorm:"primarykey" json:"id"`
	MockDriveID          uint                        `json:"mock_drive_id" gorm:"not null;index"`
	SourceBankQuestionID *uint                       `json:"source_bank_question_id,omitempty" gorm:"index"`
	Text                 string                      `json:"text" gorm:"type:text;not null"`
	Options              datatypes.JSONSlice[string] `json:"options"`
	CorrectOption        string                      `json:"-" gorm:"not null"`
	Explanation          string                      `json:"explanation,omitempty" gorm:"type:text"`
	Difficulty           string                      `json:"difficulty" gorm:"not null"` // "easy", "medium", "hard"
	Tags                 datatypes.JSONSlice[string] `json:"tags"`
	OrderIndex           int                         `json:"order_index" gorm:"not null"`
	AttemptCount         int                         `json:"attempt_count" gorm:"not null;default:0"`
	CorrectCount         int                         `json:"correct_count" gorm:"not null;default:0"`
	SuccessRate          float64                     `json:"success_rate" gorm:"not null;default:0"`
	IsMigrated           bool                        `json:"is_migrated" gorm:"not null;default:false;index"`
	MigratedToID         *uint                       `json:"migrated_to_id,omitempty"`
	MigratedAt           *time.Time                  `json:"migrated_at,omitempty"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
	DeletedAt            gorm.DeletedAt              `gorm:"index" json:"-"`
}

// BankQuestion is a permanent aptitude question.
type BankQuestion struct {
	ID                uint                        `gorm:"primarykey" json:"id"`
	Text              string                      `json:"text" gorm:"type:text;not null"`
	Options           datatypes.JSONSlice[string] `json:"options"`
	CorrectOption     string                      `json:"-" gorm:"not null"`
	Explanation       string                      `json:"explanation,omitempty" gorm:"type:text"`
	Difficulty        string                      `json:"difficulty" gorm:"not null;index"`
	Topic             string                      `json:"topic" gorm:"index"`
	Tags              datatypes.JSONSlice[string] `json:"tags"`
	QualityScore      float64                     `json:"quality_score"`
	SourceEphemeralID *uint                       `json:"source_ephemeral_id,omitempty"`
	SourceDriveID     *uint                       `json:"source_drive_id,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}
