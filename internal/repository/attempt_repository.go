package repository

import (
	"time"

	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository interface {
	WithTx(tx *gorm.DB) AttemptRepository
	// CreateIfAbsent inserts the attempt unless one already exists for its drive and
	// candidate. created is false when another writer got there first.
	CreateIfAbsent(attempt *model.MockDriveAttempt) (created bool, err error)
	FindByID(id uint) (*model.MockDriveAttempt, error)
	FindByIDWithDrive(id uint) (*model.MockDriveAttempt, error)
	FindByDriveAndCandidate(driveID, candidateID uint) (*model.MockDriveAttempt, error)
	FindInProgressWithDrive() ([]model.MockDriveAttempt, error)
	// Complete and Abandon only move an IN_PROGRESS attempt; ok is false otherwise.
	Complete(id uint, at time.Time) (ok bool, err error)
	Abandon(id uint, at time.Time, reason string) (ok bool, err error)
	LinkAptitudeResponse(id, responseID uint) (ok bool, err error)
	LinkInterviewSession(id, sessionID uint) (ok bool, err error)
	MarkMachineTestStarted(id uint, at time.Time) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) WithTx(tx *gorm.DB) AttemptRepository {
	return &attemptRepository{db: tx}
}

func (r *attemptRepository) CreateIfAbsent(attempt *model.MockDriveAttempt) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mock_drive_id"}, {Name: "candidate_id"}},
		DoNothing: true,
	}).Create(attempt)
	return res.RowsAffected == 1, res.Error
}

func (r *attemptRepository) FindByID(id uint) (*model.MockDriveAttempt, error) {
	var attempt model.MockDriveAttempt
	err := r.db.First(&attempt, id).Error
	return &attempt, err
}

func (r *attemptRepository) FindByIDWithDrive(id uint) (*model.MockDriveAttempt, error) {
	var attempt model.MockDriveAttempt
	err := r.db.Preload("MockDrive").First(&attempt, id).Error
	return &attempt, err
}

func (r *attemptRepository) FindByDriveAndCandidate(driveID, candidateID uint) (*model.MockDriveAttempt, error) {
	var attempt model.MockDriveAttempt
	err := r.db.Where("mock_drive_id = ? AND candidate_id = ?", driveID, candidateID).First(&attempt).Error
	return &attempt, err
}

func (r *attemptRepository) FindInProgressWithDrive() ([]model.MockDriveAttempt, error) {
	var attempts []model.MockDriveAttempt
	err := r.db.Preload("MockDrive").
		Where("status = ?", model.AttemptStatusInProgress).
		Order("started_at ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) Complete(id uint, at time.Time) (bool, error) {
	return r.transition(id, map[string]any{
		"status":       model.AttemptStatusCompleted,
		"completed_at": at,
		"end_reason":   model.EndReasonCompleted,
	})
}

func (r *attemptRepository) Abandon(id uint, at time.Time, reason string) (bool, error) {
	return r.transition(id, map[string]any{
		"status":       model.AttemptStatusAbandoned,
		"abandoned_at": at,
		"end_reason":   reason,
	})
}

func (r *attemptRepository) transition(id uint, updates map[string]any) (bool, error) {
	res := r.db.Model(&model.MockDriveAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptStatusInProgress).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *attemptRepository) LinkAptitudeResponse(id, responseID uint) (bool, error) {
	res := r.db.Model(&model.MockDriveAttempt{}).
		Where("id = ? AND status = ? AND aptitude_response_id IS NULL", id, model.AttemptStatusInProgress).
		Update("aptitude_response_id", responseID)
	return res.RowsAffected == 1, res.Error
}

func (r *attemptRepository) LinkInterviewSession(id, sessionID uint) (bool, error) {
	res := r.db.Model(&model.MockDriveAttempt{}).
		Where("id = ? AND status = ? AND interview_session_id IS NULL", id, model.AttemptStatusInProgress).
		Update("interview_session_id", sessionID)
	return res.RowsAffected == 1, res.Error
}

func (r *attemptRepository) MarkMachineTestStarted(id uint, at time.Time) error {
	return r.db.Model(&model.MockDriveAttempt{}).
		Where("id = ? AND machine_test_started_at IS NULL", id).
		Update("machine_test_started_at", at).Error
}
