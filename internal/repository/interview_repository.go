package repository

import (
	"time"

	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterviewRepository interface {
	WithTx(tx *gorm.DB) InterviewRepository
	CreateIfAbsent(session *model.InterviewSession) (created bool, err error)
	FindByID(id uint) (*model.InterviewSession, error)
	FindByAttempt(attemptID uint) (*model.InterviewSession, error)
	RecordAnswer(id uint, answered int, nextQuestion string) error
	MarkCompleted(id uint, answered int, at time.Time) error
	SaveFeedback(id uint, score float64, strengths, improvements []string) error
}

type interviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) WithTx(tx *gorm.DB) InterviewRepository {
	return &interviewRepository{db: tx}
}

func (r *interviewRepository) CreateIfAbsent(session *model.InterviewSession) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}},
		DoNothing: true,
	}).Create(session)
	return res.RowsAffected == 1, res.Error
}

func (r *interviewRepository) FindByID(id uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.db.First(&session, id).Error
	return &session, err
}

func (r *interviewRepository) FindByAttempt(attemptID uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.db.Where("attempt_id = ?", attemptID).First(&session).Error
	return &session, err
}

func (r *interviewRepository) RecordAnswer(id uint, answered int, nextQuestion string) error {
	return r.db.Model(&model.InterviewSession{}).
		Where("id = ? AND status = ?", id, model.InterviewStatusInProgress).
		Updates(map[string]any{
			"answered_count":   answered,
			"current_question": nextQuestion,
		}).Error
}

func (r *interviewRepository) MarkCompleted(id uint, answered int, at time.Time) error {
	return r.db.Model(&model.InterviewSession{}).
		Where("id = ? AND status = ?", id, model.InterviewStatusInProgress).
		Updates(map[string]any{
			"status":           model.InterviewStatusCompleted,
			"answered_count":   answered,
			"current_question": "",
			"completed_at":     at,
		}).Error
}

func (r *interviewRepository) SaveFeedback(id uint, score float64, strengths, improvements []string) error {
	session := model.InterviewSession{
		HasFeedback:         true,
		OverallScore:        score,
		KeyStrengths:        strengths,
		AreasForImprovement: improvements,
	}
	return r.db.Model(&model.InterviewSession{}).
		Where("id = ?", id).
		Select("has_feedback", "overall_score", "key_strengths", "areas_for_improvement").
		Updates(&session).Error
}
