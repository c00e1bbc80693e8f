package repository

import (
	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	WithTx(tx *gorm.DB) SubmissionRepository
	CreateAptitudeResponse(resp *model.AptitudeResponse) error
	FindAptitudeResponse(id uint) (*model.AptitudeResponse, error)
	CreateCodeSubmission(sub *model.CodeSubmission) error
	FindCodeSubmissionsByAttempt(attemptID uint) ([]model.CodeSubmission, error)
	CountCodeSubmissions(attemptID uint) (int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: tx}
}

func (r *submissionRepository) CreateAptitudeResponse(resp *model.AptitudeResponse) error {
	return r.db.Create(resp).Error
}

func (r *submissionRepository) FindAptitudeResponse(id uint) (*model.AptitudeResponse, error) {
	var resp model.AptitudeResponse
	err := r.db.First(&resp, id).Error
	return &resp, err
}

func (r *submissionRepository) CreateCodeSubmission(sub *model.CodeSubmission) error {
	return r.db.Create(sub).Error
}

func (r *submissionRepository) FindCodeSubmissionsByAttempt(attemptID uint) ([]model.CodeSubmission, error) {
	var subs []model.CodeSubmission
	err := r.db.Where("attempt_id = ?", attemptID).Order("submitted_at asc, id asc").Find(&subs).Error
	return subs, err
}

func (r *submissionRepository) CountCodeSubmissions(attemptID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.CodeSubmission{}).Where("attempt_id = ?", attemptID).Count(&n).Error
	return n, err
}
