package repository

import (
	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultRepository interface {
	WithTx(tx *gorm.DB) ResultRepository
	// CreateIfAbsent keeps the first result of an attempt; created is false when one existed.
	CreateIfAbsent(result *model.MockDriveResult) (created bool, err error)
	FindByAttempt(attemptID uint) (*model.MockDriveResult, error)
	CountByAttempt(attemptID uint) (int64, error)
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) WithTx(tx *gorm.DB) ResultRepository {
	return &resultRepository{db: tx}
}

func (r *resultRepository) CreateIfAbsent(result *model.MockDriveResult) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}},
		DoNothing: true,
	}).Create(result)
	return res.RowsAffected == 1, res.Error
}

func (r *resultRepository) FindByAttempt(attemptID uint) (*model.MockDriveResult, error) {
	var result model.MockDriveResult
	err := r.db.Where("attempt_id = ?", attemptID).First(&result).Error
	return &result, err
}

func (r *resultRepository) CountByAttempt(attemptID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.MockDriveResult{}).Where("attempt_id = ?", attemptID).Count(&n).Error
	return n, err
}
