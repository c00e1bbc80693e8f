package repository

import (
	"time"

	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
)

// QuestionRepository stores the ephemeral aptitude questions of each drive.
type QuestionRepository interface {
	WithTx(tx *gorm.DB) QuestionRepository
	CreateBatch(questions []model.EphemeralQuestion) error
	FindByDrive(driveID uint) ([]model.EphemeralQuestion, error)
	FindUnmigratedByDrive(driveID uint) ([]model.EphemeralQuestion, error)
	IncrementAttempts(ids []uint) error
	IncrementCorrect(ids []uint) error
	MarkMigrated(id, bankID uint, at time.Time) (ok bool, err error)
	SoftDelete(ids []uint) (int64, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) WithTx(tx *gorm.DB) QuestionRepository {
	return &questionRepository{db: tx}
}

func (r *questionRepository) CreateBatch(questions []model.EphemeralQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Create(&questions).Error
}

func (r *questionRepository) FindByDrive(driveID uint) ([]model.EphemeralQuestion, error) {
	var questions []model.EphemeralQuestion
	if err := r.db.Where("mock_drive_id = ?", driveID).Order("order_index asc").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) FindUnmigratedByDrive(driveID uint) ([]model.EphemeralQuestion, error) {
	var questions []model.EphemeralQuestion
	err := r.db.Where("mock_drive_id = ? AND is_migrated = ?", driveID, false).
		Order("order_index asc").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// IncrementAttempts bumps attempt_count and the derived success_rate in one statement.
func (r *questionRepository) IncrementAttempts(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.EphemeralQuestion{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"success_rate":  gorm.Expr("correct_count * 1.0 / (attempt_count + 1)"),
		}).Error
}

// IncrementCorrect bumps correct_count and the derived success_rate in one statement.
func (r *questionRepository) IncrementCorrect(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.EphemeralQuestion{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"correct_count": gorm.Expr("correct_count + 1"),
			"success_rate":  gorm.Expr("CASE WHEN attempt_count > 0 THEN (correct_count + 1) * 1.0 / attempt_count ELSE 0 END"),
		}).Error
}

func (r *questionRepository) MarkMigrated(id, bankID uint, at time.Time) (bool, error) {
	res := r.db.Model(&model.EphemeralQuestion{}).
		Where("id = ? AND is_migrated = ?", id, false).
		Updates(map[string]any{
			"is_migrated":    true,
			"migrated_to_id": bankID,
			"migrated_at":    at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *questionRepository) SoftDelete(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Where("id IN ? AND is_migrated = ?", ids, false).Delete(&model.EphemeralQuestion{})
	return res.RowsAffected, res.Error
}
