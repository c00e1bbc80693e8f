package repository

import (
	"time"

	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
)

// ProblemRepository stores the ephemeral coding problems of each drive.
type ProblemRepository interface {
	WithTx(tx *gorm.DB) ProblemRepository
	CreateBatch(problems []model.EphemeralProblem) error
	FindByDrive(driveID uint) ([]model.EphemeralProblem, error)
	FindByIDAndDrive(id, driveID uint) (*model.EphemeralProblem, error)
	FindUnmigratedByDrive(driveID uint) ([]model.EphemeralProblem, error)
	// RecordOutcome adds one attempt and exactly one of solved/partial/failed.
	RecordOutcome(id uint, solved, partial, failed int) error
	MarkMigrated(id, bankID uint, at time.Time) (ok bool, err error)
	SoftDelete(ids []uint) (int64, error)
}

type problemRepository struct {
	db *gorm.DB
}

func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) WithTx(tx *gorm.DB) ProblemRepository {
	return &problemRepository{db: tx}
}

func (r *problemRepository) CreateBatch(problems []model.EphemeralProblem) error {
	if len(problems) == 0 {
		return nil
	}
	return r.db.Create(&problems).Error
}

func (r *problemRepository) FindByDrive(driveID uint) ([]model.EphemeralProblem, error) {
	var problems []model.EphemeralProblem
	if err := r.db.Where("mock_drive_id = ?", driveID).Order("order_index asc").Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *problemRepository) FindByIDAndDrive(id, driveID uint) (*model.EphemeralProblem, error) {
	var problem model.EphemeralProblem
	err := r.db.Where("id = ? AND mock_drive_id = ?", id, driveID).First(&problem).Error
	return &problem, err
}

func (r *problemRepository) FindUnmigratedByDrive(driveID uint) ([]model.EphemeralProblem, error) {
	var problems []model.EphemeralProblem
	err := r.db.Where("mock_drive_id = ? AND is_migrated = ?", driveID, false).
		Order("order_index asc").
		Find(&problems).Error
	if err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *problemRepository) RecordOutcome(id uint, solved, partial, failed int) error {
	return r.db.Model(&model.EphemeralProblem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_attempts":      gorm.Expr("total_attempts + 1"),
			"solved_count":        gorm.Expr("solved_count + ?", solved),
			"partial_solve_count": gorm.Expr("partial_solve_count + ?", partial),
			"failed_count":        gorm.Expr("failed_count + ?", failed),
			"solve_rate":          gorm.Expr("(solved_count + ?) * 1.0 / (total_attempts + 1)", solved),
		}).Error
}

func (r *problemRepository) MarkMigrated(id, bankID uint, at time.Time) (bool, error) {
	res := r.db.Model(&model.EphemeralProblem{}).
		Where("id = ? AND is_migrated = ?", id, false).
		Updates(map[string]any{
			"is_migrated":    true,
			"migrated_to_id": bankID,
			"migrated_at":    at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *problemRepository) SoftDelete(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Where("id IN ? AND is_migrated = ?", ids, false).Delete(&model.EphemeralProblem{})
	return res.RowsAffected, res.Error
}
