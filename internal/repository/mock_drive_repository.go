package repository

import (
	"github.com/lshigami/mockdrive/internal/model"
	"gorm.io/gorm"
)

// MockDriveRepository reads drive definitions, registrations and batches. The
// engine never edits them; Create exists for seeding.
type MockDriveRepository interface {
	Create(drive *model.MockDrive) error
	FindByID(id uint) (*model.MockDrive, error)
	CreateRegistration(reg *model.Registration) error
	FindRegistration(driveID, candidateID uint) (*model.Registration, error)
	CreateBatch(batch *model.Batch) error
}

type mockDriveRepository struct {
	db *gorm.DB
}

func NewMockDriveRepository(db *gorm.DB) MockDriveRepository {
	return &mockDriveRepository{db: db}
}

func (r *mockDriveRepository) Create(drive *model.MockDrive) error {
	return r.db.Create(drive).Error
}

func (r *mockDriveRepository) FindByID(id uint) (*model.MockDrive, error) {
	var drive model.MockDrive
	err := r.db.First(&drive, id).Error
	return &drive, err
}

func (r *mockDriveRepository) CreateRegistration(reg *model.Registration) error {
	return r.db.Create(reg).Error
}

func (r *mockDriveRepository) FindRegistration(driveID, candidateID uint) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.Preload("Batch").
		Where("mock_drive_id = ? AND candidate_id = ?", driveID, candidateID).
		First(&reg).Error
	return &reg, err
}

func (r *mockDriveRepository) CreateBatch(batch *model.Batch) error {
	return r.db.Create(batch).Error
}
