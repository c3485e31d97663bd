package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopbridge/backend/internal/application/migration"
	"github.com/shopbridge/backend/internal/infrastructure/persistence/models"
)

// GormImportRecordRepository implements ImportHistoryRepository using GORM
type GormImportRecordRepository struct {
	db *gorm.DB
}

// NewGormImportRecordRepository creates a new GormImportRecordRepository
func NewGormImportRecordRepository(db *gorm.DB) *GormImportRecordRepository {
	return &GormImportRecordRepository{db: db}
}

// Save stores one import record
func (r *GormImportRecordRepository) Save(ctx context.Context, record *migration.ImportRecord) error {
	model := models.ImportRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// List returns records newest-first
func (r *GormImportRecordRepository) List(ctx context.Context, limit, offset int) ([]migration.ImportRecord, error) {
	var recordModels []models.ImportRecordModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]migration.ImportRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = model.ToDomain()
	}
	return records, nil
}

// Count returns the total number of records
func (r *GormImportRecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ImportRecordModel{}).Count(&count).Error
	return count, err
}

// Compile-time interface compliance check
var _ migration.ImportHistoryRepository = (*GormImportRecordRepository)(nil)
