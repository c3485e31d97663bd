package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopbridge/backend/internal/application/migration"
)

// ImportRecordModel is the persistence model for the ImportRecord entry.
type ImportRecordModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID `gorm:"type:uuid;index;not null"`
	TargetSKU    string    `gorm:"type:varchar(64);index;not null"`
	Kind         string    `gorm:"type:varchar(20);not null"`
	Status       string    `gorm:"type:varchar(20);not null"`
	Message      string    `gorm:"type:text"`
	TotalCount   int       `gorm:"not null;default:0"`
	SuccessCount int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"index;not null"`
}

// TableName returns the table name for GORM
func (ImportRecordModel) TableName() string {
	return "import_records"
}

// ToDomain converts the persistence model to an ImportRecord.
func (m *ImportRecordModel) ToDomain() migration.ImportRecord {
	return migration.ImportRecord{
		ID:           m.ID,
		SessionID:    m.SessionID,
		TargetSKU:    m.TargetSKU,
		Kind:         migration.RecordKind(m.Kind),
		Status:       migration.RecordStatus(m.Status),
		Message:      m.Message,
		TotalCount:   m.TotalCount,
		SuccessCount: m.SuccessCount,
		CreatedAt:    m.CreatedAt,
	}
}

// ImportRecordModelFromDomain creates a new persistence model from an ImportRecord.
func ImportRecordModelFromDomain(r *migration.ImportRecord) *ImportRecordModel {
	return &ImportRecordModel{
		ID:           r.ID,
		SessionID:    r.SessionID,
		TargetSKU:    r.TargetSKU,
		Kind:         string(r.Kind),
		Status:       string(r.Status),
		Message:      r.Message,
		TotalCount:   r.TotalCount,
		SuccessCount: r.SuccessCount,
		CreatedAt:    r.CreatedAt,
	}
}
