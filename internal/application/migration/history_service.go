package migration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ImportRecord
// ---------------------------------------------------------------------------

// RecordKind distinguishes what an import record describes
type RecordKind string

const (
	// recordKindSubmit is a configurable+variant submission
	recordKindSubmit RecordKind = "submit"
	// recordKindPublish is an additional-store publication
	recordKindPublish RecordKind = "publish"
)

// RecordStatus is the overall result of a recorded operation
type RecordStatus string

const (
	// RecordStatusCompleted means every unit succeeded
	RecordStatusCompleted RecordStatus = "completed"
	// RecordStatusPartial means some units succeeded before a failure
	RecordStatusPartial RecordStatus = "partial"
	// RecordStatusFailed means nothing was imported
	RecordStatusFailed RecordStatus = "failed"
)

// ImportRecord is one durable history entry describing a submit or publish
// outcome. The mapping state itself is never persisted; only the outcome is.
type ImportRecord struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	TargetSKU    string
	Kind         RecordKind
	Status       RecordStatus
	Message      string
	TotalCount   int
	SuccessCount int
	CreatedAt    time.Time
}

// ImportHistoryRepository persists import records
type ImportHistoryRepository interface {
	// Save stores one record
	Save(ctx context.Context, record *ImportRecord) error

	// List returns records newest-first
	List(ctx context.Context, limit, offset int) ([]ImportRecord, error)

	// Count returns the total number of records
	Count(ctx context.Context) (int64, error)
}

// ---------------------------------------------------------------------------
// ImportHistoryService
// ---------------------------------------------------------------------------

// ImportHistoryService records and lists import outcomes
type ImportHistoryService struct {
	repo ImportHistoryRepository
}

// NewImportHistoryService creates a new ImportHistoryService
func NewImportHistoryService(repo ImportHistoryRepository) *ImportHistoryService {
	return &ImportHistoryService{repo: repo}
}

// Record stores one outcome record, filling ID and timestamp
func (s *ImportHistoryService) Record(ctx context.Context, record ImportRecord) error {
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	return s.repo.Save(ctx, &record)
}

// List returns history records with paging defaults applied
func (s *ImportHistoryService) List(ctx context.Context, page, pageSize int) ([]ImportRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	records, err := s.repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return records, count, nil
}
