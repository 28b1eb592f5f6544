package repository

import (
	"context"

	"ecovision-etl/internal/domain/entity"
)

// RecordStore defines the storage operations the ETL pipeline depends on
type RecordStore interface {
	// ListRaw returns every raw record in insertion order
	ListRaw(ctx context.Context) ([]*entity.RawRecord, error)
	// InsertCleaned commits all records in one transaction and returns how
	// many rows were written. Records whose raw id is already loaded are skipped.
	InsertCleaned(ctx context.Context, records []*entity.CleanedRecord) (int, error)
	AppendLog(ctx context.Context, summary *entity.ExecutionSummary) error
}

// RawRecordRepository is used by submission and seeding tools
type RawRecordRepository interface {
	InsertRaw(ctx context.Context, records []*entity.RawRecord) (int, error)
}
