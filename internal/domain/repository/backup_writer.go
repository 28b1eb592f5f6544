package repository

import (
	"context"

	"ecovision-etl/internal/domain/entity"
)

// BackupWriter snapshots record batches for audit and recovery. runID keeps
// snapshots of different runs apart. A nil BackupFile with a nil error means
// the batch was empty.
type BackupWriter interface {
	BackupRaw(ctx context.Context, runID string, records []*entity.RawRecord) (*entity.BackupFile, error)
	BackupCleaned(ctx context.Context, runID string, records []*entity.CleanedRecord) (*entity.BackupFile, error)
}

// RunLogWriter persists a detailed per-run log artifact
type RunLogWriter interface {
	// RunLogPath returns where the log of summary will be written
	RunLogPath(summary *entity.ExecutionSummary) string
	WriteRunLog(ctx context.Context, path string, summary *entity.ExecutionSummary) error
}
