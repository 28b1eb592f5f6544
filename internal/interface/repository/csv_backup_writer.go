package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/pkg/logger"
	"ecovision-etl/pkg/utils"

	"github.com/jszwec/csvutil"
)

// CSVBackupWriter writes batch snapshots as CSV under
// <dir>/<type>/biodiversity_<type>_<timestamp>_<runid8>.csv
type CSVBackupWriter struct {
	dir    string
	logger logger.Logger
	now    func() time.Time
}

// NewCSVBackupWriter creates a backup writer rooted at dir
func NewCSVBackupWriter(dir string, logger logger.Logger) *CSVBackupWriter {
	return &CSVBackupWriter{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// BackupRaw snapshots the extracted batch
func (w *CSVBackupWriter) BackupRaw(ctx context.Context, runID string, records []*entity.RawRecord) (*entity.BackupFile, error) {
	return writeBackup(ctx, w, entity.BackupRaw, runID, records)
}

// BackupCleaned snapshots the loaded batch
func (w *CSVBackupWriter) BackupCleaned(ctx context.Context, runID string, records []*entity.CleanedRecord) (*entity.BackupFile, error) {
	return writeBackup(ctx, w, entity.BackupCleaned, runID, records)
}

// writeBackup returns nil without touching the disk for an empty batch.
// Existing snapshots are never overwritten.
func writeBackup[T any](ctx context.Context, w *CSVBackupWriter, kind, runID string, records []*T) (*entity.BackupFile, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(w.dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	ts := w.now().Format(utils.FILE_TIMESTAMP_LAYOUT)
	filename := fmt.Sprintf("biodiversity_%s_%s_%s.csv", kind, ts, shortRunID(runID))
	path := filepath.Join(dir, filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := csvutil.NewEncoder(cw).Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode %s backup: %w", kind, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush %s backup: %w", kind, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}

	return &entity.BackupFile{
		Type:      kind,
		Filename:  filename,
		Path:      path,
		SizeBytes: info.Size(),
		Records:   len(records),
		Timestamp: ts,
	}, nil
}
