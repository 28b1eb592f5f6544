package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ecovision-etl/internal/domain/entity"
)

// FileExecutionHistoryRepository keeps the execution history as a JSON array
// in a single file, oldest first
type FileExecutionHistoryRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileExecutionHistoryRepository creates a file backed history repository
func NewFileExecutionHistoryRepository(path string) *FileExecutionHistoryRepository {
	return &FileExecutionHistoryRepository{path: path}
}

// Append adds record and keeps only the newest keep entries
func (r *FileExecutionHistoryRepository) Append(ctx context.Context, record *entity.ExecutionRecord, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return err
	}
	records = append(records, record)
	if keep > 0 && len(records) > keep {
		records = records[len(records)-keep:]
	}
	return writeJSONFile(r.path, records)
}

// Recent returns up to limit of the newest entries, oldest first
func (r *FileExecutionHistoryRepository) Recent(ctx context.Context, limit int) ([]*entity.ExecutionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

func (r *FileExecutionHistoryRepository) read() ([]*entity.ExecutionRecord, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*entity.ExecutionRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read execution history: %w", err)
	}

	var records []*entity.ExecutionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode execution history: %w", err)
	}
	return records, nil
}

// writeJSONFile replaces path atomically with the indented JSON of v
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
