package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/pkg/utils"
)

// runLogDocument is the on-disk layout of a run log
type runLogDocument struct {
	PipelineExecution *entity.ExecutionSummary `json:"pipeline_execution"`
	Metadata          runLogMetadata           `json:"metadata"`
}

type runLogMetadata struct {
	WrittenAt  time.Time `json:"written_at"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	DurationMs int64     `json:"duration_ms"`
	AppVersion string    `json:"app_version"`
}

// JSONRunLogWriter writes one JSON file per pipeline run
type JSONRunLogWriter struct {
	dir        string
	appVersion string
	now        func() time.Time
}

// NewJSONRunLogWriter creates a run log writer rooted at dir
func NewJSONRunLogWriter(dir, appVersion string) *JSONRunLogWriter {
	return &JSONRunLogWriter{
		dir:        dir,
		appVersion: appVersion,
		now:        time.Now,
	}
}

// RunLogPath returns <dir>/pipeline_log_<timestamp>_<runid8>.json
func (w *JSONRunLogWriter) RunLogPath(summary *entity.ExecutionSummary) string {
	name := fmt.Sprintf("pipeline_log_%s_%s.json", w.now().Format(utils.FILE_TIMESTAMP_LAYOUT), shortRunID(summary.RunID))
	return filepath.Join(w.dir, name)
}

// WriteRunLog writes summary with timing metadata to path
func (w *JSONRunLogWriter) WriteRunLog(ctx context.Context, path string, summary *entity.ExecutionSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	doc := runLogDocument{
		PipelineExecution: summary,
		Metadata: runLogMetadata{
			WrittenAt:  w.now(),
			StartTime:  summary.StartTime,
			EndTime:    summary.EndTime,
			DurationMs: summary.EndTime.Sub(summary.StartTime).Milliseconds(),
			AppVersion: w.appVersion,
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}

// shortRunID is the run id prefix used in artifact file names
func shortRunID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
