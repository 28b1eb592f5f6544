package entity

import (
	"math"
	"time"
)

// Pipeline run statuses
const (
	RunStatusSuccess = "success"
	RunStatusWarning = "warning"
	RunStatusError   = "error"
)

// Backup types
const (
	BackupRaw     = "raw"
	BackupCleaned = "cleaned"
)

// BackupFile describes one snapshot written during a run
type BackupFile struct {
	Type      string `json:"type"`
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Records   int    `json:"records"`
	Timestamp string `json:"timestamp"`
}

// Rejection explains why a raw record did not reach the cleaned set
type Rejection struct {
	RawID  uint   `json:"raw_id"`
	Reason string `json:"reason"`
}

// ExecutionSummary is the result of one pipeline run
type ExecutionSummary struct {
	RunID                string       `json:"run_id"`
	Status               string       `json:"status"`
	StartTime            time.Time    `json:"start_time"`
	EndTime              time.Time    `json:"end_time"`
	ExecutionTimeSeconds float64      `json:"execution_time_seconds"`
	RecordsExtracted     int          `json:"records_extracted"`
	RecordsTransformed   int          `json:"records_transformed"`
	RecordsLoaded        int          `json:"records_loaded"`
	RecordsRejected      int          `json:"records_rejected"`
	AverageQualityScore  float64      `json:"average_quality_score"`
	AcceptanceRate       float64      `json:"acceptance_rate"`
	Rejections           []Rejection  `json:"rejections"`
	Errors               []string     `json:"errors"`
	Warnings             []string     `json:"warnings"`
	BackupFiles          []BackupFile `json:"backup_files"`
	LogFile              string       `json:"log_file,omitempty"`
}

// NewExecutionSummary starts a summary for a run beginning at start
func NewExecutionSummary(runID string, start time.Time) *ExecutionSummary {
	return &ExecutionSummary{
		RunID:       runID,
		StartTime:   start,
		Rejections:  []Rejection{},
		Errors:      []string{},
		Warnings:    []string{},
		BackupFiles: []BackupFile{},
	}
}

// DeriveStatus maps errors and loaded count to a run status
func DeriveStatus(errorCount, loaded int) string {
	if errorCount == 0 {
		return RunStatusSuccess
	}
	if loaded > 0 {
		return RunStatusWarning
	}
	return RunStatusError
}

// Finalize stamps the end time and computes status and derived ratios
func (s *ExecutionSummary) Finalize(end time.Time) {
	s.EndTime = end
	s.ExecutionTimeSeconds = math.Round(end.Sub(s.StartTime).Seconds()*100) / 100
	s.Status = DeriveStatus(len(s.Errors), s.RecordsLoaded)

	extracted := s.RecordsExtracted
	if extracted < 1 {
		extracted = 1
	}
	s.AcceptanceRate = math.Round(float64(s.RecordsLoaded)/float64(extracted)*1000) / 10
}

// Trigger types of an execution
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Terminal statuses of an execution record
const (
	ExecutionRunning = "running"
	ExecutionSuccess = "success"
	ExecutionFailed  = "failed"
)

// ExecutionRecord is the scheduler's bookkeeping entry for one trigger
type ExecutionRecord struct {
	ExecutionID string            `json:"execution_id" bson:"executionId"`
	Trigger     string            `json:"type" bson:"type"`
	Status      string            `json:"status" bson:"status"`
	Attempts    int               `json:"attempts" bson:"attempts"`
	StartTime   time.Time         `json:"start_time" bson:"startTime"`
	EndTime     *time.Time        `json:"end_time" bson:"endTime,omitempty"`
	Result      *ExecutionSummary `json:"result" bson:"result,omitempty"`
	Error       string            `json:"error,omitempty" bson:"error,omitempty"`
}

// PipelineState is the stage a pipeline run is currently in
type PipelineState string

const (
	StateIdle         PipelineState = "idle"
	StateExtracting   PipelineState = "extracting"
	StateTransforming PipelineState = "transforming"
	StateLoading      PipelineState = "loading"
	StateLogging      PipelineState = "logging"
	StateFailed       PipelineState = "failed"
)
