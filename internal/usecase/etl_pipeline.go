package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/internal/domain/repository"
	"ecovision-etl/pkg/logger"
	"ecovision-etl/pkg/metrics"
	"ecovision-etl/pkg/utils"

	"github.com/google/uuid"
)

// maxReportedRejections bounds the per-record reasons kept in a summary
const maxReportedRejections = 100

// ETLPipeline runs one extract, transform, load and log cycle over the
// whole raw table
type ETLPipeline struct {
	store       repository.RecordStore
	backups     repository.BackupWriter
	runLogs     repository.RunLogWriter
	transformer *Transformer
	metrics     *metrics.Metrics
	logger      logger.Logger
	now         func() time.Time
	state       atomic.Value
}

// NewETLPipeline creates a new ETL pipeline
func NewETLPipeline(
	store repository.RecordStore,
	backups repository.BackupWriter,
	runLogs repository.RunLogWriter,
	transformer *Transformer,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ETLPipeline {
	p := &ETLPipeline{
		store:       store,
		backups:     backups,
		runLogs:     runLogs,
		transformer: transformer,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
	p.state.Store(entity.StateIdle)
	return p
}

// State returns the stage the pipeline is currently in
func (p *ETLPipeline) State() entity.PipelineState {
	return p.state.Load().(entity.PipelineState)
}

func (p *ETLPipeline) setState(s entity.PipelineState) {
	p.state.Store(s)
}

// Run executes the pipeline. It never panics and always returns a finalized
// summary, even when every stage failed.
func (p *ETLPipeline) Run(ctx context.Context) (summary *entity.ExecutionSummary) {
	summary = entity.NewExecutionSummary(uuid.NewString(), p.now())
	log := p.logger.With("runID", summary.RunID)
	log.Info("Starting biodiversity ETL pipeline")

	defer func() {
		if r := recover(); r != nil {
			p.setState(entity.StateFailed)
			msg := fmt.Sprintf("critical pipeline error: %v", r)
			log.Error("Pipeline aborted", "error", msg)
			p.metrics.ErrorsCount.WithLabelValues("pipeline").Inc()
			if summary.EndTime.IsZero() {
				summary.Errors = append(summary.Errors, msg)
				summary.Finalize(p.now())
			} else {
				summary.Warnings = append(summary.Warnings, msg)
			}
			p.observe(summary)
		}
	}()

	raw := p.extract(ctx, summary, log)
	if len(raw) == 0 {
		log.Warn("No raw records to process")
	}

	accepted := p.transform(raw, summary, log)
	if len(accepted) > 0 {
		p.load(ctx, accepted, summary, log)
	}

	p.setState(entity.StateLogging)
	summary.Finalize(p.now())
	p.writeLogs(ctx, summary, log)

	p.setState(entity.StateIdle)
	p.observe(summary)
	log.Info("Pipeline finished",
		"status", summary.Status,
		"extracted", summary.RecordsExtracted,
		"transformed", summary.RecordsTransformed,
		"loaded", summary.RecordsLoaded,
		"rejected", summary.RecordsRejected,
		"seconds", summary.ExecutionTimeSeconds)
	return summary
}

func (p *ETLPipeline) extract(ctx context.Context, summary *entity.ExecutionSummary, log logger.Logger) []*entity.RawRecord {
	p.setState(entity.StateExtracting)
	log.Info("Extracting raw records")

	records, err := p.store.ListRaw(ctx)
	if err != nil {
		log.Error("Failed to extract raw records", "error", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("extraction failed: %v", err))
		p.metrics.ErrorsCount.WithLabelValues("extract").Inc()
		return nil
	}

	summary.RecordsExtracted = len(records)
	p.metrics.RecordsProcessed.WithLabelValues("extracted").Add(float64(len(records)))
	log.Info("Extracted raw records", "count", len(records))

	p.backup(summary, log, entity.BackupRaw, func() (*entity.BackupFile, error) {
		return p.backups.BackupRaw(ctx, summary.RunID, records)
	})
	return records
}

func (p *ETLPipeline) transform(raw []*entity.RawRecord, summary *entity.ExecutionSummary, log logger.Logger) []*entity.CleanedRecord {
	p.setState(entity.StateTransforming)

	accepted := make([]*entity.CleanedRecord, 0, len(raw))
	scoreTotal := 0.0
	for _, r := range raw {
		if r == nil {
			continue
		}
		rec, rejection := p.transformer.Process(r, p.now())
		if rejection != nil {
			summary.RecordsRejected++
			if len(summary.Rejections) < maxReportedRejections {
				summary.Rejections = append(summary.Rejections, *rejection)
			}
			log.Debug("Record rejected", "rawID", r.ID, "reason", rejection.Reason)
			continue
		}
		accepted = append(accepted, rec)
		scoreTotal += rec.DataQualityScore
	}

	summary.RecordsTransformed = len(accepted)
	if len(accepted) > 0 {
		summary.AverageQualityScore = utils.Round(scoreTotal/float64(len(accepted)), 2)
	}
	if summary.RecordsRejected > 0 {
		summary.Errors = append(summary.Errors,
			fmt.Sprintf("%d records rejected during transformation", summary.RecordsRejected))
	}

	p.metrics.RecordsProcessed.WithLabelValues("transformed").Add(float64(summary.RecordsTransformed))
	p.metrics.RecordsProcessed.WithLabelValues("rejected").Add(float64(summary.RecordsRejected))
	log.Info("Transformation finished",
		"transformed", summary.RecordsTransformed,
		"rejected", summary.RecordsRejected)
	return accepted
}

func (p *ETLPipeline) load(ctx context.Context, records []*entity.CleanedRecord, summary *entity.ExecutionSummary, log logger.Logger) {
	p.setState(entity.StateLoading)
	log.Info("Loading cleaned records", "count", len(records))

	loaded, err := p.store.InsertCleaned(ctx, records)
	if err != nil {
		log.Error("Failed to load cleaned records, batch rolled back", "error", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("load failed, batch rolled back: %v", err))
		summary.RecordsLoaded = 0
		p.metrics.ErrorsCount.WithLabelValues("load").Inc()
		return
	}

	summary.RecordsLoaded = loaded
	p.metrics.RecordsProcessed.WithLabelValues("loaded").Add(float64(loaded))
	if skipped := len(records) - loaded; skipped > 0 {
		log.Info("Skipped records already present in the cleaned table", "count", skipped)
	}

	p.backup(summary, log, entity.BackupCleaned, func() (*entity.BackupFile, error) {
		return p.backups.BackupCleaned(ctx, summary.RunID, records)
	})
}

// backup is best effort: failures become warnings and never change status
func (p *ETLPipeline) backup(summary *entity.ExecutionSummary, log logger.Logger, kind string, write func() (*entity.BackupFile, error)) {
	file, err := write()
	if err != nil {
		log.Warn("Failed to write backup", "type", kind, "error", err)
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s backup failed: %v", kind, err))
		p.metrics.ErrorsCount.WithLabelValues("backup").Inc()
		return
	}
	if file == nil {
		log.Debug("Empty batch, no backup written", "type", kind)
		return
	}
	summary.BackupFiles = append(summary.BackupFiles, *file)
	log.Info("Backup created", "type", kind, "path", file.Path, "records", file.Records)
}

// writeLogs persists the finalized summary; failures are reported as
// warnings. The log path is set first so both the store row and the run log
// artifact carry it, and the artifact is written last so it includes a store
// failure. Only a failed artifact write touches the summary afterwards.
func (p *ETLPipeline) writeLogs(ctx context.Context, summary *entity.ExecutionSummary, log logger.Logger) {
	summary.LogFile = p.runLogs.RunLogPath(summary)

	if err := p.store.AppendLog(ctx, summary); err != nil {
		log.Error("Failed to append execution log", "error", err)
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("execution log failed: %v", err))
		p.metrics.ErrorsCount.WithLabelValues("log").Inc()
	}

	if err := p.runLogs.WriteRunLog(ctx, summary.LogFile, summary); err != nil {
		log.Error("Failed to write run log", "path", summary.LogFile, "error", err)
		summary.LogFile = ""
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("run log failed: %v", err))
		p.metrics.ErrorsCount.WithLabelValues("log").Inc()
	}
}

func (p *ETLPipeline) observe(summary *entity.ExecutionSummary) {
	p.metrics.RunsTotal.WithLabelValues(summary.Status).Inc()
	p.metrics.RunDuration.Observe(summary.ExecutionTimeSeconds)
}
