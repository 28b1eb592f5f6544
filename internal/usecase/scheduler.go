package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/internal/domain/repository"
	"ecovision-etl/pkg/logger"
	"ecovision-etl/pkg/metrics"
	"ecovision-etl/pkg/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	stopJoinTimeout   = 5 * time.Second
	notifyTimeout     = 30 * time.Second
	recentStatusLimit = 5
)

// Pipeline is what the scheduler runs
type Pipeline interface {
	Run(ctx context.Context) *entity.ExecutionSummary
	State() entity.PipelineState
}

// SchedulerOptions tunes timing. Zero values fall back to production defaults.
type SchedulerOptions struct {
	PollInterval   time.Duration
	RetryDelayUnit time.Duration
	Location       *time.Location
	Clock          func() time.Time
}

func (o SchedulerOptions) withDefaults() SchedulerOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Minute
	}
	if o.RetryDelayUnit <= 0 {
		o.RetryDelayUnit = time.Minute
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// SchedulerStatus is a point-in-time view of the scheduler
type SchedulerStatus struct {
	Running          bool                    `json:"scheduler_running"`
	Enabled          bool                    `json:"enabled"`
	PipelineState    entity.PipelineState    `json:"pipeline_state"`
	Config           entity.ScheduleConfig   `json:"config"`
	NextScheduledRun *time.Time              `json:"next_scheduled_run"`
	LastExecution    *entity.ExecutionRecord `json:"last_execution"`
	// TotalExecutions counts every recorded execution, including those
	// trimmed from the retained history
	TotalExecutions    int                       `json:"total_executions"`
	RetainedExecutions int                       `json:"retained_executions"`
	RecentExecutions   []*entity.ExecutionRecord `json:"recent_executions"`
}

// Scheduler triggers the pipeline on a schedule with retries and keeps a
// bounded execution history
type Scheduler struct {
	pipeline Pipeline
	configs  repository.ScheduleConfigRepository
	history  repository.ExecutionHistoryRepository
	notifier repository.Notifier
	metrics  *metrics.Metrics
	logger   logger.Logger
	opts     SchedulerOptions

	// permit allows a single pipeline run at a time
	permit   chan struct{}
	updateMu sync.Mutex

	mu            sync.Mutex
	config        entity.ScheduleConfig
	running       bool
	cancel        context.CancelFunc
	done          chan struct{}
	schedule      cron.Schedule
	nextRun       *time.Time
	lastExecution *entity.ExecutionRecord
	executions    []*entity.ExecutionRecord
	// totalExecutions starts at the loaded history size
	totalExecutions int
}

// NewScheduler creates a scheduler, loading its config and previous history.
// Load failures are logged and the defaults are used.
func NewScheduler(
	ctx context.Context,
	pipeline Pipeline,
	configs repository.ScheduleConfigRepository,
	history repository.ExecutionHistoryRepository,
	notifier repository.Notifier,
	metrics *metrics.Metrics,
	logger logger.Logger,
	opts SchedulerOptions,
) *Scheduler {
	s := &Scheduler{
		pipeline: pipeline,
		configs:  configs,
		history:  history,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		opts:     opts.withDefaults(),
		permit:   make(chan struct{}, 1),
		config:   entity.DefaultScheduleConfig(),
	}

	cfg, err := configs.Load(ctx)
	if err != nil {
		logger.Error("Failed to load schedule config, using defaults", "error", err)
	} else if err := ValidateScheduleConfig(cfg); err != nil {
		logger.Error("Stored schedule config is invalid, using defaults", "error", err)
	} else {
		s.config = cfg
	}

	records, err := history.Recent(ctx, s.config.MaxExecutionHistory)
	if err != nil {
		logger.Error("Failed to load execution history", "error", err)
	} else {
		s.executions = records
		s.totalExecutions = len(records)
		if n := len(records); n > 0 {
			s.lastExecution = records[n-1]
		}
	}

	return s
}

// Start begins the polling loop. It is a no-op when already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Info("Scheduler already running")
		return
	}

	s.installSchedule()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)

	s.logger.Info("Scheduler started",
		"scheduleType", s.config.ScheduleType,
		"enabled", s.config.Enabled,
		"nextRun", s.nextRun)
}

// installSchedule must be called with mu held
func (s *Scheduler) installSchedule() {
	s.schedule = nil
	s.nextRun = nil

	schedule, err := BuildSchedule(s.config)
	switch {
	case errors.Is(err, errCustomSchedule):
		s.logger.Warn("Custom cron schedules are not supported, nothing scheduled",
			"customCron", utils.Deref(s.config.CustomCron))
		return
	case err != nil:
		s.logger.Error("Failed to build schedule, nothing scheduled", "error", err)
		return
	case schedule == nil:
		s.logger.Info("Scheduling disabled")
		return
	}

	next := schedule.Next(s.now())
	s.schedule = schedule
	s.nextRun = &next
}

// Stop cancels the polling loop and any retry wait, waiting a bounded time
// for the loop to exit. A pipeline run already in progress completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.schedule = nil
	s.nextRun = nil
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	cancel()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
	case <-time.After(stopJoinTimeout):
		s.logger.Warn("Scheduler loop did not exit in time", "timeout", stopJoinTimeout)
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.due() {
				s.RunScheduled(ctx)
			}
		}
	}
}

// due reports whether the next trigger has passed and advances it
func (s *Scheduler) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == nil || s.nextRun == nil {
		return false
	}
	now := s.now()
	if now.Before(*s.nextRun) {
		return false
	}
	next := s.schedule.Next(now)
	s.nextRun = &next
	return true
}

// RunScheduled runs the pipeline with the configured retry policy and
// records exactly one execution. The run permit is held per attempt, so a
// manual run may go ahead during a retry wait.
func (s *Scheduler) RunScheduled(ctx context.Context) *entity.ExecutionRecord {
	cfg := s.Config()
	record := s.newRecord(entity.TriggerScheduled, "")
	log := s.logger.With("executionID", record.ExecutionID)

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(cfg.RetryDelayMinutes) * s.opts.RetryDelayUnit

	for attempt := 1; attempt <= attempts; attempt++ {
		summary, err := s.runOnce(ctx, func() {
			record.Attempts = attempt
			s.metrics.SchedulerAttempts.Inc()
			log.Info("Running scheduled pipeline", "attempt", attempt, "maxAttempts", attempts)
		})
		if err != nil {
			log.Warn("Scheduled attempt abandoned before start", "attempt", attempt, "error", err)
			s.finish(record, entity.ExecutionFailed, fmt.Sprintf("attempt %d not started: %v", attempt, err))
			return record
		}
		record.Result = summary
		if summary.Status == entity.RunStatusSuccess {
			log.Info("Scheduled run succeeded", "attempt", attempt)
			s.finish(record, entity.ExecutionSuccess, "")
			return record
		}

		log.Warn("Scheduled attempt failed",
			"attempt", attempt,
			"status", summary.Status,
			"errors", summary.Errors)

		if attempt == attempts {
			break
		}
		if !s.wait(ctx, delay) {
			log.Warn("Retry wait interrupted", "attempt", attempt)
			s.finish(record, entity.ExecutionFailed,
				fmt.Sprintf("retry wait interrupted after attempt %d: %v", attempt, ctx.Err()))
			return record
		}
	}

	s.finish(record, entity.ExecutionFailed, fmt.Sprintf("pipeline failed after %d attempts", attempts))
	s.metrics.SchedulerFailures.Inc()
	s.alert(ctx, record, cfg)
	return record
}

// RunManual runs the pipeline once, outside any schedule
func (s *Scheduler) RunManual(ctx context.Context) *entity.ExecutionSummary {
	record := s.newRecord(entity.TriggerManual, "manual_")
	log := s.logger.With("executionID", record.ExecutionID)

	summary, err := s.runOnce(ctx, func() {
		record.Attempts = 1
		log.Info("Running manual pipeline")
	})
	if err != nil {
		log.Warn("Manual run abandoned before start", "error", err)
		summary := entity.NewExecutionSummary(uuid.NewString(), record.StartTime)
		summary.Errors = append(summary.Errors, fmt.Sprintf("run not started: %v", err))
		summary.Finalize(s.now())
		record.Result = summary
		s.finish(record, entity.ExecutionFailed, summary.Errors[0])
		return summary
	}
	record.Result = summary

	status := entity.ExecutionFailed
	if summary.Status == entity.RunStatusSuccess {
		status = entity.ExecutionSuccess
	}
	s.finish(record, status, "")
	return summary
}

func (s *Scheduler) newRecord(trigger, prefix string) *entity.ExecutionRecord {
	start := s.now()
	return &entity.ExecutionRecord{
		ExecutionID: prefix + start.Format(utils.FILE_TIMESTAMP_LAYOUT),
		Trigger:     trigger,
		Status:      entity.ExecutionRunning,
		StartTime:   start,
	}
}

// runOnce holds the run permit for a single pipeline run. started is called
// once the permit is taken. Cancelling ctx abandons the wait for the permit
// but never a started run.
func (s *Scheduler) runOnce(ctx context.Context, started func()) (*entity.ExecutionSummary, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	started()
	return s.pipeline.Run(context.WithoutCancel(ctx)), nil
}

func (s *Scheduler) acquire(ctx context.Context) error {
	select {
	case s.permit <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) release() {
	<-s.permit
}

// wait sleeps for d and reports false when ctx ends first
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// finish stamps the record, appends it to the bounded history and persists it
func (s *Scheduler) finish(record *entity.ExecutionRecord, status, errMsg string) {
	end := s.now()
	record.Status = status
	record.EndTime = &end
	record.Error = errMsg

	s.mu.Lock()
	keep := s.config.MaxExecutionHistory
	s.executions = truncateHistory(append(s.executions, record), keep)
	s.totalExecutions++
	s.lastExecution = record
	s.mu.Unlock()

	if err := s.history.Append(context.Background(), record, keep); err != nil {
		s.logger.Error("Failed to persist execution history",
			"executionID", record.ExecutionID,
			"error", err)
	}
}

func truncateHistory(records []*entity.ExecutionRecord, keep int) []*entity.ExecutionRecord {
	if keep < 1 || len(records) <= keep {
		return records
	}
	trimmed := make([]*entity.ExecutionRecord, keep)
	copy(trimmed, records[len(records)-keep:])
	return trimmed
}

// alert logs the exhausted execution and forwards it to the notifier when enabled
func (s *Scheduler) alert(ctx context.Context, record *entity.ExecutionRecord, cfg entity.ScheduleConfig) {
	s.logger.Error("Scheduled pipeline failed after all retries",
		"executionID", record.ExecutionID,
		"attempts", record.Attempts,
		"error", record.Error)

	if !cfg.NotifyOnFailure || s.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyFailure(notifyCtx, record); err != nil {
		s.logger.Error("Failed to send failure notification",
			"executionID", record.ExecutionID,
			"error", err)
		s.metrics.ErrorsCount.WithLabelValues("notify").Inc()
	}
}

// UpdateConfig merges partial into the current config, validates and
// persists it, and restarts the loop when running. Invalid input leaves the
// config untouched and returns an error wrapping ErrInvalidScheduleConfig.
func (s *Scheduler) UpdateConfig(ctx context.Context, partial map[string]interface{}) (entity.ScheduleConfig, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	current := s.Config()
	merged, ignored, err := MergeScheduleConfig(current, partial)
	if len(ignored) > 0 {
		s.logger.Warn("Ignoring unknown schedule config keys", "keys", ignored)
	}
	if err != nil {
		return current, err
	}

	if err := s.configs.Save(ctx, merged); err != nil {
		return current, fmt.Errorf("failed to save schedule config: %w", err)
	}

	s.mu.Lock()
	s.config = merged
	s.executions = truncateHistory(s.executions, merged.MaxExecutionHistory)
	running := s.running
	s.mu.Unlock()

	s.logger.Info("Schedule config updated", "config", merged)

	if running {
		s.Stop()
		s.Start()
	}
	return merged, nil
}

// Config returns a copy of the current config
func (s *Scheduler) Config() entity.ScheduleConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// History returns the retained executions, oldest first
func (s *Scheduler) History() []*entity.ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.ExecutionRecord, len(s.executions))
	copy(out, s.executions)
	return out
}

// Status returns the scheduler status view
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{
		Running:            s.running,
		Enabled:            s.config.Enabled,
		PipelineState:      s.pipeline.State(),
		Config:             s.config,
		LastExecution:      s.lastExecution,
		TotalExecutions:    s.totalExecutions,
		RetainedExecutions: len(s.executions),
		RecentExecutions:   []*entity.ExecutionRecord{},
	}
	if s.nextRun != nil {
		next := *s.nextRun
		status.NextScheduledRun = &next
	}

	from := len(s.executions) - recentStatusLimit
	if from < 0 {
		from = 0
	}
	status.RecentExecutions = append(status.RecentExecutions, s.executions[from:]...)
	return status
}

func (s *Scheduler) now() time.Time {
	return s.opts.Clock().In(s.opts.Location)
}
