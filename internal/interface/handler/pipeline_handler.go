package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/internal/infrastructure/router"
	"ecovision-etl/internal/usecase"
	"ecovision-etl/pkg/logger"
)

const maxConfigBodyBytes = 64 << 10

// Orchestrator is the scheduler surface exposed over HTTP
type Orchestrator interface {
	RunManual(ctx context.Context) *entity.ExecutionSummary
	Start()
	Stop()
	Status() usecase.SchedulerStatus
	UpdateConfig(ctx context.Context, partial map[string]interface{}) (entity.ScheduleConfig, error)
}

// PipelineHandler serves the pipeline and scheduler control routes
type PipelineHandler struct {
	orchestrator Orchestrator
	logger       logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(orchestrator Orchestrator, logger logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// RegisterRoutes adds the control routes to r
func (h *PipelineHandler) RegisterRoutes(r *router.Router) {
	r.Register(http.MethodPost, "/api/pipeline/run-manual", h.TriggerManualRun)
	r.Register(http.MethodPost, "/api/scheduler/start", h.StartSchedule)
	r.Register(http.MethodPost, "/api/scheduler/stop", h.StopSchedule)
	r.Register(http.MethodGet, "/api/scheduler/status", h.GetStatus)
	r.Register(http.MethodPost, "/api/scheduler/config", h.UpdateScheduleConfig)
}

// TriggerManualRun runs the pipeline synchronously and returns its summary
func (h *PipelineHandler) TriggerManualRun(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Manual pipeline run requested", "remote", r.RemoteAddr)
	summary := h.orchestrator.RunManual(r.Context())
	writeJSON(w, http.StatusOK, summary)
}

// StartSchedule starts the scheduler loop
func (h *PipelineHandler) StartSchedule(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.Start()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Scheduler started",
		"status":  h.orchestrator.Status(),
	})
}

// StopSchedule stops the scheduler loop
func (h *PipelineHandler) StopSchedule(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.Stop()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Scheduler stopped",
		"status":  h.orchestrator.Status(),
	})
}

// GetStatus returns the scheduler status view
func (h *PipelineHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orchestrator.Status())
}

// UpdateScheduleConfig merges the JSON body into the schedule config
func (h *PipelineHandler) UpdateScheduleConfig(w http.ResponseWriter, r *http.Request) {
	var partial map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConfigBodyBytes)).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	cfg, err := h.orchestrator.UpdateConfig(r.Context(), partial)
	if errors.Is(err, usecase.ErrInvalidScheduleConfig) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Failed to update schedule config", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update schedule config")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Schedule config updated",
		"config":  cfg,
	})
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Healthy"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
