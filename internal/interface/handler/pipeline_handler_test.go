package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/internal/infrastructure/router"
	"ecovision-etl/internal/usecase"
	"ecovision-etl/pkg/logger"
)

func fixedTime() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

type fakeOrchestrator struct {
	mu        sync.Mutex
	running   bool
	manual    int
	partial   map[string]interface{}
	updateErr error
	config    entity.ScheduleConfig
}

func (o *fakeOrchestrator) RunManual(ctx context.Context) *entity.ExecutionSummary {
	o.mu.Lock()
	o.manual++
	o.mu.Unlock()
	s := entity.NewExecutionSummary("run-manual", fixedTime())
	s.RecordsExtracted = 2
	s.RecordsLoaded = 2
	s.Finalize(fixedTime())
	return s
}

func (o *fakeOrchestrator) Start() { o.setRunning(true) }
func (o *fakeOrchestrator) Stop()  { o.setRunning(false) }

func (o *fakeOrchestrator) setRunning(v bool) {
	o.mu.Lock()
	o.running = v
	o.mu.Unlock()
}

func (o *fakeOrchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *fakeOrchestrator) ManualCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.manual
}

func (o *fakeOrchestrator) Status() usecase.SchedulerStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return usecase.SchedulerStatus{
		Running:          o.running,
		Enabled:          o.config.Enabled,
		PipelineState:    entity.StateIdle,
		Config:           o.config,
		RecentExecutions: []*entity.ExecutionRecord{},
	}
}

func (o *fakeOrchestrator) UpdateConfig(ctx context.Context, partial map[string]interface{}) (entity.ScheduleConfig, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.partial = partial
	if o.updateErr != nil {
		return o.config, o.updateErr
	}
	if v, ok := partial["schedule_time"].(string); ok {
		o.config.ScheduleTime = v
	}
	return o.config, nil
}

func newTestServer(t *testing.T, o *fakeOrchestrator) *httptest.Server {
	t.Helper()
	r := router.NewRouter(logger.NewNopLogger())
	NewPipelineHandler(o, logger.NewNopLogger()).RegisterRoutes(r)
	r.Register(http.MethodGet, "/health", Health)
	server := httptest.NewServer(r.Handler())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
	}
	return resp, out
}

func TestManualRunReturnsSummary(t *testing.T) {
	o := &fakeOrchestrator{config: entity.DefaultScheduleConfig()}
	server := newTestServer(t, o)

	resp, body := doRequest(t, http.MethodPost, server.URL+"/api/pipeline/run-manual", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n := o.ManualCalls(); n != 1 {
		t.Fatalf("RunManual calls = %d", n)
	}
	if body["status"] != entity.RunStatusSuccess || body["records_loaded"] != float64(2) {
		t.Fatalf("unexpected summary: %v", body)
	}
}

func TestStartStopAndStatus(t *testing.T) {
	o := &fakeOrchestrator{config: entity.DefaultScheduleConfig()}
	server := newTestServer(t, o)

	resp, body := doRequest(t, http.MethodPost, server.URL+"/api/scheduler/start", "")
	if resp.StatusCode != http.StatusOK || !o.Running() {
		t.Fatalf("start: status=%d running=%v", resp.StatusCode, o.Running())
	}
	status := body["status"].(map[string]interface{})
	if status["scheduler_running"] != true {
		t.Fatalf("start status body: %v", body)
	}

	_, body = doRequest(t, http.MethodGet, server.URL+"/api/scheduler/status", "")
	if body["scheduler_running"] != true || body["pipeline_state"] != string(entity.StateIdle) {
		t.Fatalf("status body: %v", body)
	}

	resp, _ = doRequest(t, http.MethodPost, server.URL+"/api/scheduler/stop", "")
	if resp.StatusCode != http.StatusOK || o.Running() {
		t.Fatalf("stop: status=%d running=%v", resp.StatusCode, o.Running())
	}
}

func TestUpdateScheduleConfig(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		updateErr  error
		wantStatus int
	}{
		{"valid", `{"schedule_time":"03:30"}`, nil, http.StatusOK},
		{"malformed json", `{"schedule_time":`, nil, http.StatusBadRequest},
		{"invalid value", `{"schedule_time":"25:00"}`, fmt.Errorf("%w: bad time", usecase.ErrInvalidScheduleConfig), http.StatusBadRequest},
		{"storage failure", `{"schedule_time":"03:30"}`, fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fakeOrchestrator{config: entity.DefaultScheduleConfig(), updateErr: tt.updateErr}
			server := newTestServer(t, o)

			resp, body := doRequest(t, http.MethodPost, server.URL+"/api/scheduler/config", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantStatus == http.StatusOK {
				cfg := body["config"].(map[string]interface{})
				if cfg["schedule_time"] != "03:30" {
					t.Fatalf("config not returned: %v", body)
				}
			} else if body["error"] == nil {
				t.Fatalf("missing error message: %v", body)
			}
		})
	}
}

func TestMethodMismatch(t *testing.T) {
	o := &fakeOrchestrator{config: entity.DefaultScheduleConfig()}
	server := newTestServer(t, o)

	resp, _ := doRequest(t, http.MethodGet, server.URL+"/api/pipeline/run-manual", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
	if o.ManualCalls() != 0 {
		t.Fatal("pipeline ran on GET")
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, &fakeOrchestrator{})

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
