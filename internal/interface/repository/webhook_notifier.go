package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/pkg/logger"
	"ecovision-etl/templates"
)

// WebhookNotifier posts failure alerts as JSON to an HTTP endpoint
type WebhookNotifier struct {
	logger      logger.Logger
	url         string
	bearerToken string
	client      *http.Client
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(url, bearerToken string, logger logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		logger:      logger,
		url:         url,
		bearerToken: bearerToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type webhookAlert struct {
	Subject   string                  `json:"subject"`
	Text      string                  `json:"text"`
	Execution *entity.ExecutionRecord `json:"execution"`
}

// NotifyFailure sends the alert and expects a 2xx answer
func (n *WebhookNotifier) NotifyFailure(ctx context.Context, record *entity.ExecutionRecord) error {
	text, err := templates.RenderFailureAlert(record)
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(webhookAlert{
		Subject:   templates.FailureAlertSubject(record),
		Text:      text,
		Execution: record,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.bearerToken)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return fmt.Errorf("alert webhook returned status %d: %v", resp.StatusCode, errorBody)
	}

	n.logger.Info("Webhook alert sent", "executionID", record.ExecutionID, "status", resp.StatusCode)
	return nil
}
