package repository

import (
	"context"
	"fmt"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/pkg/logger"
	"ecovision-etl/templates"

	"github.com/slack-go/slack"
)

// SlackNotifier posts failure alerts to a Slack channel
type SlackNotifier struct {
	api       *slack.Client
	channelID string
	logger    logger.Logger
}

// NewSlackNotifier creates a Slack notifier
func NewSlackNotifier(api *slack.Client, channelID string, logger logger.Logger) *SlackNotifier {
	return &SlackNotifier{
		api:       api,
		channelID: channelID,
		logger:    logger,
	}
}

// NotifyFailure posts the rendered alert
func (n *SlackNotifier) NotifyFailure(ctx context.Context, record *entity.ExecutionRecord) error {
	msg, err := templates.RenderFailureAlert(record)
	if err != nil {
		return err
	}

	_, ts, err := n.api.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(msg, false))
	if err != nil {
		return fmt.Errorf("failed to post slack alert: %w", err)
	}

	n.logger.Info("Slack alert sent",
		"executionID", record.ExecutionID,
		"channel", n.channelID,
		"ts", ts)
	return nil
}
