package repository

import (
	"context"

	"ecovision-etl/internal/domain/entity"
)

// Notifier delivers an alert for a scheduled execution that exhausted its retries
type Notifier interface {
	NotifyFailure(ctx context.Context, record *entity.ExecutionRecord) error
}
