package repository

import (
	"context"

	"ecovision-etl/internal/domain/entity"
)

// ExecutionHistoryRepository persists the scheduler's bounded execution history
type ExecutionHistoryRepository interface {
	// Append stores a record and discards everything older than the newest keep entries
	Append(ctx context.Context, record *entity.ExecutionRecord, keep int) error
	// Recent returns up to limit records, oldest first
	Recent(ctx context.Context, limit int) ([]*entity.ExecutionRecord, error)
}

// ScheduleConfigRepository loads and saves the scheduler configuration
type ScheduleConfigRepository interface {
	Load(ctx context.Context) (entity.ScheduleConfig, error)
	Save(ctx context.Context, cfg entity.ScheduleConfig) error
}
