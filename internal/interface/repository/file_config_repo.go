package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/pkg/logger"
)

// FileScheduleConfigRepository stores the scheduler config as a JSON file
type FileScheduleConfigRepository struct {
	path   string
	logger logger.Logger
	mu     sync.Mutex
}

// NewFileScheduleConfigRepository creates a file backed config repository
func NewFileScheduleConfigRepository(path string, logger logger.Logger) *FileScheduleConfigRepository {
	return &FileScheduleConfigRepository{
		path:   path,
		logger: logger,
	}
}

// Load reads the config, filling missing keys with defaults. A missing file
// is created with the defaults.
func (r *FileScheduleConfigRepository) Load(ctx context.Context) (entity.ScheduleConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := entity.DefaultScheduleConfig()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("Schedule config not found, writing defaults", "path", r.path)
		if err := writeJSONFile(r.path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read schedule config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return entity.DefaultScheduleConfig(), fmt.Errorf("failed to decode schedule config: %w", err)
	}
	return cfg, nil
}

// Save rewrites the whole config file
func (r *FileScheduleConfigRepository) Save(ctx context.Context, cfg entity.ScheduleConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeJSONFile(r.path, cfg)
}
