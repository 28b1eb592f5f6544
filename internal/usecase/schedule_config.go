package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecovision-etl/internal/domain/entity"

	"github.com/robfig/cron/v3"
)

// ErrInvalidScheduleConfig is returned when a config update fails validation
var ErrInvalidScheduleConfig = errors.New("invalid schedule config")

// MaxRetryDelayMinutes caps the wait between scheduled attempts at one day
const MaxRetryDelayMinutes = 24 * 60

// errCustomSchedule marks a custom cron config, which is accepted but never scheduled
var errCustomSchedule = errors.New("custom cron schedules are not supported")

var scheduleConfigKeys = map[string]struct{}{
	"enabled":               {},
	"schedule_type":         {},
	"schedule_time":         {},
	"schedule_interval":     {},
	"schedule_day":          {},
	"custom_cron":           {},
	"retry_attempts":        {},
	"retry_delay_minutes":   {},
	"max_execution_history": {},
	"notify_on_failure":     {},
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// MergeScheduleConfig overlays the known keys of partial onto base and
// validates the result. Unknown keys are returned so callers can report them.
// On error base is returned unchanged.
func MergeScheduleConfig(base entity.ScheduleConfig, partial map[string]interface{}) (entity.ScheduleConfig, []string, error) {
	known := make(map[string]interface{}, len(partial))
	var ignored []string
	for k, v := range partial {
		if _, ok := scheduleConfigKeys[k]; !ok {
			ignored = append(ignored, k)
			continue
		}
		known[k] = v
	}

	data, err := json.Marshal(known)
	if err != nil {
		return base, ignored, fmt.Errorf("%w: %v", ErrInvalidScheduleConfig, err)
	}
	merged := base
	if err := json.Unmarshal(data, &merged); err != nil {
		return base, ignored, fmt.Errorf("%w: %v", ErrInvalidScheduleConfig, err)
	}
	if err := ValidateScheduleConfig(merged); err != nil {
		return base, ignored, err
	}
	return merged, ignored, nil
}

// ValidateScheduleConfig checks ranges and formats of every field
func ValidateScheduleConfig(cfg entity.ScheduleConfig) error {
	switch cfg.ScheduleType {
	case entity.ScheduleDaily, entity.ScheduleHourly, entity.ScheduleWeekly, entity.ScheduleCustom:
	default:
		return fmt.Errorf("%w: unknown schedule_type %q", ErrInvalidScheduleConfig, cfg.ScheduleType)
	}
	if _, _, err := parseClock(cfg.ScheduleTime); err != nil {
		return fmt.Errorf("%w: schedule_time %q must be HH:MM", ErrInvalidScheduleConfig, cfg.ScheduleTime)
	}
	if _, ok := weekdays[strings.ToLower(cfg.ScheduleDay)]; !ok {
		return fmt.Errorf("%w: unknown schedule_day %q", ErrInvalidScheduleConfig, cfg.ScheduleDay)
	}
	if cfg.ScheduleInterval < 1 {
		return fmt.Errorf("%w: schedule_interval must be at least 1", ErrInvalidScheduleConfig)
	}
	if cfg.RetryAttempts < 1 {
		return fmt.Errorf("%w: retry_attempts must be at least 1", ErrInvalidScheduleConfig)
	}
	if cfg.RetryDelayMinutes < 0 || cfg.RetryDelayMinutes > MaxRetryDelayMinutes {
		return fmt.Errorf("%w: retry_delay_minutes must be between 0 and %d", ErrInvalidScheduleConfig, MaxRetryDelayMinutes)
	}
	if cfg.MaxExecutionHistory < 1 {
		return fmt.Errorf("%w: max_execution_history must be at least 1", ErrInvalidScheduleConfig)
	}
	return nil
}

// BuildSchedule turns the config into a cron schedule. A nil schedule with
// nil error means nothing is scheduled.
func BuildSchedule(cfg entity.ScheduleConfig) (cron.Schedule, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.ScheduleType {
	case entity.ScheduleDaily:
		hour, minute, err := parseClock(cfg.ScheduleTime)
		if err != nil {
			return nil, err
		}
		return cronParser.Parse(fmt.Sprintf("%d %d * * *", minute, hour))
	case entity.ScheduleHourly:
		interval := cfg.ScheduleInterval
		if interval < 1 {
			interval = 1
		}
		return cron.Every(time.Duration(interval) * time.Hour), nil
	case entity.ScheduleWeekly:
		hour, minute, err := parseClock(cfg.ScheduleTime)
		if err != nil {
			return nil, err
		}
		day, ok := weekdays[strings.ToLower(cfg.ScheduleDay)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", cfg.ScheduleDay)
		}
		return cronParser.Parse(fmt.Sprintf("%d %d * * %d", minute, hour, day))
	case entity.ScheduleCustom:
		return nil, errCustomSchedule
	default:
		return nil, fmt.Errorf("unknown schedule type %q", cfg.ScheduleType)
	}
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
