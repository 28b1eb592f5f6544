package entity

// Schedule types
const (
	ScheduleDaily  = "daily"
	ScheduleHourly = "hourly"
	ScheduleWeekly = "weekly"
	ScheduleCustom = "custom"
)

// ScheduleConfig is the orchestrator's persisted configuration
type ScheduleConfig struct {
	Enabled             bool    `json:"enabled"`
	ScheduleType        string  `json:"schedule_type"`
	ScheduleTime        string  `json:"schedule_time"`
	ScheduleInterval    int     `json:"schedule_interval"`
	ScheduleDay         string  `json:"schedule_day"`
	CustomCron          *string `json:"custom_cron"`
	RetryAttempts       int     `json:"retry_attempts"`
	RetryDelayMinutes   int     `json:"retry_delay_minutes"`
	MaxExecutionHistory int     `json:"max_execution_history"`
	NotifyOnFailure     bool    `json:"notify_on_failure"`
}

// DefaultScheduleConfig returns the configuration used for missing keys
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Enabled:             true,
		ScheduleType:        ScheduleDaily,
		ScheduleTime:        "02:00",
		ScheduleInterval:    1,
		ScheduleDay:         "monday",
		RetryAttempts:       3,
		RetryDelayMinutes:   5,
		MaxExecutionHistory: 100,
		NotifyOnFailure:     false,
	}
}
