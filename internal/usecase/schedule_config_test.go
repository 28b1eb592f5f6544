package usecase

import (
	"errors"
	"math"
	"testing"
	"time"

	"ecovision-etl/internal/domain/entity"
)

func TestMergeScheduleConfig(t *testing.T) {
	base := entity.DefaultScheduleConfig()

	merged, ignored, err := MergeScheduleConfig(base, map[string]interface{}{
		"retry_attempts":    5.0,
		"notify_on_failure": true,
		"custom_cron":       "0 3 * * *",
		"colour":            "green",
	})
	if err != nil {
		t.Fatalf("MergeScheduleConfig failed: %v", err)
	}
	if merged.RetryAttempts != 5 || !merged.NotifyOnFailure {
		t.Fatalf("keys not merged: %+v", merged)
	}
	if merged.CustomCron == nil || *merged.CustomCron != "0 3 * * *" {
		t.Fatalf("custom_cron = %v", merged.CustomCron)
	}
	if merged.ScheduleTime != base.ScheduleTime || merged.MaxExecutionHistory != base.MaxExecutionHistory {
		t.Fatal("untouched keys must keep their values")
	}
	if len(ignored) != 1 || ignored[0] != "colour" {
		t.Fatalf("ignored keys = %v", ignored)
	}

	cleared, _, err := MergeScheduleConfig(merged, map[string]interface{}{"custom_cron": nil})
	if err != nil {
		t.Fatalf("MergeScheduleConfig failed: %v", err)
	}
	if cleared.CustomCron != nil {
		t.Fatal("null custom_cron should clear the value")
	}
}

func TestMergeScheduleConfigKeepsBaseOnError(t *testing.T) {
	base := entity.DefaultScheduleConfig()

	got, _, err := MergeScheduleConfig(base, map[string]interface{}{
		"retry_attempts": 7,
		"schedule_type":  "fortnightly",
	})
	if !errors.Is(err, ErrInvalidScheduleConfig) {
		t.Fatalf("error = %v, want ErrInvalidScheduleConfig", err)
	}
	if got != base {
		t.Fatalf("base modified: %+v", got)
	}
}

func TestValidateScheduleConfig(t *testing.T) {
	valid := entity.DefaultScheduleConfig()
	if err := ValidateScheduleConfig(valid); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	mutations := map[string]func(*entity.ScheduleConfig){
		"zero retries":   func(c *entity.ScheduleConfig) { c.RetryAttempts = 0 },
		"negative delay": func(c *entity.ScheduleConfig) { c.RetryDelayMinutes = -5 },
		"delay too long": func(c *entity.ScheduleConfig) { c.RetryDelayMinutes = MaxRetryDelayMinutes + 1 },
		"huge delay":     func(c *entity.ScheduleConfig) { c.RetryDelayMinutes = math.MaxInt / 60 },
		"zero history":   func(c *entity.ScheduleConfig) { c.MaxExecutionHistory = 0 },
		"zero interval":  func(c *entity.ScheduleConfig) { c.ScheduleInterval = 0 },
		"bad type":       func(c *entity.ScheduleConfig) { c.ScheduleType = "yearly" },
		"bad time":       func(c *entity.ScheduleConfig) { c.ScheduleTime = "2am" },
		"bad day":        func(c *entity.ScheduleConfig) { c.ScheduleDay = "lunes" },
	}
	for name, mutate := range mutations {
		cfg := valid
		mutate(&cfg)
		if err := ValidateScheduleConfig(cfg); !errors.Is(err, ErrInvalidScheduleConfig) {
			t.Fatalf("%s: error = %v", name, err)
		}
	}

	zeroDelay := valid
	zeroDelay.RetryDelayMinutes = 0
	if err := ValidateScheduleConfig(zeroDelay); err != nil {
		t.Fatalf("zero delay should be allowed: %v", err)
	}

	longest := valid
	longest.RetryDelayMinutes = MaxRetryDelayMinutes
	if err := ValidateScheduleConfig(longest); err != nil {
		t.Fatalf("a one day delay should be allowed: %v", err)
	}
	if d := time.Duration(longest.RetryDelayMinutes) * time.Minute; d != 24*time.Hour {
		t.Fatalf("longest delay = %v", d)
	}
}

func TestBuildSchedule(t *testing.T) {
	// a Sunday
	from := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*entity.ScheduleConfig)
		want   time.Time
	}{
		{
			name:   "daily later today",
			mutate: func(c *entity.ScheduleConfig) { c.ScheduleTime = "18:45" },
			want:   time.Date(2025, 6, 15, 18, 45, 0, 0, time.UTC),
		},
		{
			name:   "daily tomorrow",
			mutate: func(c *entity.ScheduleConfig) { c.ScheduleTime = "02:00" },
			want:   time.Date(2025, 6, 16, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "hourly every three",
			mutate: func(c *entity.ScheduleConfig) {
				c.ScheduleType = entity.ScheduleHourly
				c.ScheduleInterval = 3
			},
			want: from.Add(3 * time.Hour),
		},
		{
			name: "weekly",
			mutate: func(c *entity.ScheduleConfig) {
				c.ScheduleType = entity.ScheduleWeekly
				c.ScheduleDay = "Friday"
				c.ScheduleTime = "07:15"
			},
			want: time.Date(2025, 6, 20, 7, 15, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := entity.DefaultScheduleConfig()
			tt.mutate(&cfg)
			schedule, err := BuildSchedule(cfg)
			if err != nil {
				t.Fatalf("BuildSchedule failed: %v", err)
			}
			if got := schedule.Next(from); !got.Equal(tt.want) {
				t.Fatalf("next = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildScheduleNothingScheduled(t *testing.T) {
	disabled := entity.DefaultScheduleConfig()
	disabled.Enabled = false
	schedule, err := BuildSchedule(disabled)
	if schedule != nil || err != nil {
		t.Fatalf("disabled config: schedule=%v err=%v", schedule, err)
	}

	custom := entity.DefaultScheduleConfig()
	custom.ScheduleType = entity.ScheduleCustom
	schedule, err = BuildSchedule(custom)
	if schedule != nil || !errors.Is(err, errCustomSchedule) {
		t.Fatalf("custom config: schedule=%v err=%v", schedule, err)
	}
}
