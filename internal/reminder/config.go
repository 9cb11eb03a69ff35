package reminder

import (
	"errors"
	"fmt"
	"time"
)

// Config controls which reminders are sent and how often.
type Config struct {
	Enabled               bool `yaml:"enabled"`
	StreakReminders       bool `yaml:"streak_reminders"`
	MotivationalReminders bool `yaml:"motivational_reminders"`

	// Motivational and encouragement reminders only fire between these
	// hours, inclusive, and at most MaxRemindersPerDay times per day.
	ReminderStartHour  int `yaml:"reminder_start_hour"`
	ReminderEndHour    int `yaml:"reminder_end_hour"`
	MaxRemindersPerDay int `yaml:"max_reminders_per_day"`

	// StreakWarningThreshold is the shortest streak worth warning about.
	StreakWarningThreshold int  `yaml:"streak_warning_threshold"`
	SoundEnabled           bool `yaml:"sound_enabled"`
	IntelligentTiming      bool `yaml:"intelligent_timing"`
	AdaptiveFrequency      bool `yaml:"adaptive_frequency"`

	HighActivityScore      int           `yaml:"high_activity_score"`
	MotivationalIdleHours  float64       `yaml:"motivational_idle_hours"`
	EncouragementIdleHours float64       `yaml:"encouragement_idle_hours"`
	EncouragementDelay     time.Duration `yaml:"encouragement_delay"`
	CheckInterval          time.Duration `yaml:"check_interval"`
	EvaluationInterval     time.Duration `yaml:"evaluation_interval"`
	InitialEvaluationDelay time.Duration `yaml:"initial_evaluation_delay"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		StreakReminders:        true,
		MotivationalReminders:  true,
		ReminderStartHour:      8,
		ReminderEndHour:        22,
		MaxRemindersPerDay:     2,
		StreakWarningThreshold: 3,
		SoundEnabled:           true,
		IntelligentTiming:      true,
		AdaptiveFrequency:      true,
		HighActivityScore:      80,
		MotivationalIdleHours:  12,
		EncouragementIdleHours: 3,
		EncouragementDelay:     time.Hour,
		CheckInterval:          time.Hour,
		EvaluationInterval:     24 * time.Hour,
		InitialEvaluationDelay: time.Minute,
	}
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	if c.ReminderStartHour < 0 || c.ReminderStartHour > 23 {
		errs = append(errs, fmt.Errorf("reminder_start_hour %d out of range 0..23", c.ReminderStartHour))
	}
	if c.ReminderEndHour < 0 || c.ReminderEndHour > 23 {
		errs = append(errs, fmt.Errorf("reminder_end_hour %d out of range 0..23", c.ReminderEndHour))
	}
	if c.ReminderStartHour > c.ReminderEndHour {
		errs = append(errs, fmt.Errorf("reminder_start_hour %d is after reminder_end_hour %d", c.ReminderStartHour, c.ReminderEndHour))
	}
	if c.MaxRemindersPerDay < 0 {
		errs = append(errs, errors.New("max_reminders_per_day must not be negative"))
	}
	if c.StreakWarningThreshold < 1 {
		errs = append(errs, errors.New("streak_warning_threshold must be at least 1"))
	}
	if c.HighActivityScore < 0 || c.HighActivityScore > 100 {
		errs = append(errs, fmt.Errorf("high_activity_score %d out of range 0..100", c.HighActivityScore))
	}
	for name, d := range map[string]time.Duration{
		"check_interval":      c.CheckInterval,
		"evaluation_interval": c.EvaluationInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.EncouragementDelay < 0 || c.InitialEvaluationDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) inActiveHours(hour int) bool {
	return hour >= c.ReminderStartHour && hour <= c.ReminderEndHour
}
