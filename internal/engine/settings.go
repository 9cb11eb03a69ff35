package engine

import (
	"fmt"
	"time"

	"habitquest/internal/state"
)

func (s *Service) Settings() state.Settings {
	return s.docs.Current().Settings
}

// UpdateSettings applies fn to a copy of the settings and saves the result.
func (s *Service) UpdateSettings(fn func(*state.Settings)) (state.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.docs.Current().Settings
	fn(&settings)
	if err := s.docs.Save(state.Patch{Settings: &settings}); err != nil {
		return state.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

// SetRemindersPaused records the pause flag so it survives restarts.
func (s *Service) SetRemindersPaused(paused bool) error {
	_, err := s.UpdateSettings(func(st *state.Settings) {
		st.RemindersPaused = paused
		if !paused {
			st.SnoozedUntil = nil
		}
	})
	return err
}

// SnoozeReminders records a snooze deadline of now+d.
func (s *Service) SnoozeReminders(d time.Duration) (time.Time, error) {
	until := s.now().Add(d)
	_, err := s.UpdateSettings(func(st *state.Settings) {
		st.SnoozedUntil = &until
	})
	return until, err
}
