package engine

import "habitquest/internal/state"

// Achievement represents a badge the player can earn.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Earned      bool
}

// AchievementChecker calculates which achievements the player has earned.
type AchievementChecker struct {
	doc        state.Document
	bestStreak int
}

func NewAchievementChecker(doc state.Document, bestStreak int) *AchievementChecker {
	return &AchievementChecker{doc: doc, bestStreak: bestStreak}
}

// GetAchievements returns all achievements with their earned status.
func (c *AchievementChecker) GetAchievements() []Achievement {
	return []Achievement{
		// Level milestones
		c.levelAchievement("first_steps", "First Steps", "Reach level 1", "🌱", 1),
		c.levelAchievement("getting_started", "Getting Started", "Reach level 3", "🌿", 3),
		c.levelAchievement("on_the_path", "On the Path", "Reach level 5", "🌳", 5),
		c.levelAchievement("seasoned", "Seasoned", "Reach level 10", "⭐", 10),
		c.levelAchievement("veteran", "Veteran", "Reach level 15", "🌟", 15),
		c.levelAchievement("master", "Master", "Reach level 20", "💫", 20),

		// Completion milestones
		c.completionAchievement("first_check_in", "First Check-in", "Complete a habit once", "✓", 1),
		c.completionAchievement("regular", "Regular", "Log 10 completions", "📋", 10),
		c.completionAchievement("dedicated", "Dedicated", "Log 50 completions", "🏅", 50),
		c.completionAchievement("unstoppable", "Unstoppable", "Log 100 completions", "🏆", 100),

		// Streaks
		c.streakAchievement("warming_up", "Warming Up", "Reach a 3-day streak", "🔥", 3),
		c.streakAchievement("week_strong", "Week Strong", "Reach a 7-day streak", "📅", 7),
		c.streakAchievement("iron_will", "Iron Will", "Reach a 30-day streak", "🛡", 30),

		c.simpleAchievement("habit_former", "Habit Former", "Create a habit", "🔁", len(c.doc.Habits) > 0),
		c.simpleAchievement("treat_yourself", "Treat Yourself", "Redeem a reward", "🎁", len(c.doc.Inventory) > 0),
		c.simpleAchievement("goal_setter", "Goal Setter", "Set a category goal", "🎯", len(c.doc.CategoryGoals) > 0),
	}
}

// CountEarned returns how many achievements have been earned.
func (c *AchievementChecker) CountEarned() int {
	count := 0
	for _, a := range c.GetAchievements() {
		if a.Earned {
			count++
		}
	}
	return count
}

// CountTotal returns total number of achievements.
func (c *AchievementChecker) CountTotal() int {
	return len(c.GetAchievements())
}

func (c *AchievementChecker) earnedSet() map[string]bool {
	out := map[string]bool{}
	for _, a := range c.GetAchievements() {
		if a.Earned {
			out[a.ID] = true
		}
	}
	return out
}

func (c *AchievementChecker) levelAchievement(id, name, desc, icon string, level int) Achievement {
	earned := LevelForTotalXP(c.doc.TotalXP) >= level
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

func (c *AchievementChecker) completionAchievement(id, name, desc, icon string, count int) Achievement {
	done := 0
	for _, h := range c.doc.Habits {
		for _, v := range h.Completions {
			if v {
				done++
			}
		}
	}
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: done >= count}
}

func (c *AchievementChecker) streakAchievement(id, name, desc, icon string, days int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.bestStreak >= days}
}

func (c *AchievementChecker) simpleAchievement(id, name, desc, icon string, earned bool) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

// Achievements returns the player's achievements against the current document.
func (s *Service) Achievements() []Achievement {
	doc := s.docs.Current()
	return NewAchievementChecker(doc, s.bestStreak(doc)).GetAchievements()
}
