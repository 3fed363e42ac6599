// internal/analytics/streaks.go
package analytics

import (
	"sort"
	"time"

	"jobtracker/internal/models"
)

// CurrentStreak counts consecutive completed weeks, newest first, stopping
// at the first incomplete week.
func CurrentStreak(history []models.GoalHistoryEntry) int {
	sorted := append([]models.GoalHistoryEntry(nil), history...)
	sort.SliceStable(sorted, func(i, k int) bool {
		return sorted[i].WeekStart.After(sorted[k].WeekStart)
	})

	streak := 0
	for _, e := range sorted {
		if !e.Completed {
			break
		}
		streak++
	}
	return streak
}

// UpdateStreaks recomputes the current streak from goal history and raises
// the longest streak if it was exceeded.
func UpdateStreaks(s models.Streaks, history []models.GoalHistoryEntry) models.Streaks {
	s.CurrentStreak = CurrentStreak(history)
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	return s
}

// RecordActivity marks now's calendar day as active. A second call on the
// same day only refreshes TotalDaysActive.
func RecordActivity(s models.Streaks, now time.Time) models.Streaks {
	today := startOfDay(now)

	switch {
	case s.LastActivityDate == nil:
		s.CurrentStreak = 1
	default:
		switch gap := daysBetween(*s.LastActivityDate, today); {
		case gap <= 0:
		case gap == 1:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	}

	if s.LastActivityDate == nil || today.After(*s.LastActivityDate) {
		last := today
		s.LastActivityDate = &last
	}
	if s.FirstActivityDate == nil {
		first := today
		s.FirstActivityDate = &first
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.TotalDaysActive = daysBetween(*s.FirstActivityDate, today) + 1
	return s
}
