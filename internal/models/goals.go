// internal/models/goals.go
package models

import "time"

type WeeklyGoals struct {
	Applications int `json:"applications"`
	Interviews   int `json:"interviews"`
}

type MonthlyGoals struct {
	Applications     int `json:"applications"`
	Interviews       int `json:"interviews"`
	Offers           int `json:"offers"`
	NetworkingEvents int `json:"networking_events"`
}

type Goals struct {
	Weekly        WeeklyGoals  `json:"weekly"`
	Monthly       MonthlyGoals `json:"monthly"`
	NetworkingLog []time.Time  `json:"networking_log,omitempty"`
}

func DefaultGoals() Goals {
	return Goals{
		Weekly:  WeeklyGoals{Applications: 10, Interviews: 2},
		Monthly: MonthlyGoals{Applications: 40, Interviews: 8, Offers: 1, NetworkingEvents: 4},
	}
}

// GoalHistoryEntry is a closed week's snapshot. Entries are never edited.
type GoalHistoryEntry struct {
	WeekStart            time.Time `json:"week_start"`
	WeekEnd              time.Time `json:"week_end"`
	ApplicationsTarget   int       `json:"applications_target"`
	ApplicationsAchieved int       `json:"applications_achieved"`
	InterviewsTarget     int       `json:"interviews_target"`
	InterviewsAchieved   int       `json:"interviews_achieved"`
	Completed            bool      `json:"completed"`
}

type Streaks struct {
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastActivityDate  *time.Time `json:"last_activity_date,omitempty"`
	FirstActivityDate *time.Time `json:"first_activity_date,omitempty"`
	TotalDaysActive   int        `json:"total_days_active"`
}

func (g Goals) Clone() Goals {
	g.NetworkingLog = append([]time.Time(nil), g.NetworkingLog...)
	return g
}

func (s Streaks) Clone() Streaks {
	if s.LastActivityDate != nil {
		t := *s.LastActivityDate
		s.LastActivityDate = &t
	}
	if s.FirstActivityDate != nil {
		t := *s.FirstActivityDate
		s.FirstActivityDate = &t
	}
	return s
}
