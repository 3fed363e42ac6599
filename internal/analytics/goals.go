// internal/analytics/goals.go
package analytics

import (
	"time"

	"jobtracker/internal/models"
)

// Metric is achieved-versus-target for one goal. Percentage is capped at 100.
type Metric struct {
	Achieved   int     `json:"achieved"`
	Target     int     `json:"target"`
	Percentage float64 `json:"percentage"`
}

func newMetric(achieved, target int) Metric {
	p := percent(achieved, target)
	if p > 100 {
		p = 100
	}
	return Metric{Achieved: achieved, Target: target, Percentage: p}
}

func (m Metric) Met() bool { return m.Achieved >= m.Target }

type WeeklyProgressReport struct {
	WeekStart    time.Time `json:"week_start"`
	Applications Metric    `json:"applications"`
	Interviews   Metric    `json:"interviews"`
}

type MonthlyProgressReport struct {
	MonthStart   time.Time `json:"month_start"`
	Applications Metric    `json:"applications"`
	Interviews   Metric    `json:"interviews"`
	Offers       Metric    `json:"offers"`
	Networking   Metric    `json:"networking_events"`
}

type periodCounts struct {
	applications, interviews, offers int
}

// countPeriod counts applications by applied_date and interview/offer
// stages by updated_at inside [from, to).
func countPeriod(jobs []models.Job, from, to time.Time) periodCounts {
	var c periodCounts
	for _, j := range jobs {
		if within(j.AppliedDate, from, to) {
			c.applications++
		}
		if !inRange(j.UpdatedAt, from, to) {
			continue
		}
		if j.Status.Interviewing() {
			c.interviews++
		}
		if j.Status.Offered() {
			c.offers++
		}
	}
	return c
}

func WeeklyProgress(jobs []models.Job, goals models.Goals, now time.Time) WeeklyProgressReport {
	from := WeekStart(now)
	c := countPeriod(jobs, from, from.AddDate(0, 0, 7))
	return WeeklyProgressReport{
		WeekStart:    from,
		Applications: newMetric(c.applications, goals.Weekly.Applications),
		Interviews:   newMetric(c.interviews, goals.Weekly.Interviews),
	}
}

func MonthlyProgress(jobs []models.Job, goals models.Goals, now time.Time) MonthlyProgressReport {
	from := MonthStart(now)
	to := from.AddDate(0, 1, 0)
	c := countPeriod(jobs, from, to)

	networking := 0
	for _, at := range goals.NetworkingLog {
		if inRange(at.In(from.Location()), from, to) {
			networking++
		}
	}

	return MonthlyProgressReport{
		MonthStart:   from,
		Applications: newMetric(c.applications, goals.Monthly.Applications),
		Interviews:   newMetric(c.interviews, goals.Monthly.Interviews),
		Offers:       newMetric(c.offers, goals.Monthly.Offers),
		Networking:   newMetric(networking, goals.Monthly.NetworkingEvents),
	}
}

// CloseWeek snapshots the week starting on weekStart's Monday against the
// current weekly targets.
func CloseWeek(jobs []models.Job, goals models.Goals, weekStart time.Time) models.GoalHistoryEntry {
	from := WeekStart(weekStart)
	to := from.AddDate(0, 0, 7)
	c := countPeriod(jobs, from, to)

	entry := models.GoalHistoryEntry{
		WeekStart:            from,
		WeekEnd:              to.AddDate(0, 0, -1),
		ApplicationsTarget:   goals.Weekly.Applications,
		ApplicationsAchieved: c.applications,
		InterviewsTarget:     goals.Weekly.Interviews,
		InterviewsAchieved:   c.interviews,
	}
	entry.Completed = entry.ApplicationsAchieved >= entry.ApplicationsTarget &&
		entry.InterviewsAchieved >= entry.InterviewsTarget
	return entry
}
