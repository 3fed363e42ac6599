// internal/analytics/trend.go
package analytics

import (
	"time"

	"jobtracker/internal/models"
)

type WeekBucket struct {
	WeekStart    time.Time `json:"week_start"`
	Applications int       `json:"applications"`
	Responses    int       `json:"responses"`
}

type Trend struct {
	Weeks []WeekBucket `json:"weeks"`
	// Change is the week-over-week percentage change in applications
	// between the two most recent weeks.
	Change float64 `json:"change"`
}

// WeeklyTrend buckets the trailing TrendWeeks Monday-start weeks, oldest
// first. The current week is the last bucket.
func WeeklyTrend(jobs []models.Job, now time.Time) Trend {
	current := WeekStart(now)
	weeks := make([]WeekBucket, TrendWeeks)
	for i := range weeks {
		weeks[i].WeekStart = current.AddDate(0, 0, -7*(TrendWeeks-1-i))
	}

	for _, j := range jobs {
		for i := range weeks {
			from := weeks[i].WeekStart
			to := from.AddDate(0, 0, 7)
			if within(j.AppliedDate, from, to) {
				weeks[i].Applications++
			}
			if j.Status.Responded() && inRange(j.UpdatedAt, from, to) {
				weeks[i].Responses++
			}
		}
	}

	this := weeks[TrendWeeks-1].Applications
	last := weeks[TrendWeeks-2].Applications
	return Trend{Weeks: weeks, Change: weekChange(this, last)}
}

func weekChange(this, last int) float64 {
	if last == 0 {
		if this > 0 {
			return 100
		}
		return 0
	}
	return round1(float64(this-last) / float64(last) * 100)
}
