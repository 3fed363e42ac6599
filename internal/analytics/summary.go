// internal/analytics/summary.go
package analytics

import (
	"sort"
	"time"

	"jobtracker/internal/models"
)

type SummaryReport struct {
	Total        int     `json:"total"`
	Active       int     `json:"active"`
	Applied      int     `json:"applied"`
	Responded    int     `json:"responded"`
	Interviewing int     `json:"interviewing"`
	Offers       int     `json:"offers"`
	ThisWeek     int     `json:"applied_this_week"`
	ResponseRate float64 `json:"response_rate"`
	OfferRate    float64 `json:"offer_rate"`
}

// Summary aggregates headline counts. Rates are relative to jobs past saved.
func Summary(jobs []models.Job, now time.Time) SummaryReport {
	var r SummaryReport
	week := WeekStart(now)
	for _, j := range jobs {
		r.Total++
		if !j.Status.Terminal() {
			r.Active++
		}
		if j.Status != models.StatusSaved {
			r.Applied++
		}
		if j.Status.Responded() {
			r.Responded++
		}
		if j.Status.Interviewing() {
			r.Interviewing++
		}
		if j.Status.Offered() {
			r.Offers++
		}
		if within(j.AppliedDate, week, week.AddDate(0, 0, 7)) {
			r.ThisWeek++
		}
	}
	r.ResponseRate = percent(r.Responded, r.Applied)
	r.OfferRate = percent(r.Offers, r.Applied)
	return r
}

// Report bundles every job-derived view.
type Report struct {
	Summary   SummaryReport `json:"summary"`
	Funnel    []FunnelStage `json:"funnel"`
	Breakdown []StatusCount `json:"status_breakdown"`
	Trend     Trend         `json:"weekly_trend"`
	Durations Durations     `json:"durations"`
}

func Build(jobs []models.Job, now time.Time) Report {
	return Report{
		Summary:   Summary(jobs, now),
		Funnel:    Funnel(jobs),
		Breakdown: StatusBreakdown(jobs),
		Trend:     WeeklyTrend(jobs, now),
		Durations: StageDurations(jobs),
	}
}

type UpcomingAction struct {
	JobID      string    `json:"job_id"`
	Company    string    `json:"company"`
	Title      string    `json:"title"`
	NextAction string    `json:"next_action"`
	Due        time.Time `json:"due"`
	Overdue    bool      `json:"overdue"`
}

// UpcomingActions lists open jobs whose next action is due before
// now+horizon, earliest first, so overdue items lead.
func UpcomingActions(jobs []models.Job, now time.Time, horizon time.Duration) []UpcomingAction {
	limit := now.Add(horizon)
	out := make([]UpcomingAction, 0)
	for _, j := range jobs {
		if j.NextActionDate == nil || j.Status.Terminal() || j.NextActionDate.After(limit) {
			continue
		}
		out = append(out, UpcomingAction{
			JobID:      j.ID,
			Company:    j.Company,
			Title:      j.Title,
			NextAction: j.NextAction,
			Due:        *j.NextActionDate,
			Overdue:    j.NextActionDate.Before(now),
		})
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Due.Before(out[k].Due) })
	return out
}
