// internal/analytics/funnel.go
package analytics

import (
	"sort"

	"jobtracker/internal/models"
)

// Funnel stage names, in order.
const (
	StageSaved        = "saved"
	StageApplied      = "applied"
	StageInterviewing = "interviewing"
	StageOffer        = "offer"
)

type FunnelStage struct {
	Stage      string  `json:"stage"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Funnel returns the four cumulative stages. Each percentage is relative to
// the previous stage; the first stage is 100 whenever any job exists.
func Funnel(jobs []models.Job) []FunnelStage {
	var applied, interviewing, offered int
	for _, j := range jobs {
		if j.Status != models.StatusSaved {
			applied++
		}
		if j.Status.Interviewing() {
			interviewing++
		}
		if j.Status.Offered() {
			offered++
		}
	}

	total := len(jobs)
	return []FunnelStage{
		{Stage: StageSaved, Count: total, Percentage: percent(total, total)},
		{Stage: StageApplied, Count: applied, Percentage: percent(applied, total)},
		{Stage: StageInterviewing, Count: interviewing, Percentage: percent(interviewing, applied)},
		{Stage: StageOffer, Count: offered, Percentage: percent(offered, interviewing)},
	}
}

type StatusCount struct {
	Status     models.Status `json:"status"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"`
}

// StatusBreakdown counts jobs per status, largest first. Statuses with no
// jobs are left out; ties keep lifecycle order.
func StatusBreakdown(jobs []models.Job) []StatusCount {
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, j := range jobs {
		counts[j.Status]++
	}

	out := make([]StatusCount, 0, len(counts))
	for _, s := range models.Statuses {
		if n := counts[s]; n > 0 {
			out = append(out, StatusCount{Status: s, Count: n, Percentage: percent(n, len(jobs))})
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Count > out[k].Count })
	return out
}
