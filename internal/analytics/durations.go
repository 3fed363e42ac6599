// internal/analytics/durations.go
package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"jobtracker/internal/models"
)

// Average is a mean number of days over Samples observations.
type Average struct {
	Days    float64
	Samples int
}

func (a Average) Defined() bool { return a.Samples > 0 }

// String renders "N/A" when nothing was observed.
func (a Average) String() string {
	if !a.Defined() {
		return "N/A"
	}
	return fmt.Sprintf("%.1f days", a.Days)
}

func (a Average) MarshalJSON() ([]byte, error) {
	var days *float64
	if a.Defined() {
		d := a.Days
		days = &d
	}
	return json.Marshal(struct {
		Days    *float64 `json:"days"`
		Samples int      `json:"samples"`
		Display string   `json:"display"`
	}{days, a.Samples, a.String()})
}

type Durations struct {
	SaveToApply     Average `json:"save_to_apply"`
	ApplyToResponse Average `json:"apply_to_response"`
	ApplyToOffer    Average `json:"apply_to_offer"`
}

// StageDurations averages the time spent between lifecycle stages.
// Negative spans (clock skew, back-dated applied dates) are skipped.
func StageDurations(jobs []models.Job) Durations {
	var saveApply, applyResp, applyOffer mean
	for _, j := range jobs {
		if j.AppliedDate == nil {
			continue
		}
		saveApply.add(j.CreatedAt, *j.AppliedDate)
		if j.Status.Responded() {
			applyResp.add(*j.AppliedDate, j.UpdatedAt)
		}
		if j.Status.Offered() {
			applyOffer.add(*j.AppliedDate, j.UpdatedAt)
		}
	}
	return Durations{
		SaveToApply:     saveApply.average(),
		ApplyToResponse: applyResp.average(),
		ApplyToOffer:    applyOffer.average(),
	}
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(from, to time.Time) {
	d := to.Sub(from)
	if d < 0 {
		return
	}
	m.sum += d.Hours() / 24
	m.n++
}

func (m mean) average() Average {
	if m.n == 0 {
		return Average{}
	}
	return Average{Days: round1(m.sum / float64(m.n)), Samples: m.n}
}
