// internal/models/job.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle stage of a tracked application.
type Status string

const (
	StatusSaved     Status = "saved"
	StatusApplied   Status = "applied"
	StatusScreening Status = "screening"
	StatusInterview Status = "interview"
	StatusTechnical Status = "technical"
	StatusFinal     Status = "final"
	StatusOffer     Status = "offer"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusSaved,
	StatusApplied,
	StatusScreening,
	StatusInterview,
	StatusTechnical,
	StatusFinal,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
}

// ParseStatus normalizes s and reports whether it names a known status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Rank is the position of s in Statuses, or -1.
func (s Status) Rank() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusWithdrawn
}

// Responded reports whether the employer has reacted to the application
// in any way (screening through rejected).
func (s Status) Responded() bool {
	switch s {
	case StatusScreening, StatusInterview, StatusTechnical, StatusFinal,
		StatusOffer, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Interviewing covers the interview loop and anything that came out of it.
func (s Status) Interviewing() bool {
	switch s {
	case StatusInterview, StatusTechnical, StatusFinal, StatusOffer, StatusAccepted:
		return true
	}
	return false
}

func (s Status) Offered() bool {
	return s == StatusOffer || s == StatusAccepted
}

var JobTypes = []string{"full-time", "part-time", "contract", "internship", "freelance", "remote", "hybrid", "onsite"}

// Job is a tracked application. JSON names match the remote column names.
type Job struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id,omitempty"`
	Company        string     `json:"company"`
	Title          string     `json:"title"`
	Location       string     `json:"location,omitempty"`
	JobURL         string     `json:"job_url,omitempty"`
	CompanyWebsite string     `json:"company_website,omitempty"`
	JobType        string     `json:"job_type,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SalaryCurrency string     `json:"salary_currency,omitempty"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	AppliedDate    *time.Time `json:"applied_date,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	InterviewNotes string     `json:"interview_notes,omitempty"`
	NextAction     string     `json:"next_action,omitempty"`
	NextActionDate *time.Time `json:"next_action_date,omitempty"`
	RecruiterName  string     `json:"recruiter_name,omitempty"`
	RecruiterEmail string     `json:"recruiter_email,omitempty"`
	HiringManager  string     `json:"hiring_manager,omitempty"`
	Referral       string     `json:"referral,omitempty"`
}

// JobInput is what the create form submits.
type JobInput struct {
	Company        string     `json:"company"`
	Title          string     `json:"title"`
	Location       string     `json:"location,omitempty"`
	JobURL         string     `json:"job_url,omitempty"`
	CompanyWebsite string     `json:"company_website,omitempty"`
	JobType        string     `json:"job_type,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SalaryCurrency string     `json:"salary_currency,omitempty"`
	Status         Status     `json:"status,omitempty"`
	AppliedDate    *time.Time `json:"applied_date,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	InterviewNotes string     `json:"interview_notes,omitempty"`
	NextAction     string     `json:"next_action,omitempty"`
	NextActionDate *time.Time `json:"next_action_date,omitempty"`
	RecruiterName  string     `json:"recruiter_name,omitempty"`
	RecruiterEmail string     `json:"recruiter_email,omitempty"`
	HiringManager  string     `json:"hiring_manager,omitempty"`
	Referral       string     `json:"referral,omitempty"`
}

// NewJob builds a job from input. Identity and timestamps are the caller's.
func NewJob(id, userID string, in JobInput, now time.Time) Job {
	status := in.Status
	if status == "" {
		status = StatusSaved
	}
	j := Job{
		ID:             id,
		UserID:         userID,
		Company:        strings.TrimSpace(in.Company),
		Title:          strings.TrimSpace(in.Title),
		Location:       in.Location,
		JobURL:         in.JobURL,
		CompanyWebsite: in.CompanyWebsite,
		JobType:        in.JobType,
		SalaryMin:      in.SalaryMin,
		SalaryMax:      in.SalaryMax,
		SalaryCurrency: in.SalaryCurrency,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
		AppliedDate:    in.AppliedDate,
		Notes:          in.Notes,
		InterviewNotes: in.InterviewNotes,
		NextAction:     in.NextAction,
		NextActionDate: in.NextActionDate,
		RecruiterName:  in.RecruiterName,
		RecruiterEmail: in.RecruiterEmail,
		HiringManager:  in.HiringManager,
		Referral:       in.Referral,
	}
	if j.AppliedDate == nil && status != StatusSaved && status != StatusWithdrawn {
		applied := now
		j.AppliedDate = &applied
	}
	return j
}

// JobUpdate is a partial edit. Nil fields are left untouched.
type JobUpdate struct {
	Company        *string    `json:"company,omitempty"`
	Title          *string    `json:"title,omitempty"`
	Location       *string    `json:"location,omitempty"`
	JobURL         *string    `json:"job_url,omitempty"`
	CompanyWebsite *string    `json:"company_website,omitempty"`
	JobType        *string    `json:"job_type,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SalaryCurrency *string    `json:"salary_currency,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	AppliedDate    *time.Time `json:"applied_date,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	InterviewNotes *string    `json:"interview_notes,omitempty"`
	NextAction     *string    `json:"next_action,omitempty"`
	NextActionDate *time.Time `json:"next_action_date,omitempty"`
	RecruiterName  *string    `json:"recruiter_name,omitempty"`
	RecruiterEmail *string    `json:"recruiter_email,omitempty"`
	HiringManager  *string    `json:"hiring_manager,omitempty"`
	Referral       *string    `json:"referral,omitempty"`
}

// Apply returns a copy of j with u applied and UpdatedAt set to now.
func (u JobUpdate) Apply(j Job, now time.Time) Job {
	setString(&j.Company, u.Company)
	setString(&j.Title, u.Title)
	setString(&j.Location, u.Location)
	setString(&j.JobURL, u.JobURL)
	setString(&j.CompanyWebsite, u.CompanyWebsite)
	setString(&j.JobType, u.JobType)
	setString(&j.SalaryCurrency, u.SalaryCurrency)
	setString(&j.Notes, u.Notes)
	setString(&j.InterviewNotes, u.InterviewNotes)
	setString(&j.NextAction, u.NextAction)
	setString(&j.RecruiterName, u.RecruiterName)
	setString(&j.RecruiterEmail, u.RecruiterEmail)
	setString(&j.HiringManager, u.HiringManager)
	setString(&j.Referral, u.Referral)
	if u.SalaryMin != nil {
		v := *u.SalaryMin
		j.SalaryMin = &v
	}
	if u.SalaryMax != nil {
		v := *u.SalaryMax
		j.SalaryMax = &v
	}
	if u.AppliedDate != nil {
		v := *u.AppliedDate
		j.AppliedDate = &v
	}
	if u.NextActionDate != nil {
		v := *u.NextActionDate
		j.NextActionDate = &v
	}
	if u.Status != nil {
		j.Status = *u.Status
		if j.AppliedDate == nil && j.Status != StatusSaved && j.Status != StatusWithdrawn {
			applied := now
			j.AppliedDate = &applied
		}
	}
	j.UpdatedAt = now
	return j
}

// Columns maps the present fields to their remote column names.
func (u JobUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	put := func(name string, present bool, v interface{}) {
		if present {
			cols[name] = v
		}
	}
	put("company", u.Company != nil, deref(u.Company))
	put("title", u.Title != nil, deref(u.Title))
	put("location", u.Location != nil, deref(u.Location))
	put("job_url", u.JobURL != nil, deref(u.JobURL))
	put("company_website", u.CompanyWebsite != nil, deref(u.CompanyWebsite))
	put("job_type", u.JobType != nil, deref(u.JobType))
	put("salary_currency", u.SalaryCurrency != nil, deref(u.SalaryCurrency))
	put("notes", u.Notes != nil, deref(u.Notes))
	put("interview_notes", u.InterviewNotes != nil, deref(u.InterviewNotes))
	put("next_action", u.NextAction != nil, deref(u.NextAction))
	put("recruiter_name", u.RecruiterName != nil, deref(u.RecruiterName))
	put("recruiter_email", u.RecruiterEmail != nil, deref(u.RecruiterEmail))
	put("hiring_manager", u.HiringManager != nil, deref(u.HiringManager))
	put("referral", u.Referral != nil, deref(u.Referral))
	if u.SalaryMin != nil {
		cols["salary_min"] = *u.SalaryMin
	}
	if u.SalaryMax != nil {
		cols["salary_max"] = *u.SalaryMax
	}
	if u.Status != nil {
		cols["status"] = string(*u.Status)
	}
	if u.AppliedDate != nil {
		cols["applied_date"] = *u.AppliedDate
	}
	if u.NextActionDate != nil {
		cols["next_action_date"] = *u.NextActionDate
	}
	return cols
}

func (u JobUpdate) Empty() bool {
	return len(u.Columns()) == 0
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
