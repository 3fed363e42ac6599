// internal/models/profile.go
package models

import "time"

// UserProfile is the per-user singleton behind the profile form.
type UserProfile struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id,omitempty"`
	FullName        string    `json:"full_name,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Location        string    `json:"location,omitempty"`
	LinkedInURL     string    `json:"linkedin_url,omitempty"`
	PortfolioURL    string    `json:"portfolio_url,omitempty"`
	TargetRoles     []string  `json:"target_roles,omitempty"`
	TargetSalaryMin *int      `json:"target_salary_min,omitempty"`
	TargetSalaryMax *int      `json:"target_salary_max,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	ResumeText      string    `json:"resume_text,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	CareerGoals     string    `json:"career_goals,omitempty"`
	Achievements    string    `json:"achievements,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProfileUpdate is a partial profile edit.
type ProfileUpdate struct {
	FullName        *string   `json:"full_name,omitempty"`
	Email           *string   `json:"email,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	Location        *string   `json:"location,omitempty"`
	LinkedInURL     *string   `json:"linkedin_url,omitempty"`
	PortfolioURL    *string   `json:"portfolio_url,omitempty"`
	TargetRoles     *[]string `json:"target_roles,omitempty"`
	TargetSalaryMin *int      `json:"target_salary_min,omitempty"`
	TargetSalaryMax *int      `json:"target_salary_max,omitempty"`
	Skills          *[]string `json:"skills,omitempty"`
	ResumeText      *string   `json:"resume_text,omitempty"`
	Summary         *string   `json:"summary,omitempty"`
	CareerGoals     *string   `json:"career_goals,omitempty"`
	Achievements    *string   `json:"achievements,omitempty"`
}

// Apply merges u over p and stamps UpdatedAt.
func (u ProfileUpdate) Apply(p UserProfile, now time.Time) UserProfile {
	setString(&p.FullName, u.FullName)
	setString(&p.Email, u.Email)
	setString(&p.Phone, u.Phone)
	setString(&p.Location, u.Location)
	setString(&p.LinkedInURL, u.LinkedInURL)
	setString(&p.PortfolioURL, u.PortfolioURL)
	setString(&p.ResumeText, u.ResumeText)
	setString(&p.Summary, u.Summary)
	setString(&p.CareerGoals, u.CareerGoals)
	setString(&p.Achievements, u.Achievements)
	if u.TargetRoles != nil {
		p.TargetRoles = append([]string(nil), (*u.TargetRoles)...)
	}
	if u.Skills != nil {
		p.Skills = append([]string(nil), (*u.Skills)...)
	}
	if u.TargetSalaryMin != nil {
		v := *u.TargetSalaryMin
		p.TargetSalaryMin = &v
	}
	if u.TargetSalaryMax != nil {
		v := *u.TargetSalaryMax
		p.TargetSalaryMax = &v
	}
	p.UpdatedAt = now
	return p
}

// Clone returns a copy that shares no slices with p.
func (p UserProfile) Clone() UserProfile {
	p.TargetRoles = append([]string(nil), p.TargetRoles...)
	p.Skills = append([]string(nil), p.Skills...)
	return p
}
