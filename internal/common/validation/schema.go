// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"sort"

	apperrors "jobtracker/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names.
const (
	JobInput      = "job_input"
	JobUpdate     = "job_update"
	ProfileUpdate = "profile_update"
	WeeklyGoals   = "weekly_goals"
	MonthlyGoals  = "monthly_goals"
	Resume        = "resume"
	CoverLetter   = "cover_letter"
	PortfolioLink = "portfolio_link"
	Certificate   = "certificate"
)

const statusEnum = `["saved","applied","screening","interview","technical","final","offer","accepted","rejected","withdrawn"]`
const jobTypeEnum = `["full-time","part-time","contract","internship","freelance","remote","hybrid","onsite"]`

const jobProperties = `{
	"company":         {"type": "string", "minLength": 1, "maxLength": 200, "pattern": "\\S"},
	"title":           {"type": "string", "minLength": 1, "maxLength": 200, "pattern": "\\S"},
	"location":        {"type": "string", "maxLength": 200},
	"job_url":         {"type": "string", "format": "uri"},
	"company_website": {"type": "string", "format": "uri"},
	"job_type":        {"type": "string", "enum": ` + jobTypeEnum + `},
	"salary_min":      {"type": "integer", "minimum": 0},
	"salary_max":      {"type": "integer", "minimum": 0},
	"salary_currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
	"status":          {"type": "string", "enum": ` + statusEnum + `},
	"applied_date":    {"type": "string", "format": "date-time"},
	"notes":           {"type": "string", "maxLength": 20000},
	"interview_notes": {"type": "string", "maxLength": 20000},
	"next_action":     {"type": "string", "maxLength": 500},
	"next_action_date":{"type": "string", "format": "date-time"},
	"recruiter_name":  {"type": "string", "maxLength": 200},
	"recruiter_email": {"type": "string", "format": "email"},
	"hiring_manager":  {"type": "string", "maxLength": 200},
	"referral":        {"type": "string", "maxLength": 200}
}`

var rawSchemas = map[string]string{
	JobInput: `{
		"type": "object",
		"required": ["company", "title"],
		"properties": ` + jobProperties + `
	}`,
	JobUpdate: `{
		"type": "object",
		"properties": ` + jobProperties + `
	}`,
	ProfileUpdate: `{
		"type": "object",
		"properties": {
			"full_name":         {"type": "string", "maxLength": 200},
			"email":             {"type": "string", "format": "email"},
			"phone":             {"type": "string", "maxLength": 50},
			"location":          {"type": "string", "maxLength": 200},
			"linkedin_url":      {"type": "string", "format": "uri"},
			"portfolio_url":     {"type": "string", "format": "uri"},
			"target_roles":      {"type": "array", "items": {"type": "string", "minLength": 1}},
			"target_salary_min": {"type": "integer", "minimum": 0},
			"target_salary_max": {"type": "integer", "minimum": 0},
			"skills":            {"type": "array", "items": {"type": "string", "minLength": 1}},
			"resume_text":       {"type": "string"},
			"summary":           {"type": "string", "maxLength": 5000},
			"career_goals":      {"type": "string", "maxLength": 5000},
			"achievements":      {"type": "string", "maxLength": 5000}
		}
	}`,
	WeeklyGoals: `{
		"type": "object",
		"required": ["applications", "interviews"],
		"properties": {
			"applications": {"type": "integer", "minimum": 0, "maximum": 1000},
			"interviews":   {"type": "integer", "minimum": 0, "maximum": 1000}
		}
	}`,
	MonthlyGoals: `{
		"type": "object",
		"required": ["applications", "interviews", "offers", "networking_events"],
		"properties": {
			"applications":      {"type": "integer", "minimum": 0, "maximum": 5000},
			"interviews":        {"type": "integer", "minimum": 0, "maximum": 5000},
			"offers":            {"type": "integer", "minimum": 0, "maximum": 1000},
			"networking_events": {"type": "integer", "minimum": 0, "maximum": 1000}
		}
	}`,
	Resume: `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name":     {"type": "string", "minLength": 1, "maxLength": 200},
			"file_url": {"type": "string", "format": "uri"}
		}
	}`,
	CoverLetter: `{
		"type": "object",
		"required": ["name", "content"],
		"properties": {
			"name":    {"type": "string", "minLength": 1, "maxLength": 200},
			"content": {"type": "string", "minLength": 1}
		}
	}`,
	PortfolioLink: `{
		"type": "object",
		"required": ["title", "url"],
		"properties": {
			"title": {"type": "string", "minLength": 1, "maxLength": 200},
			"url":   {"type": "string", "format": "uri"}
		}
	}`,
	Certificate: `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name":           {"type": "string", "minLength": 1, "maxLength": 200},
			"credential_url": {"type": "string", "format": "uri"}
		}
	}`,
}

var compiled = map[string]*gojsonschema.Schema{}

func init() {
	for name, raw := range rawSchemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("validation: compile schema %s: %v", name, err))
		}
		compiled[name] = s
	}
}

// Validate checks v (any JSON-marshalable value) against the named schema.
// It returns nil or a VALIDATION_FAILED StandardError listing every field.
func Validate(schema string, v interface{}) error {
	s, ok := compiled[schema]
	if !ok {
		return fmt.Errorf("validation: unknown schema %q", schema)
	}

	res, err := s.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return apperrors.NewValidationError([]apperrors.FieldError{{Field: "(root)", Message: err.Error()}})
	}
	if res.Valid() {
		return nil
	}

	fields := make([]apperrors.FieldError, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		field := e.Field()
		if e.Type() == "required" {
			if prop, ok := e.Details()["property"].(string); ok {
				field = prop
			}
		}
		fields = append(fields, apperrors.FieldError{Field: field, Message: e.Description()})
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return apperrors.NewValidationError(fields)
}

// Range reports min > max as a field error on the max field.
func Range(minField, maxField string, min, max *int) *apperrors.FieldError {
	if min == nil || max == nil || *min <= *max {
		return nil
	}
	return &apperrors.FieldError{
		Field:   maxField,
		Message: fmt.Sprintf("must be greater than or equal to %s", minField),
	}
}
