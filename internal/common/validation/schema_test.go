package validation

import (
	"testing"
	"time"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestValidate_JobInput(t *testing.T) {
	applied := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		input      models.JobInput
		wantFields []string
	}{
		{
			name:  "minimal valid",
			input: models.JobInput{Company: "Acme", Title: "Engineer"},
		},
		{
			name: "fully populated",
			input: models.JobInput{
				Company:        "Acme",
				Title:          "Engineer",
				JobURL:         "https://acme.example/jobs/1",
				JobType:        "full-time",
				SalaryMin:      intPtr(100000),
				SalaryMax:      intPtr(150000),
				SalaryCurrency: "USD",
				Status:         models.StatusApplied,
				AppliedDate:    &applied,
				RecruiterEmail: "r@acme.example",
			},
		},
		{
			name:       "missing company and title",
			input:      models.JobInput{},
			wantFields: []string{"company", "title"},
		},
		{
			name:       "blank company",
			input:      models.JobInput{Company: "   ", Title: "Engineer"},
			wantFields: []string{"company"},
		},
		{
			name:       "unknown status",
			input:      models.JobInput{Company: "Acme", Title: "Engineer", Status: "ghosted"},
			wantFields: []string{"status"},
		},
		{
			name:       "bad email and negative salary",
			input:      models.JobInput{Company: "Acme", Title: "Engineer", RecruiterEmail: "nope", SalaryMin: intPtr(-1)},
			wantFields: []string{"recruiter_email", "salary_min"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(JobInput, tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.CodeOf(err))

			var got []string
			for _, f := range apperrors.FieldErrors(err) {
				got = append(got, f.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, got)
		})
	}
}

func TestValidate_JobUpdateAllowsPartial(t *testing.T) {
	notes := "called back"
	assert.NoError(t, Validate(JobUpdate, models.JobUpdate{Notes: &notes}))

	empty := ""
	assert.Error(t, Validate(JobUpdate, models.JobUpdate{Company: &empty}))
}

func TestValidate_Goals(t *testing.T) {
	assert.NoError(t, Validate(WeeklyGoals, models.WeeklyGoals{Applications: 5, Interviews: 1}))
	assert.Error(t, Validate(WeeklyGoals, models.WeeklyGoals{Applications: -1}))
	assert.Error(t, Validate(MonthlyGoals, models.MonthlyGoals{Offers: 5000}))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", struct{}{})
	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.CodeOf(err))
}

func TestRange(t *testing.T) {
	assert.Nil(t, Range("salary_min", "salary_max", intPtr(1), intPtr(2)))
	assert.Nil(t, Range("salary_min", "salary_max", nil, intPtr(2)))

	fe := Range("salary_min", "salary_max", intPtr(3), intPtr(2))
	require.NotNil(t, fe)
	assert.Equal(t, "salary_max", fe.Field)
}
