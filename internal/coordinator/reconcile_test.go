package coordinator

import (
	"testing"
	"time"

	"jobtracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	salary := 120000
	local := models.Job{
		ID:        "job-1",
		UserID:    "user-1",
		Company:   "Acme",
		Title:     "Engineer",
		Status:    models.StatusApplied,
		Notes:     "A",
		SalaryMin: &salary,
		CreatedAt: created,
		UpdatedAt: created,
	}

	tests := []struct {
		name       string
		local      *models.Job
		evt        models.ChangeEvent
		wantAction Action
		check      func(t *testing.T, got models.Job)
		wantErr    bool
	}{
		{
			name:  "insert of a job already present is ignored",
			local: &local,
			evt: models.ChangeEvent{EventType: models.EventInsert, New: map[string]interface{}{
				"id": "job-1", "company": "Other", "title": "x", "status": "saved",
			}},
			wantAction: ActionNone,
		},
		{
			name: "insert of a new job",
			evt: models.ChangeEvent{EventType: models.EventInsert, New: map[string]interface{}{
				"id": "job-2", "user_id": "user-1", "company": "Globex", "title": "SRE",
				"status": "screening", "created_at": "2026-10-02T10:00:00.123456+00:00",
				"salary_min": float64(90000), "notes": nil,
			}},
			wantAction: ActionPut,
			check: func(t *testing.T, got models.Job) {
				assert.Equal(t, "job-2", got.ID)
				assert.Equal(t, models.StatusScreening, got.Status)
				require.NotNil(t, got.SalaryMin)
				assert.Equal(t, 90000, *got.SalaryMin)
				assert.Equal(t, 2026, got.CreatedAt.Year())
			},
		},
		{
			name:       "insert carrying only keys asks for a re-read",
			evt:        models.ChangeEvent{EventType: models.EventInsert, New: map[string]interface{}{"id": "j-big", "user_id": "user-1"}},
			wantAction: ActionRefetch,
			check: func(t *testing.T, got models.Job) {
				assert.Equal(t, "j-big", got.ID)
				assert.Equal(t, "user-1", got.UserID)
			},
		},
		{
			name: "insert without status is rejected",
			evt: models.ChangeEvent{EventType: models.EventInsert, New: map[string]interface{}{
				"id": "j-3", "user_id": "user-1", "company": "Globex", "title": "SRE",
			}},
			wantErr: true,
		},
		{
			name: "insert without title is rejected",
			evt: models.ChangeEvent{EventType: models.EventInsert, New: map[string]interface{}{
				"id": "j-3", "user_id": "user-1", "company": "Globex", "status": "saved",
			}},
			wantErr: true,
		},
		{
			name:    "insert carrying only keys without an id",
			evt:     models.ChangeEvent{EventType: models.EventInsert, New: map[string]interface{}{"user_id": "user-1"}},
			wantErr: true,
		},
		{
			name:       "update carrying only keys asks for a re-read",
			local:      &local,
			evt:        models.ChangeEvent{EventType: models.EventUpdate, New: map[string]interface{}{"id": "job-1", "user_id": "user-1"}},
			wantAction: ActionRefetch,
			check: func(t *testing.T, got models.Job) {
				assert.Equal(t, "job-1", got.ID)
			},
		},
		{
			name:       "update carrying only keys for an unknown job",
			evt:        models.ChangeEvent{EventType: models.EventUpdate, New: map[string]interface{}{"id": "nope", "user_id": "user-1"}},
			wantAction: ActionNone,
		},
		{
			name:  "update keeps local value when incoming is null",
			local: &local,
			evt: models.ChangeEvent{EventType: models.EventUpdate, New: map[string]interface{}{
				"id": "job-1", "notes": nil, "status": "interview", "salary_min": nil,
			}},
			wantAction: ActionPut,
			check: func(t *testing.T, got models.Job) {
				assert.Equal(t, "A", got.Notes)
				assert.Equal(t, models.StatusInterview, got.Status)
				assert.Equal(t, "Acme", got.Company, "absent fields fall back to local")
				require.NotNil(t, got.SalaryMin)
				assert.Equal(t, 120000, *got.SalaryMin)
				assert.Equal(t, created, got.CreatedAt.UTC())
			},
		},
		{
			name:  "update overwrites with non-null incoming values",
			local: &local,
			evt: models.ChangeEvent{EventType: models.EventUpdate, New: map[string]interface{}{
				"id": "job-1", "notes": "B", "next_action": "Follow up",
			}},
			wantAction: ActionPut,
			check: func(t *testing.T, got models.Job) {
				assert.Equal(t, "B", got.Notes)
				assert.Equal(t, "Follow up", got.NextAction)
			},
		},
		{
			name:       "update for an unknown job is ignored",
			evt:        models.ChangeEvent{EventType: models.EventUpdate, New: map[string]interface{}{"id": "nope"}},
			wantAction: ActionNone,
		},
		{
			name:       "delete removes the local job",
			local:      &local,
			evt:        models.ChangeEvent{EventType: models.EventDelete, Old: map[string]interface{}{"id": "job-1"}},
			wantAction: ActionDelete,
			check: func(t *testing.T, got models.Job) {
				assert.Equal(t, "job-1", got.ID)
			},
		},
		{
			name:       "delete of unknown job",
			evt:        models.ChangeEvent{EventType: models.EventDelete, Old: map[string]interface{}{"id": "nope"}},
			wantAction: ActionNone,
		},
		{
			name:    "update with bad status",
			local:   &local,
			evt:     models.ChangeEvent{EventType: models.EventUpdate, New: map[string]interface{}{"status": "ghosted"}},
			wantErr: true,
		},
		{
			name:    "unknown event type",
			evt:     models.ChangeEvent{EventType: "TRUNCATE"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, action, err := Reconcile(tt.local, tt.evt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, action, action.String())
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}

	assert.Equal(t, "A", local.Notes, "reconcile never mutates its input")
}
