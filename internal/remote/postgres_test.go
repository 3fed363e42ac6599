package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	jobCols = []string{
		"id", "user_id", "company", "title", "location", "job_url", "company_website", "job_type",
		"salary_min", "salary_max", "salary_currency", "status", "created_at", "updated_at", "applied_date",
		"notes", "interview_notes", "next_action", "next_action_date", "recruiter_name", "recruiter_email",
		"hiring_manager", "referral",
	}
	profileCols = []string{
		"id", "user_id", "full_name", "email", "phone", "location", "linkedin_url", "portfolio_url",
		"target_roles", "target_salary_min", "target_salary_max", "skills", "resume_text", "summary",
		"career_goals", "achievements", "created_at", "updated_at",
	}
)

func newBackend(t *testing.T) (*PostgresBackend, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresBackend(db, nil, logger.NewTestLogger(t)), mock, db
}

func jobRow(id string) []interface{} {
	return []interface{}{
		id, "user-1", "Acme", "Engineer", "Remote", nil, nil, "full-time",
		int64(100000), nil, "USD", "applied", created, created, created,
		"A", nil, nil, nil, nil, nil,
		nil, nil,
	}
}

func TestPostgresBackend_FetchJobs(t *testing.T) {
	b, mock, db := newBackend(t)
	defer db.Close()

	rows := sqlmock.NewRows(jobCols).AddRow(toDriver(jobRow("job-2"))...).AddRow(toDriver(jobRow("job-1"))...)
	mock.ExpectQuery(`SELECT .+ FROM jobs\s+WHERE user_id = \$1\s+ORDER BY created_at DESC\s+LIMIT \$2`).
		WithArgs("user-1", 500).
		WillReturnRows(rows)

	jobs, err := b.FetchJobs(context.Background(), "user-1", 500)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	j := jobs[0]
	assert.Equal(t, "job-2", j.ID)
	assert.Equal(t, models.StatusApplied, j.Status)
	require.NotNil(t, j.SalaryMin)
	assert.Equal(t, 100000, *j.SalaryMin)
	assert.Nil(t, j.SalaryMax)
	assert.Empty(t, j.JobURL)
	require.NotNil(t, j.AppliedDate)
	assert.Nil(t, j.NextActionDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_FetchJobsError(t *testing.T) {
	b, mock, db := newBackend(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM jobs`).WillReturnError(errors.New("connection refused"))

	_, err := b.FetchJobs(context.Background(), "user-1", 10)
	assert.ErrorContains(t, err, "connection refused")
}

func TestPostgresBackend_FetchJob(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		b, mock, db := newBackend(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM jobs\s+WHERE user_id = \$1 AND id = \$2`).
			WithArgs("user-1", "job-7").
			WillReturnRows(sqlmock.NewRows(jobCols).AddRow(toDriver(jobRow("job-7"))...))

		j, err := b.FetchJob(context.Background(), "user-1", "job-7")
		require.NoError(t, err)
		require.NotNil(t, j)
		assert.Equal(t, "job-7", j.ID)
		assert.Equal(t, "Acme", j.Company)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gone", func(t *testing.T) {
		b, mock, db := newBackend(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM jobs`).
			WithArgs("user-1", "job-7").
			WillReturnRows(sqlmock.NewRows(jobCols))

		j, err := b.FetchJob(context.Background(), "user-1", "job-7")
		require.NoError(t, err)
		assert.Nil(t, j)
	})
}

func TestPostgresBackend_FetchProfile(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		b, mock, db := newBackend(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM profiles\s+WHERE user_id = \$1`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(profileCols).AddRow(
				"p1", "user-1", "Ada", "ada@example.com", nil, nil, nil, nil,
				"{Backend,SRE}", nil, nil, "{Go}", nil, nil,
				nil, nil, created, created,
			))

		p, err := b.FetchProfile(context.Background(), "user-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Ada", p.FullName)
		assert.Equal(t, []string{"Backend", "SRE"}, p.TargetRoles)
		assert.Equal(t, []string{"Go"}, p.Skills)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		b, mock, db := newBackend(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM profiles`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(profileCols))

		p, err := b.FetchProfile(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestPostgresBackend_CreateJob(t *testing.T) {
	b, mock, db := newBackend(t)
	defer db.Close()

	salary := 100000
	job := models.Job{
		ID: "job-1", UserID: "user-1", Company: "Acme", Title: "Engineer", Location: "Remote",
		JobType: "full-time", SalaryMin: &salary, SalaryCurrency: "USD", Status: models.StatusApplied,
		CreatedAt: created, UpdatedAt: created, AppliedDate: &created, Notes: "A",
	}

	mock.ExpectQuery(`INSERT INTO jobs \(.+\)\s+VALUES \(.+\)\s+RETURNING`).
		WithArgs(
			"job-1", "user-1", "Acme", "Engineer",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"applied", created, created, sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows(jobCols).AddRow(toDriver(jobRow("job-1"))...))

	got, err := b.CreateJob(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, "A", got.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_UpdateJob(t *testing.T) {
	b, mock, db := newBackend(t)
	defer db.Close()

	notes := "B"
	status := models.StatusInterview
	upd := models.JobUpdate{Notes: &notes, Status: &status}

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE jobs SET notes = $1, status = $2, updated_at = NOW() WHERE id = $3 AND user_id = $4`)).
		WithArgs("B", "interview", "job-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, b.UpdateJob(context.Background(), "user-1", "job-1", upd))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_UpdateJobNotFound(t *testing.T) {
	b, mock, db := newBackend(t)
	defer db.Close()

	notes := "B"
	mock.ExpectExec(`UPDATE jobs SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := b.UpdateJob(context.Background(), "user-1", "job-x", models.JobUpdate{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresBackend_DeleteJob(t *testing.T) {
	b, mock, db := newBackend(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM jobs WHERE id = $1 AND user_id = $2`)).
		WithArgs("job-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM jobs`).
		WithArgs("job-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, b.DeleteJob(context.Background(), "user-1", "job-1"))
	assert.ErrorIs(t, b.DeleteJob(context.Background(), "user-1", "job-1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_UpsertProfile(t *testing.T) {
	b, mock, db := newBackend(t)
	defer db.Close()

	p := models.UserProfile{
		ID: "p1", UserID: "user-1", FullName: "Ada", Skills: []string{"Go"},
		CreatedAt: created, UpdatedAt: created,
	}

	mock.ExpectExec(`INSERT INTO profiles .+ ON CONFLICT \(user_id\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, b.UpsertProfile(context.Background(), p))

	mock.ExpectExec(`INSERT INTO profiles`).WillReturnError(errors.New("deadlock detected"))
	assert.ErrorContains(t, b.UpsertProfile(context.Background(), p), "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_SubscribeWithoutRealtime(t *testing.T) {
	b, _, db := newBackend(t)
	defer db.Close()

	_, err := b.Subscribe(context.Background(), "user-1", func(models.ChangeEvent) {})
	assert.ErrorIs(t, err, ErrRealtimeDisabled)
}

func TestPostgresBackend_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, NewPostgresBackend(db, nil, logger.NewNoOpLogger()).Ping(context.Background()))
}

func toDriver(vals []interface{}) []driver.Value {
	out := make([]driver.Value, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
