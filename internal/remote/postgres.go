// internal/remote/postgres.go
package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"

	"github.com/lib/pq"
)

var (
	ErrNotFound         = errors.New("REMOTE_ROW_NOT_FOUND")
	ErrRealtimeDisabled = errors.New("REALTIME_DISABLED")
)

const jobColumns = `id, user_id, company, title, location, job_url, company_website, job_type,
	salary_min, salary_max, salary_currency, status, created_at, updated_at, applied_date,
	notes, interview_notes, next_action, next_action_date, recruiter_name, recruiter_email,
	hiring_manager, referral`

const profileColumns = `id, user_id, full_name, email, phone, location, linkedin_url, portfolio_url,
	target_roles, target_salary_min, target_salary_max, skills, resume_text, summary,
	career_goals, achievements, created_at, updated_at`

// PostgresBackend stores jobs and profiles in PostgreSQL. Every statement
// is scoped by user_id.
type PostgresBackend struct {
	db       *sql.DB
	realtime *Realtime
	logger   logger.Logger
}

// NewPostgresBackend builds a backend. rt may be nil, in which case
// Subscribe fails with ErrRealtimeDisabled.
func NewPostgresBackend(db *sql.DB, rt *Realtime, log logger.Logger) *PostgresBackend {
	return &PostgresBackend{
		db:       db,
		realtime: rt,
		logger:   logger.Component(log, "remote.postgres"),
	}
}

func (b *PostgresBackend) FetchJobs(ctx context.Context, userID string, limit int) ([]models.Job, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// FetchJob re-reads one row. It returns nil, nil when the row is gone.
func (b *PostgresBackend) FetchJob(ctx context.Context, userID, id string) (*models.Job, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE user_id = $1 AND id = $2`, userID, id)

	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// FetchProfile returns nil, nil when the user has no profile yet.
func (b *PostgresBackend) FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE user_id = $1`, userID)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *PostgresBackend) CreateJob(ctx context.Context, j models.Job) (models.Job, error) {
	row := b.db.QueryRowContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING `+jobColumns,
		j.ID, j.UserID, j.Company, j.Title,
		nullString(j.Location), nullString(j.JobURL), nullString(j.CompanyWebsite), nullString(j.JobType),
		nullInt(j.SalaryMin), nullInt(j.SalaryMax), nullString(j.SalaryCurrency),
		string(j.Status), j.CreatedAt, j.UpdatedAt, nullTime(j.AppliedDate),
		nullString(j.Notes), nullString(j.InterviewNotes), nullString(j.NextAction), nullTime(j.NextActionDate),
		nullString(j.RecruiterName), nullString(j.RecruiterEmail), nullString(j.HiringManager), nullString(j.Referral),
	)
	created, err := scanJob(row)
	if err != nil {
		return models.Job{}, fmt.Errorf("insert job: %w", err)
	}
	b.logger.Debug("job inserted", map[string]interface{}{"jobId": created.ID, "userId": created.UserID})
	return created, nil
}

// UpdateJob writes only the columns present in upd, plus updated_at.
func (b *PostgresBackend) UpdateJob(ctx context.Context, userID, id string, upd models.JobUpdate) error {
	cols := upd.Columns()
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names)+1)
	args := make([]interface{}, 0, len(names)+2)
	for _, name := range names {
		args = append(args, columnValue(cols[name]))
		sets = append(sets, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, userID)

	query := fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

func (b *PostgresBackend) DeleteJob(ctx context.Context, userID, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// UpsertProfile keeps one profile per user_id.
func (b *PostgresBackend) UpsertProfile(ctx context.Context, p models.UserProfile) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			location = EXCLUDED.location,
			linkedin_url = EXCLUDED.linkedin_url,
			portfolio_url = EXCLUDED.portfolio_url,
			target_roles = EXCLUDED.target_roles,
			target_salary_min = EXCLUDED.target_salary_min,
			target_salary_max = EXCLUDED.target_salary_max,
			skills = EXCLUDED.skills,
			resume_text = EXCLUDED.resume_text,
			summary = EXCLUDED.summary,
			career_goals = EXCLUDED.career_goals,
			achievements = EXCLUDED.achievements,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.UserID,
		nullString(p.FullName), nullString(p.Email), nullString(p.Phone), nullString(p.Location),
		nullString(p.LinkedInURL), nullString(p.PortfolioURL),
		pq.Array(p.TargetRoles), nullInt(p.TargetSalaryMin), nullInt(p.TargetSalaryMax), pq.Array(p.Skills),
		nullString(p.ResumeText), nullString(p.Summary), nullString(p.CareerGoals), nullString(p.Achievements),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile for %s: %w", p.UserID, err)
	}
	return nil
}

func (b *PostgresBackend) Subscribe(ctx context.Context, userID string, handler func(models.ChangeEvent)) (io.Closer, error) {
	if b.realtime == nil {
		return nil, ErrRealtimeDisabled
	}
	return b.realtime.Subscribe(ctx, userID, handler)
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(s scanner) (models.Job, error) {
	var (
		j                                                      models.Job
		location, jobURL, website, jobType, currency, status   sql.NullString
		notes, interviewNotes, nextAction                      sql.NullString
		recruiterName, recruiterEmail, hiringManager, referral sql.NullString
		salaryMin, salaryMax                                   sql.NullInt64
		appliedDate, nextActionDate                            sql.NullTime
	)
	err := s.Scan(
		&j.ID, &j.UserID, &j.Company, &j.Title, &location, &jobURL, &website, &jobType,
		&salaryMin, &salaryMax, &currency, &status, &j.CreatedAt, &j.UpdatedAt, &appliedDate,
		&notes, &interviewNotes, &nextAction, &nextActionDate, &recruiterName, &recruiterEmail,
		&hiringManager, &referral,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Job{}, err
		}
		return models.Job{}, fmt.Errorf("scan job: %w", err)
	}

	j.Location = location.String
	j.JobURL = jobURL.String
	j.CompanyWebsite = website.String
	j.JobType = jobType.String
	j.SalaryMin = intPtr(salaryMin)
	j.SalaryMax = intPtr(salaryMax)
	j.SalaryCurrency = currency.String
	j.Status = models.Status(status.String)
	if j.Status == "" {
		j.Status = models.StatusSaved
	}
	j.AppliedDate = timePtr(appliedDate)
	j.Notes = notes.String
	j.InterviewNotes = interviewNotes.String
	j.NextAction = nextAction.String
	j.NextActionDate = timePtr(nextActionDate)
	j.RecruiterName = recruiterName.String
	j.RecruiterEmail = recruiterEmail.String
	j.HiringManager = hiringManager.String
	j.Referral = referral.String
	return j, nil
}

func scanProfile(s scanner) (models.UserProfile, error) {
	var (
		p                                                models.UserProfile
		fullName, email, phone, location, linkedin, site sql.NullString
		resume, summary, goals, achievements             sql.NullString
		salaryMin, salaryMax                             sql.NullInt64
		roles, skills                                    pq.StringArray
	)
	err := s.Scan(
		&p.ID, &p.UserID, &fullName, &email, &phone, &location, &linkedin, &site,
		&roles, &salaryMin, &salaryMax, &skills, &resume, &summary,
		&goals, &achievements, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserProfile{}, err
		}
		return models.UserProfile{}, fmt.Errorf("scan profile: %w", err)
	}

	p.FullName = fullName.String
	p.Email = email.String
	p.Phone = phone.String
	p.Location = location.String
	p.LinkedInURL = linkedin.String
	p.PortfolioURL = site.String
	p.TargetRoles = []string(roles)
	p.TargetSalaryMin = intPtr(salaryMin)
	p.TargetSalaryMax = intPtr(salaryMax)
	p.Skills = []string(skills)
	p.ResumeText = resume.String
	p.Summary = summary.String
	p.CareerGoals = goals.String
	p.Achievements = achievements.String
	return p, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return nil
}

// columnValue maps empty strings to NULL so cleared fields read back as
// absent.
func columnValue(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return nullString(s)
	}
	return v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
