// internal/remote/migrate.go
package remote

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

var channelName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

const schemaJobs = `
CREATE TABLE IF NOT EXISTS jobs (
	id               UUID PRIMARY KEY,
	user_id          TEXT NOT NULL,
	company          TEXT NOT NULL,
	title            TEXT NOT NULL,
	location         TEXT,
	job_url          TEXT,
	company_website  TEXT,
	job_type         TEXT,
	salary_min       INTEGER,
	salary_max       INTEGER,
	salary_currency  TEXT,
	status           TEXT NOT NULL DEFAULT 'saved' CHECK (status IN (
		'saved', 'applied', 'screening', 'interview', 'technical',
		'final', 'offer', 'accepted', 'rejected', 'withdrawn')),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	applied_date     TIMESTAMPTZ,
	notes            TEXT,
	interview_notes  TEXT,
	next_action      TEXT,
	next_action_date TIMESTAMPTZ,
	recruiter_name   TEXT,
	recruiter_email  TEXT,
	hiring_manager   TEXT,
	referral         TEXT
)`

const indexJobs = `CREATE INDEX IF NOT EXISTS jobs_user_created_idx ON jobs (user_id, created_at DESC)`

const schemaProfiles = `
CREATE TABLE IF NOT EXISTS profiles (
	id                UUID PRIMARY KEY,
	user_id           TEXT NOT NULL UNIQUE,
	full_name         TEXT,
	email             TEXT,
	phone             TEXT,
	location          TEXT,
	linkedin_url      TEXT,
	portfolio_url     TEXT,
	target_roles      TEXT[],
	target_salary_min INTEGER,
	target_salary_max INTEGER,
	skills            TEXT[],
	resume_text       TEXT,
	summary           TEXT,
	career_goals      TEXT,
	achievements      TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// NOTIFY payloads are capped at 8000 bytes; oversized rows are reduced to
// their keys and the receiver re-reads the row.
const notifyFunction = `
CREATE OR REPLACE FUNCTION notify_job_change() RETURNS trigger AS $$
DECLARE
	payload TEXT;
BEGIN
	payload := json_build_object(
		'eventType', TG_OP,
		'new', CASE WHEN TG_OP = 'DELETE' THEN NULL ELSE row_to_json(NEW) END,
		'old', CASE WHEN TG_OP = 'INSERT' THEN NULL ELSE row_to_json(OLD) END
	)::text;
	IF octet_length(payload) > 7900 THEN
		payload := json_build_object(
			'eventType', TG_OP,
			'new', CASE WHEN TG_OP = 'DELETE' THEN NULL ELSE json_build_object('id', NEW.id, 'user_id', NEW.user_id) END,
			'old', CASE WHEN TG_OP = 'INSERT' THEN NULL ELSE json_build_object('id', OLD.id, 'user_id', OLD.user_id) END
		)::text;
	END IF;
	PERFORM pg_notify('%s', payload);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`

const dropTrigger = `DROP TRIGGER IF EXISTS jobs_notify_change ON jobs`

const createTrigger = `
CREATE TRIGGER jobs_notify_change
AFTER INSERT OR UPDATE OR DELETE ON jobs
FOR EACH ROW EXECUTE FUNCTION notify_job_change()`

// Migrate creates the tables and the change-notification trigger in one
// transaction. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, channel string) error {
	if !channelName.MatchString(channel) {
		return fmt.Errorf("invalid realtime channel name %q", channel)
	}

	statements := []string{
		schemaJobs,
		indexJobs,
		schemaProfiles,
		fmt.Sprintf(notifyFunction, channel),
		dropTrigger,
		createTrigger,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
