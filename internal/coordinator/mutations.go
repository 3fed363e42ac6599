// internal/coordinator/mutations.go
package coordinator

import (
	"context"
	"time"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/metrics"
	"jobtracker/internal/common/validation"
	"jobtracker/internal/models"
	"jobtracker/internal/notify"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	outcomeSynced     = "synced"
	outcomeLocalOnly  = "local_only"
	outcomeRolledBack = "rolled_back"
	outcomeFailed     = "failed"
)

var failureTitles = map[string]string{
	"update_job": "Couldn't update job",
	"delete_job": "Couldn't delete job",
}

// CreateJob adds a job. Signed out, or when the remote create fails, the
// job is synthesized locally so input is never lost.
func (c *Coordinator) CreateJob(ctx context.Context, in models.JobInput) (models.Job, error) {
	if err := validateJobInput(in); err != nil {
		metrics.Mutations.WithLabelValues("create_job", outcomeFailed).Inc()
		return models.Job{}, err
	}

	now := c.now()
	user := c.currentUser()
	if user == nil {
		job := c.createLocal(in, now)
		metrics.Mutations.WithLabelValues("create_job", outcomeLocalOnly).Inc()
		return job, nil
	}

	var created models.Job
	err := c.call(ctx, "create_job", func(ctx context.Context) error {
		var err error
		created, err = c.backend.CreateJob(ctx, models.NewJob(c.newID(), user.ID, in, now))
		return err
	})
	if err != nil {
		c.logger.Error("remote create failed, keeping job locally", map[string]interface{}{
			"error":   err,
			"company": in.Company,
		})
		job := c.createLocal(in, now)
		metrics.Mutations.WithLabelValues("create_job", outcomeLocalOnly).Inc()
		return job, nil
	}

	// The realtime INSERT for this row may already have landed.
	c.store.AddJob(created)
	c.store.RecordActivity(now)
	metrics.Mutations.WithLabelValues("create_job", outcomeSynced).Inc()
	return created, nil
}

func (c *Coordinator) createLocal(in models.JobInput, now time.Time) models.Job {
	job := models.NewJob(c.newID(), "", in, now)
	c.store.AddJob(job)
	c.store.RecordActivity(now)
	return job
}

// UpdateJob applies upd locally, then remotely. A remote failure restores
// the exact pre-update record and returns the error.
func (c *Coordinator) UpdateJob(ctx context.Context, id string, upd models.JobUpdate) (models.Job, error) {
	if err := validateJobUpdate(upd); err != nil {
		metrics.Mutations.WithLabelValues("update_job", outcomeFailed).Inc()
		return models.Job{}, err
	}

	now := c.now()
	var before, after models.Job
	err := c.optimistic(ctx, "update_job",
		func() (func(), error) {
			b, a, ok := c.store.UpdateJob(id, func(j models.Job) models.Job {
				return upd.Apply(j, now)
			})
			if !ok {
				return nil, apperrors.NewNotFoundError("job", id)
			}
			before, after = b, a
			return func() { c.store.PutJob(before) }, nil
		},
		func(ctx context.Context, user *models.User) error {
			remote := upd
			if before.AppliedDate == nil && after.AppliedDate != nil && upd.AppliedDate == nil {
				remote.AppliedDate = after.AppliedDate
			}
			return c.backend.UpdateJob(ctx, user.ID, id, remote)
		},
	)
	if err != nil {
		return models.Job{}, err
	}
	c.store.RecordActivity(now)
	return after, nil
}

// DeleteJob removes a job locally, then remotely. A remote failure puts
// the job back with all fields intact.
func (c *Coordinator) DeleteJob(ctx context.Context, id string) error {
	err := c.optimistic(ctx, "delete_job",
		func() (func(), error) {
			removed, ok := c.store.RemoveJob(id)
			if !ok {
				return nil, apperrors.NewNotFoundError("job", id)
			}
			return func() { c.store.PutJob(removed) }, nil
		},
		func(ctx context.Context, user *models.User) error {
			return c.backend.DeleteJob(ctx, user.ID, id)
		},
	)
	if err != nil {
		return err
	}
	c.store.RecordActivity(c.now())
	return nil
}

// SaveProfile merges upd over the current profile, creating one if
// needed. The local write is kept even if the remote upsert fails.
func (c *Coordinator) SaveProfile(ctx context.Context, upd models.ProfileUpdate) (models.UserProfile, error) {
	if err := validateProfileUpdate(upd); err != nil {
		metrics.Mutations.WithLabelValues("save_profile", outcomeFailed).Inc()
		return models.UserProfile{}, err
	}

	now := c.now()
	user := c.currentUser()

	current := c.store.Profile()
	if current == nil {
		current = &models.UserProfile{ID: c.newID(), CreatedAt: now}
	}
	profile := upd.Apply(*current, now)
	if user != nil {
		profile.UserID = user.ID
	}
	c.store.SetProfile(&profile)

	if user == nil {
		metrics.Mutations.WithLabelValues("save_profile", outcomeLocalOnly).Inc()
		return profile, nil
	}

	err := c.call(ctx, "save_profile", func(ctx context.Context) error {
		return c.backend.UpsertProfile(ctx, profile)
	})
	if err != nil {
		c.setLastError(apperrors.NewRemoteCallFailedError("save_profile", err))
		c.logger.Error("remote profile save failed, keeping local copy", map[string]interface{}{
			"error":  err,
			"userId": user.ID,
		})
		metrics.Mutations.WithLabelValues("save_profile", outcomeLocalOnly).Inc()
		return profile, nil
	}
	metrics.Mutations.WithLabelValues("save_profile", outcomeSynced).Inc()
	return profile, nil
}

// optimistic applies a local change, pushes it remotely when signed in,
// and runs the returned revert if the remote call fails.
func (c *Coordinator) optimistic(
	ctx context.Context,
	op string,
	apply func() (revert func(), err error),
	remote func(ctx context.Context, user *models.User) error,
) error {
	revert, err := apply()
	if err != nil {
		metrics.Mutations.WithLabelValues(op, outcomeFailed).Inc()
		return err
	}

	user := c.currentUser()
	if user == nil {
		metrics.Mutations.WithLabelValues(op, outcomeLocalOnly).Inc()
		return nil
	}

	err = c.call(ctx, op, func(ctx context.Context) error {
		return remote(ctx, user)
	})
	if err == nil {
		metrics.Mutations.WithLabelValues(op, outcomeSynced).Inc()
		return nil
	}

	revert()
	metrics.Rollbacks.WithLabelValues(op).Inc()
	metrics.Mutations.WithLabelValues(op, outcomeRolledBack).Inc()

	wrapped := apperrors.NewRemoteCallFailedError(op, err)
	c.setLastError(wrapped)
	c.logger.Error("remote call failed, local change reverted", map[string]interface{}{
		"error":     err,
		"operation": op,
		"userId":    user.ID,
	})
	if c.notifier != nil {
		c.notifier.Notify(ctx, notify.Notice{
			Level:     notify.LevelError,
			Title:     failureTitles[op],
			Message:   apperrors.UserMessage(wrapped),
			CreatedAt: c.now(),
		})
	}
	return wrapped
}

// call runs fn against the backend with the configured timeout, inside a
// span, and records its duration.
func (c *Coordinator) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RemoteTimeout)
	defer cancel()

	ctx, span := c.obs.Tracer().Start(ctx, "remote."+op)
	span.SetAttributes(attribute.String("operation", op))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.RemoteCallDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.obs.RecordOperation(ctx, op, outcome, elapsed)
	return err
}

func validateJobInput(in models.JobInput) error {
	if err := validation.Validate(validation.JobInput, in); err != nil {
		return err
	}
	if fe := validation.Range("salary_min", "salary_max", in.SalaryMin, in.SalaryMax); fe != nil {
		return apperrors.NewValidationError([]apperrors.FieldError{*fe})
	}
	return nil
}

func validateJobUpdate(upd models.JobUpdate) error {
	if err := validation.Validate(validation.JobUpdate, upd); err != nil {
		return err
	}
	if fe := validation.Range("salary_min", "salary_max", upd.SalaryMin, upd.SalaryMax); fe != nil {
		return apperrors.NewValidationError([]apperrors.FieldError{*fe})
	}
	return nil
}

func validateProfileUpdate(upd models.ProfileUpdate) error {
	if err := validation.Validate(validation.ProfileUpdate, upd); err != nil {
		return err
	}
	if fe := validation.Range("target_salary_min", "target_salary_max", upd.TargetSalaryMin, upd.TargetSalaryMax); fe != nil {
		return apperrors.NewValidationError([]apperrors.FieldError{*fe})
	}
	return nil
}
