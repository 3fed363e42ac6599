// internal/coordinator/reconcile.go
package coordinator

import (
	"encoding/json"
	"fmt"

	"jobtracker/internal/models"
)

type Action int

const (
	ActionNone Action = iota
	ActionPut
	ActionDelete
	// ActionRefetch means the event only named the row; the caller has to
	// read it from the backend.
	ActionRefetch
)

func (a Action) String() string {
	switch a {
	case ActionPut:
		return "put"
	case ActionDelete:
		return "delete"
	case ActionRefetch:
		return "refetch"
	}
	return "none"
}

// Reconcile decides what a realtime event does to the local copy of a job.
// local is nil when no job with the event's id exists locally.
//
//   - INSERT adds the row only if it is not already present. The row must
//     carry company, title and a known status.
//   - UPDATE merges the incoming row over the local job, field by field,
//     keeping local values wherever the incoming value is null or absent.
//   - DELETE removes the local job.
//
// An INSERT or UPDATE whose row carries only its keys yields ActionRefetch
// with the job id set.
func Reconcile(local *models.Job, evt models.ChangeEvent) (models.Job, Action, error) {
	switch evt.EventType {
	case models.EventInsert:
		if local != nil {
			return *local, ActionNone, nil
		}
		if evt.KeysOnly() {
			return refetch(evt)
		}
		job, err := decodeRow(evt.New)
		if err != nil {
			return models.Job{}, ActionNone, err
		}
		if err := complete(job); err != nil {
			return models.Job{}, ActionNone, err
		}
		return job, ActionPut, nil

	case models.EventUpdate:
		if local == nil {
			return models.Job{}, ActionNone, nil
		}
		if evt.KeysOnly() {
			return refetch(evt)
		}
		merged, err := merge(*local, evt.New)
		if err != nil {
			return models.Job{}, ActionNone, err
		}
		return merged, ActionPut, nil

	case models.EventDelete:
		if local == nil {
			return models.Job{}, ActionNone, nil
		}
		return *local, ActionDelete, nil
	}
	return models.Job{}, ActionNone, fmt.Errorf("unknown event type %q", evt.EventType)
}

func refetch(evt models.ChangeEvent) (models.Job, Action, error) {
	id := evt.RowID()
	if id == "" {
		return models.Job{}, ActionNone, fmt.Errorf("%s event without id", evt.EventType)
	}
	return models.Job{ID: id, UserID: evt.RowUserID()}, ActionRefetch, nil
}

// complete rejects inserted rows that would break the job invariants.
func complete(job models.Job) error {
	switch {
	case job.ID == "":
		return fmt.Errorf("insert event without id")
	case !job.Status.Valid():
		return fmt.Errorf("insert event with status %q", job.Status)
	case job.Company == "" || job.Title == "":
		return fmt.Errorf("insert event for %s without company or title", job.ID)
	}
	return nil
}

func merge(local models.Job, incoming map[string]interface{}) (models.Job, error) {
	raw, err := json.Marshal(local)
	if err != nil {
		return models.Job{}, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Job{}, err
	}
	for k, v := range incoming {
		if v != nil {
			fields[k] = v
		}
	}
	merged, err := decodeRow(fields)
	if err != nil {
		return models.Job{}, err
	}
	merged.ID = local.ID
	return merged, nil
}

func decodeRow(row map[string]interface{}) (models.Job, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return models.Job{}, fmt.Errorf("encode row: %w", err)
	}
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return models.Job{}, fmt.Errorf("decode row: %w", err)
	}
	if job.Status != "" && !job.Status.Valid() {
		return models.Job{}, fmt.Errorf("decode row: unknown status %q", job.Status)
	}
	return job, nil
}
