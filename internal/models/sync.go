// internal/models/sync.go
package models

import "time"

// User is the authenticated principal as far as sync is concerned.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// SyncStatus is ephemeral and never persisted.
type SyncStatus struct {
	Loading          bool       `json:"loading"`
	Online           bool       `json:"online"`
	Syncing          bool       `json:"syncing"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	User             *User      `json:"user,omitempty"`
	InitialFetchDone bool       `json:"initial_fetch_done"`
}

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one row-level change pushed by the realtime feed.
// New and Old carry the raw row; absent or null columns are nil.
type ChangeEvent struct {
	EventType EventType              `json:"eventType"`
	New       map[string]interface{} `json:"new"`
	Old       map[string]interface{} `json:"old"`
}

// RowID returns the id column from New, falling back to Old.
func (e ChangeEvent) RowID() string {
	for _, row := range []map[string]interface{}{e.New, e.Old} {
		if id, ok := row["id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// RowUserID returns the owner of the changed row.
func (e ChangeEvent) RowUserID() string {
	for _, row := range []map[string]interface{}{e.New, e.Old} {
		if id, ok := row["user_id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// KeysOnly reports whether New carries nothing but the row's keys. The feed
// sends rows too large for one notification this way.
func (e ChangeEvent) KeysOnly() bool {
	if len(e.New) == 0 {
		return false
	}
	for k := range e.New {
		if k != "id" && k != "user_id" {
			return false
		}
	}
	return true
}
