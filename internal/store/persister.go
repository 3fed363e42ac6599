// internal/store/persister.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"jobtracker/internal/models"

	"github.com/redis/go-redis/v9"
)

// Snapshot is the durable image of the local store.
type Snapshot struct {
	Jobs        []models.Job              `json:"jobs"`
	Profile     *models.UserProfile       `json:"profile,omitempty"`
	Goals       models.Goals              `json:"goals"`
	GoalHistory []models.GoalHistoryEntry `json:"goal_history"`
	Streaks     models.Streaks            `json:"streaks"`
	Documents   models.Documents          `json:"documents"`
}

// Persister stores one snapshot under a fixed key. Load returns nil, nil
// when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Remove(ctx context.Context) error
}

// RedisPersister keeps the snapshot as a JSON string under one key.
type RedisPersister struct {
	client redis.Cmdable
	key    string
}

func NewRedisPersister(client redis.Cmdable, key string) *RedisPersister {
	return &RedisPersister{client: client, key: key}
}

func (p *RedisPersister) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", p.key, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (p *RedisPersister) Save(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := p.client.Set(ctx, p.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", p.key, err)
	}
	return nil
}

func (p *RedisPersister) Remove(ctx context.Context) error {
	if err := p.client.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", p.key, err)
	}
	return nil
}

// MemoryPersister holds the encoded snapshot in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(_ context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(p.data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (p *MemoryPersister) Save(_ context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	p.mu.Lock()
	p.data = raw
	p.saves++
	p.mu.Unlock()
	return nil
}

func (p *MemoryPersister) Remove(_ context.Context) error {
	p.mu.Lock()
	p.data = nil
	p.mu.Unlock()
	return nil
}

// Saves reports how many snapshots have been written.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
