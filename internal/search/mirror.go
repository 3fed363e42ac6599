// internal/search/mirror.go
package search

import (
	"context"
	"sync"
	"time"

	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"
	"jobtracker/internal/store"
)

// JobSource is the part of the local store the mirror reads.
type JobSource interface {
	Jobs() []models.Job
	Subscribe(fn func(store.Change)) func()
}

// Mirror keeps an Index in line with the local job list. Store changes
// are coalesced into a single pending sync and applied on a background
// goroutine; failures are logged and retried on the next change.
type Mirror struct {
	index  Index
	src    JobSource
	logger logger.Logger

	pending chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	unsub   func()

	syncMu  sync.Mutex
	indexed map[string]time.Time
}

func NewMirror(index Index, src JobSource, log logger.Logger) *Mirror {
	if index == nil {
		index = NopIndex{}
	}
	return &Mirror{
		index:   index,
		src:     src,
		logger:  logger.Component(log, "search-mirror"),
		pending: make(chan struct{}, 1),
		indexed: make(map[string]time.Time),
	}
}

// Start performs an initial sync in the background and then follows the store.
func (m *Mirror) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	m.unsub = m.src.Subscribe(func(c store.Change) {
		if c.Kind == store.ChangeJobs || c.Kind == store.ChangeLoaded {
			m.schedule()
		}
	})
	m.schedule()

	go func() {
		defer close(m.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.pending:
				if err := m.Sync(ctx); err != nil && ctx.Err() == nil {
					m.logger.Warn("Search sync incomplete", map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}()
}

func (m *Mirror) schedule() {
	select {
	case m.pending <- struct{}{}:
	default:
	}
}

// Sync indexes new or changed jobs and removes documents for jobs that are
// gone. It returns the first error but keeps going.
func (m *Mirror) Sync(ctx context.Context) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	var firstErr error
	keep := make(map[string]struct{})
	for _, j := range m.src.Jobs() {
		keep[j.ID] = struct{}{}
		if at, ok := m.indexed[j.ID]; ok && at.Equal(j.UpdatedAt) {
			continue
		}
		if err := m.index.IndexJob(ctx, j); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.indexed[j.ID] = j.UpdatedAt
	}

	for id := range m.indexed {
		if _, ok := keep[id]; ok {
			continue
		}
		if err := m.index.DeleteJob(ctx, id); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delete(m.indexed, id)
	}
	return firstErr
}

// Search queries the index and falls back to a scan of the local list
// when the index fails.
func (m *Mirror) Search(ctx context.Context, userID, query string, limit int) []Hit {
	hits, err := m.index.Search(ctx, userID, query, limit)
	if err == nil {
		if _, nop := m.index.(NopIndex); !nop {
			return hits
		}
	} else {
		m.logger.Warn("Index search failed, scanning locally", map[string]interface{}{"error": err.Error()})
	}
	return MatchLocal(m.src.Jobs(), query, limit)
}

func (m *Mirror) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}
