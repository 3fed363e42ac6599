// internal/store/store.go
package store

import (
	"context"
	"sync"
	"time"

	"jobtracker/internal/analytics"
	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"

	"github.com/google/uuid"
)

const persistTimeout = 5 * time.Second

type ChangeKind string

const (
	ChangeJobs      ChangeKind = "jobs"
	ChangeProfile   ChangeKind = "profile"
	ChangeGoals     ChangeKind = "goals"
	ChangeHistory   ChangeKind = "goal_history"
	ChangeStreaks   ChangeKind = "streaks"
	ChangeDocuments ChangeKind = "documents"
	ChangeLoaded    ChangeKind = "loaded"
)

// Change is delivered to subscribers after every mutation. JobID is set
// when exactly one job changed; an empty JobID on ChangeJobs means the
// list was replaced.
type Change struct {
	Kind  ChangeKind
	JobID string
}

type Option func(*Store)

// WithClock overrides time.Now for timestamps the store assigns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides uuid generation for document ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store is the local state container. It is safe for concurrent use and
// every accessor returns a copy.
type Store struct {
	mu      sync.RWMutex
	state   Snapshot
	version uint64

	saveMu    sync.Mutex
	saved     uint64
	persister Persister

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int

	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func New(p Persister, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		state:     Snapshot{Goals: models.DefaultGoals()},
		persister: p,
		subs:      make(map[int]func(Change)),
		logger:    logger.Component(log, "store"),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the persisted snapshot. A missing snapshot leaves defaults.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return apperrors.NewPersistenceFailedError(err)
	}
	if snap == nil {
		s.logger.Info("no local snapshot, starting empty", nil)
		return nil
	}
	if snap.Goals.Weekly == (models.WeeklyGoals{}) && snap.Goals.Monthly == (models.MonthlyGoals{}) {
		snap.Goals.Weekly = models.DefaultGoals().Weekly
		snap.Goals.Monthly = models.DefaultGoals().Monthly
	}

	s.mu.Lock()
	s.state = snap.clone()
	s.version++
	s.saved = s.version
	s.mu.Unlock()

	s.logger.Info("local snapshot restored", map[string]interface{}{
		"jobs":       len(snap.Jobs),
		"hasProfile": snap.Profile != nil,
	})
	s.notify(Change{Kind: ChangeLoaded})
	return nil
}

// Reset drops every local record, goals and documents included, and
// removes the persisted snapshot.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.state = Snapshot{Goals: models.DefaultGoals()}
	s.version++
	v := s.version
	s.mu.Unlock()

	s.saveMu.Lock()
	err := s.persister.Remove(ctx)
	if err == nil {
		s.saved = v
	}
	s.saveMu.Unlock()

	s.notify(Change{Kind: ChangeLoaded})
	if err != nil {
		s.logger.Error("failed to remove local snapshot", map[string]interface{}{"error": err})
		return apperrors.NewPersistenceFailedError(err)
	}
	s.logger.Info("local data reset", nil)
	return nil
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs on the mutating goroutine and must not block.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// mutate runs fn under the write lock. When fn reports a change the new
// snapshot is persisted and subscribers are notified.
func (s *Store) mutate(c Change, fn func(st *Snapshot) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	s.version++
	v := s.version
	snap := s.state.clone()
	s.mu.Unlock()

	s.persist(v, &snap)
	s.notify(c)
	return true
}

// persist writes snap unless a newer version already reached the
// persister, so the stored image never goes backwards.
func (s *Store) persist(v uint64, snap *Snapshot) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if v <= s.saved {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, snap); err != nil {
		s.logger.Error("failed to persist local snapshot", map[string]interface{}{
			"error":   err,
			"version": v,
		})
		return
	}
	s.saved = v
}

// --- jobs ---

func (s *Store) Jobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneJobs(s.state.Jobs)
}

func (s *Store) Job(id string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := jobIndex(s.state.Jobs, id); i >= 0 {
		return s.state.Jobs[i], true
	}
	return models.Job{}, false
}

// AddJob prepends job unless a job with the same id already exists.
func (s *Store) AddJob(job models.Job) bool {
	return s.mutate(Change{Kind: ChangeJobs, JobID: job.ID}, func(st *Snapshot) bool {
		if jobIndex(st.Jobs, job.ID) >= 0 {
			return false
		}
		st.Jobs = append([]models.Job{job}, st.Jobs...)
		return true
	})
}

// PutJob replaces the job with the same id, or prepends it.
func (s *Store) PutJob(job models.Job) {
	s.mutate(Change{Kind: ChangeJobs, JobID: job.ID}, func(st *Snapshot) bool {
		if i := jobIndex(st.Jobs, job.ID); i >= 0 {
			st.Jobs[i] = job
			return true
		}
		st.Jobs = append([]models.Job{job}, st.Jobs...)
		return true
	})
}

// UpdateJob replaces job id with fn's result atomically and returns both
// versions.
func (s *Store) UpdateJob(id string, fn func(models.Job) models.Job) (before, after models.Job, ok bool) {
	s.mutate(Change{Kind: ChangeJobs, JobID: id}, func(st *Snapshot) bool {
		i := jobIndex(st.Jobs, id)
		if i < 0 {
			return false
		}
		before = st.Jobs[i]
		after = fn(before)
		st.Jobs[i] = after
		ok = true
		return true
	})
	return before, after, ok
}

func (s *Store) RemoveJob(id string) (models.Job, bool) {
	var removed models.Job
	ok := s.mutate(Change{Kind: ChangeJobs, JobID: id}, func(st *Snapshot) bool {
		i := jobIndex(st.Jobs, id)
		if i < 0 {
			return false
		}
		removed = st.Jobs[i]
		st.Jobs = append(st.Jobs[:i:i], st.Jobs[i+1:]...)
		return true
	})
	return removed, ok
}

func (s *Store) ReplaceJobs(jobs []models.Job) {
	s.mutate(Change{Kind: ChangeJobs}, func(st *Snapshot) bool {
		st.Jobs = cloneJobs(jobs)
		return true
	})
}

// ClearUserData drops jobs and profile. Goals, history and documents stay.
func (s *Store) ClearUserData() {
	s.mutate(Change{Kind: ChangeJobs}, func(st *Snapshot) bool {
		st.Jobs = nil
		st.Profile = nil
		return true
	})
	s.notify(Change{Kind: ChangeProfile})
}

// --- profile ---

func (s *Store) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return nil
	}
	p := s.state.Profile.Clone()
	return &p
}

func (s *Store) SetProfile(p *models.UserProfile) {
	s.mutate(Change{Kind: ChangeProfile}, func(st *Snapshot) bool {
		if p == nil {
			st.Profile = nil
			return true
		}
		c := p.Clone()
		st.Profile = &c
		return true
	})
}

// --- goals and streaks ---

func (s *Store) Goals() models.Goals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Goals.Clone()
}

func (s *Store) SetWeeklyGoals(w models.WeeklyGoals) {
	s.mutate(Change{Kind: ChangeGoals}, func(st *Snapshot) bool {
		st.Goals.Weekly = w
		return true
	})
}

func (s *Store) SetMonthlyGoals(m models.MonthlyGoals) {
	s.mutate(Change{Kind: ChangeGoals}, func(st *Snapshot) bool {
		st.Goals.Monthly = m
		return true
	})
}

func (s *Store) LogNetworkingEvent(at time.Time) {
	s.mutate(Change{Kind: ChangeGoals}, func(st *Snapshot) bool {
		st.Goals.NetworkingLog = append(st.Goals.NetworkingLog, at)
		return true
	})
}

func (s *Store) GoalHistory() []models.GoalHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.GoalHistoryEntry(nil), s.state.GoalHistory...)
}

// AppendGoalHistory records a closed week and refreshes streaks. An entry
// for a week that is already recorded is ignored.
func (s *Store) AppendGoalHistory(e models.GoalHistoryEntry) bool {
	return s.mutate(Change{Kind: ChangeHistory}, func(st *Snapshot) bool {
		for _, h := range st.GoalHistory {
			if h.WeekStart.Equal(e.WeekStart) {
				return false
			}
		}
		st.GoalHistory = append(st.GoalHistory, e)
		st.Streaks = analytics.UpdateStreaks(st.Streaks, st.GoalHistory)
		return true
	})
}

func (s *Store) Streaks() models.Streaks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Streaks.Clone()
}

// RecordActivity marks now's day as active.
func (s *Store) RecordActivity(now time.Time) models.Streaks {
	var out models.Streaks
	s.mutate(Change{Kind: ChangeStreaks}, func(st *Snapshot) bool {
		st.Streaks = analytics.RecordActivity(st.Streaks, now)
		out = st.Streaks.Clone()
		return true
	})
	return out
}

// RefreshStreaks recomputes the current streak from goal history.
func (s *Store) RefreshStreaks() models.Streaks {
	var out models.Streaks
	s.mutate(Change{Kind: ChangeStreaks}, func(st *Snapshot) bool {
		st.Streaks = analytics.UpdateStreaks(st.Streaks, st.GoalHistory)
		out = st.Streaks.Clone()
		return true
	})
	return out
}

func jobIndex(jobs []models.Job, id string) int {
	for i := range jobs {
		if jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneJobs(jobs []models.Job) []models.Job {
	if jobs == nil {
		return []models.Job{}
	}
	return append([]models.Job(nil), jobs...)
}

func (sn Snapshot) clone() Snapshot {
	out := Snapshot{
		Jobs:        cloneJobs(sn.Jobs),
		Goals:       sn.Goals.Clone(),
		GoalHistory: append([]models.GoalHistoryEntry(nil), sn.GoalHistory...),
		Streaks:     sn.Streaks.Clone(),
		Documents:   sn.Documents.Clone(),
	}
	if sn.Profile != nil {
		p := sn.Profile.Clone()
		out.Profile = &p
	}
	return out
}
