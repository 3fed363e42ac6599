// internal/coordinator/coordinator.go
package coordinator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/logger"
	"jobtracker/internal/common/metrics"
	"jobtracker/internal/common/observability"
	"jobtracker/internal/models"
	"jobtracker/internal/notify"
	"jobtracker/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultFetchLimit    = 500
	DefaultRemoteTimeout = 10 * time.Second
)

// Backend is the remote relational store. Every call is scoped to one user.
type Backend interface {
	FetchJobs(ctx context.Context, userID string, limit int) ([]models.Job, error)
	// FetchJob returns nil, nil when the row no longer exists.
	FetchJob(ctx context.Context, userID, id string) (*models.Job, error)
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	CreateJob(ctx context.Context, job models.Job) (models.Job, error)
	UpdateJob(ctx context.Context, userID, id string, update models.JobUpdate) error
	DeleteJob(ctx context.Context, userID, id string) error
	UpsertProfile(ctx context.Context, profile models.UserProfile) error
	Subscribe(ctx context.Context, userID string, handler func(models.ChangeEvent)) (Subscription, error)
	Ping(ctx context.Context) error
}

// Subscription is an open realtime feed; Close stops delivery.
type Subscription = io.Closer

type AuthProvider interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notice)
}

type AuthEventType string

const (
	SignedIn  AuthEventType = "SIGNED_IN"
	SignedOut AuthEventType = "SIGNED_OUT"
)

type AuthEvent struct {
	Type AuthEventType
	User *models.User
}

type Config struct {
	FetchLimit    int
	RemoteTimeout time.Duration
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(c *Coordinator) { c.newID = gen }
}

func WithObservability(o *observability.Observability) Option {
	return func(c *Coordinator) { c.obs = o }
}

// Coordinator keeps the local store in step with the remote backend.
// Mutations apply locally first; job updates and deletes are reverted when
// the remote call fails.
type Coordinator struct {
	store    *store.Store
	backend  Backend
	auth     AuthProvider
	notifier Notifier
	cfg      Config
	logger   logger.Logger
	obs      *observability.Observability
	now      func() time.Time
	newID    func() string

	mu          sync.Mutex
	status      models.SyncStatus
	sub         Subscription
	syncedUser  string
	everFetched bool
	// session counts sign-outs. Work started under an older value is
	// discarded instead of applied.
	session uint64

	// applyMu orders writes of fetched state against sign-out clearing.
	applyMu sync.Mutex
}

// New builds a coordinator. backend and auth may be nil, in which case the
// coordinator runs purely against the local store.
func New(st *store.Store, backend Backend, auth AuthProvider, notifier Notifier, cfg Config, log logger.Logger, opts ...Option) *Coordinator {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = DefaultRemoteTimeout
	}
	c := &Coordinator{
		store:    st,
		backend:  backend,
		auth:     auth,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.Component(log, "coordinator"),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		status:   models.SyncStatus{Online: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	metrics.SetOnline(true)
	return c
}

// Start resolves the current user and, when signed in, hydrates the store
// from the backend and opens the realtime subscription.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	c.status.Loading = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.status.Loading = false
		c.mu.Unlock()
	}()

	user, session := c.resolveUser(ctx)
	if user == nil {
		c.logger.Info("no authenticated user, running against local store only", nil)
		return nil
	}
	return c.syncUser(ctx, user, session)
}

// stale reports whether a sign-out happened since session was read.
// Callers hold c.mu.
func (c *Coordinator) stale(session uint64) bool {
	return c.session != session
}

func (c *Coordinator) resolveUser(ctx context.Context) (*models.User, uint64) {
	if c.auth == nil || c.backend == nil {
		return nil, 0
	}
	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("could not resolve current user", map[string]interface{}{"error": err})
		return nil, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.User = user
	return user, c.session
}

// HandleAuthEvent reacts to sign-in and sign-out transitions.
func (c *Coordinator) HandleAuthEvent(ctx context.Context, evt AuthEvent) error {
	switch evt.Type {
	case SignedIn:
		if evt.User == nil || c.backend == nil {
			return nil
		}
		c.mu.Lock()
		c.status.User = evt.User
		session := c.session
		c.mu.Unlock()
		return c.syncUser(ctx, evt.User, session)

	case SignedOut:
		c.applyMu.Lock()
		c.mu.Lock()
		c.session++
		c.status.User = nil
		c.syncedUser = ""
		c.everFetched = false
		c.status.InitialFetchDone = false
		sub := c.sub
		c.sub = nil
		c.mu.Unlock()
		c.store.ClearUserData()
		c.applyMu.Unlock()

		c.closeSubscription(sub)
		c.logger.Info("signed out, cleared local user data", nil)
		return nil
	}
	return fmt.Errorf("unknown auth event %q", evt.Type)
}

// syncUser runs fetch and subscribe once per sign-in. session is the
// counter value read when user was recorded.
func (c *Coordinator) syncUser(ctx context.Context, user *models.User, session uint64) error {
	c.mu.Lock()
	if c.stale(session) || c.syncedUser == user.ID {
		c.mu.Unlock()
		return nil
	}
	c.syncedUser = user.ID
	c.mu.Unlock()

	if err := c.fetchAll(ctx, user, session); err != nil {
		c.mu.Lock()
		if !c.stale(session) {
			c.syncedUser = ""
		}
		c.mu.Unlock()
		return err
	}
	return c.subscribe(ctx, user, session)
}

// fetchAll replaces local jobs and profile with the remote copies. On any
// failure local data is left untouched. Results that arrive after a
// sign-out are dropped.
func (c *Coordinator) fetchAll(ctx context.Context, user *models.User, session uint64) error {
	c.setSyncing(true)
	defer c.setSyncing(false)

	var (
		jobs    []models.Job
		profile *models.UserProfile
	)
	err := c.call(ctx, "fetch", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			jobs, err = c.backend.FetchJobs(gctx, user.ID, c.cfg.FetchLimit)
			return err
		})
		g.Go(func() error {
			var err error
			profile, err = c.backend.FetchProfile(gctx, user.ID)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		wrapped := apperrors.NewRemoteCallFailedError("fetch", err)
		c.setLastError(wrapped)
		c.logger.Error("initial fetch failed, keeping local data", map[string]interface{}{
			"error":  err,
			"userId": user.ID,
		})
		return wrapped
	}

	c.applyMu.Lock()
	c.mu.Lock()
	if c.stale(session) {
		c.mu.Unlock()
		c.applyMu.Unlock()
		c.logger.Info("signed out during fetch, discarding result", map[string]interface{}{"userId": user.ID})
		return nil
	}
	c.mu.Unlock()

	c.store.ReplaceJobs(jobs)
	c.store.SetProfile(profile)

	now := c.now()
	c.mu.Lock()
	c.status.LastSyncedAt = &now
	c.status.LastError = ""
	c.status.InitialFetchDone = true
	c.everFetched = true
	c.mu.Unlock()
	c.applyMu.Unlock()

	c.logger.Info("fetched remote state", map[string]interface{}{
		"userId":     user.ID,
		"jobs":       len(jobs),
		"hasProfile": profile != nil,
	})
	return nil
}

func (c *Coordinator) subscribe(ctx context.Context, user *models.User, session uint64) error {
	c.mu.Lock()
	stale := c.stale(session)
	c.mu.Unlock()
	if stale {
		return nil
	}

	sub, err := c.backend.Subscribe(ctx, user.ID, func(evt models.ChangeEvent) {
		c.HandleChange(user.ID, evt)
	})
	if err != nil {
		wrapped := apperrors.NewRemoteCallFailedError("subscribe", err)
		c.setLastError(wrapped)
		c.logger.Error("realtime subscription failed", map[string]interface{}{"error": err})
		return wrapped
	}

	c.mu.Lock()
	if c.stale(session) {
		c.mu.Unlock()
		c.closeSubscription(sub)
		return nil
	}
	prev := c.sub
	c.sub = sub
	c.mu.Unlock()
	c.closeSubscription(prev)
	return nil
}

func (c *Coordinator) closeSubscription(sub Subscription) {
	if sub == nil {
		return
	}
	if err := sub.Close(); err != nil {
		c.logger.Warn("closing realtime subscription", map[string]interface{}{"error": err})
	}
}

// HandleChange applies one realtime event for userID's job table.
func (c *Coordinator) HandleChange(userID string, evt models.ChangeEvent) {
	if owner := evt.RowUserID(); owner != "" && owner != userID {
		metrics.RealtimeEvents.WithLabelValues(string(evt.EventType), "false").Inc()
		return
	}

	var local *models.Job
	if j, ok := c.store.Job(evt.RowID()); ok {
		local = &j
	}

	job, action, err := Reconcile(local, evt)
	if err != nil {
		c.logger.Warn("dropping malformed realtime event", map[string]interface{}{
			"error":     err,
			"eventType": evt.EventType,
		})
		metrics.RealtimeEvents.WithLabelValues(string(evt.EventType), "false").Inc()
		return
	}

	applied := true
	switch action {
	case ActionPut:
		c.store.PutJob(job)
	case ActionDelete:
		c.store.RemoveJob(job.ID)
	case ActionRefetch:
		applied = c.refetchJob(userID, job.ID)
	default:
		applied = false
	}
	metrics.RealtimeEvents.WithLabelValues(string(evt.EventType), fmt.Sprint(applied)).Inc()
	c.logger.Debug("realtime event", map[string]interface{}{
		"eventType": evt.EventType,
		"jobId":     evt.RowID(),
		"applied":   applied,
	})
}

// refetchJob reads one row the feed only named and applies it locally.
func (c *Coordinator) refetchJob(userID, id string) bool {
	if c.backend == nil {
		return false
	}
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	var row *models.Job
	err := c.call(context.Background(), "fetch_job", func(ctx context.Context) error {
		var err error
		row, err = c.backend.FetchJob(ctx, userID, id)
		return err
	})
	if err != nil {
		c.logger.Warn("could not re-read changed job", map[string]interface{}{
			"error": err,
			"jobId": id,
		})
		return false
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.mu.Lock()
	stale := c.stale(session)
	c.mu.Unlock()
	if stale {
		return false
	}
	if row == nil {
		_, removed := c.store.RemoveJob(id)
		return removed
	}
	c.store.PutJob(*row)
	return true
}

// SetOnline records a connectivity change. Coming back online refetches
// everything if an initial fetch has completed before.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) error {
	c.mu.Lock()
	wasOnline := c.status.Online
	c.status.Online = online
	refetch := online && !wasOnline && c.everFetched && c.status.User != nil
	user := c.status.User
	session := c.session
	c.mu.Unlock()

	metrics.SetOnline(online)
	if wasOnline != online {
		c.logger.Info("connectivity changed", map[string]interface{}{"online": online})
	}
	if !refetch {
		return nil
	}
	return c.fetchAll(ctx, user, session)
}

// Resync refetches everything for the signed-in user. It is used after
// the realtime feed reconnects, since events may have been missed.
func (c *Coordinator) Resync(ctx context.Context) error {
	c.mu.Lock()
	user := c.status.User
	ready := c.everFetched && user != nil
	session := c.session
	c.mu.Unlock()
	if !ready {
		return nil
	}
	c.logger.Info("resyncing after realtime reconnect", map[string]interface{}{"userId": user.ID})
	return c.fetchAll(ctx, user, session)
}

// Status returns a copy of the current sync status.
func (c *Coordinator) Status() models.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.LastSyncedAt != nil {
		t := *s.LastSyncedAt
		s.LastSyncedAt = &t
	}
	return s
}

// Close tears down the realtime subscription.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Close()
}

func (c *Coordinator) currentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.User == nil || c.backend == nil {
		return nil
	}
	u := *c.status.User
	return &u
}

func (c *Coordinator) setSyncing(v bool) {
	c.mu.Lock()
	c.status.Syncing = v
	c.mu.Unlock()
}

func (c *Coordinator) setLastError(err error) {
	c.mu.Lock()
	c.status.LastError = apperrors.UserMessage(err)
	c.mu.Unlock()
}
