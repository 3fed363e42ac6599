// internal/remote/realtime.go
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"

	"github.com/lib/pq"
)

const listenerPingInterval = 90 * time.Second

// listener is the subset of *pq.Listener used by Realtime.
type listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

type subscriber struct {
	userID  string
	handler func(models.ChangeEvent)
}

// Realtime fans out job change notifications raised by the jobs trigger to
// per-user handlers.
type Realtime struct {
	listener listener
	channel  string
	logger   logger.Logger

	mu          sync.RWMutex
	subs        map[int]subscriber
	nextID      int
	onReconnect func()

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// NewRealtime opens a LISTEN connection on dsn. The connection reconnects
// on its own; after a reconnect the OnReconnect callback fires.
func NewRealtime(dsn, channel string, log logger.Logger) *Realtime {
	r := &Realtime{
		channel: channel,
		logger:  logger.Component(log, "remote.realtime"),
		subs:    make(map[int]subscriber),
		done:    make(chan struct{}),
	}
	r.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, r.onListenerEvent)
	return r
}

func newRealtimeWithListener(l listener, channel string, log logger.Logger) *Realtime {
	return &Realtime{
		listener: l,
		channel:  channel,
		logger:   logger.Component(log, "remote.realtime"),
		subs:     make(map[int]subscriber),
		done:     make(chan struct{}),
	}
}

func (r *Realtime) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		r.logger.Info("realtime listener connected", map[string]interface{}{"channel": r.channel})
	case pq.ListenerEventDisconnected:
		r.logger.Warn("realtime listener disconnected", map[string]interface{}{"error": err})
	case pq.ListenerEventReconnected:
		r.logger.Info("realtime listener reconnected", map[string]interface{}{"channel": r.channel})
		r.mu.RLock()
		fn := r.onReconnect
		r.mu.RUnlock()
		if fn != nil {
			go fn()
		}
	case pq.ListenerEventConnectionAttemptFailed:
		r.logger.Warn("realtime listener connection attempt failed", map[string]interface{}{"error": err})
	}
}

// OnReconnect sets the callback run after the listener reconnects.
func (r *Realtime) OnReconnect(fn func()) {
	r.mu.Lock()
	r.onReconnect = fn
	r.mu.Unlock()
}

// Start issues LISTEN and begins dispatching until ctx ends or Close is
// called. Calling Start again is a no-op.
func (r *Realtime) Start(ctx context.Context) error {
	var err error
	r.startOnce.Do(func() {
		if err = r.listener.Listen(r.channel); err != nil {
			err = fmt.Errorf("listen %s: %w", r.channel, err)
			return
		}
		go r.loop(ctx)
	})
	return err
}

func (r *Realtime) loop(ctx context.Context) {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case n, ok := <-r.listener.NotificationChannel():
			if !ok {
				return
			}
			// nil marks a reconnect; OnReconnect handles the resync.
			if n == nil {
				continue
			}
			r.dispatch([]byte(n.Extra))
		case <-ticker.C:
			go func() {
				if err := r.listener.Ping(); err != nil {
					r.logger.Warn("realtime listener ping failed", map[string]interface{}{"error": err})
				}
			}()
		}
	}
}

func (r *Realtime) dispatch(payload []byte) {
	evt, err := DecodeEvent(payload)
	if err != nil {
		r.logger.Warn("skipping malformed change payload", map[string]interface{}{
			"error": err,
			"bytes": len(payload),
		})
		return
	}

	owner := evt.RowUserID()
	r.mu.RLock()
	targets := make([]func(models.ChangeEvent), 0, len(r.subs))
	for _, s := range r.subs {
		if owner == "" || s.userID == owner {
			targets = append(targets, s.handler)
		}
	}
	r.mu.RUnlock()

	for _, h := range targets {
		h(evt)
	}
}

// Subscribe registers handler for changes to userID's rows.
func (r *Realtime) Subscribe(_ context.Context, userID string, handler func(models.ChangeEvent)) (io.Closer, error) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = subscriber{userID: userID, handler: handler}
	r.mu.Unlock()

	r.logger.Debug("realtime subscriber added", map[string]interface{}{"userId": userID})
	return &registration{r: r, id: id}, nil
}

// Close stops dispatching and closes the listener. Later calls return nil.
func (r *Realtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.listener.Close()
	})
	return err
}

type registration struct {
	r    *Realtime
	id   int
	once sync.Once
}

func (g *registration) Close() error {
	g.once.Do(func() {
		g.r.mu.Lock()
		delete(g.r.subs, g.id)
		g.r.mu.Unlock()
	})
	return nil
}

// DecodeEvent parses a trigger payload of the form
// {"eventType": "...", "new": {...}, "old": {...}}.
func DecodeEvent(payload []byte) (models.ChangeEvent, error) {
	var evt models.ChangeEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return models.ChangeEvent{}, fmt.Errorf("decode change event: %w", err)
	}
	switch evt.EventType {
	case models.EventInsert, models.EventUpdate, models.EventDelete:
	default:
		return models.ChangeEvent{}, fmt.Errorf("decode change event: unknown event type %q", evt.EventType)
	}
	if evt.RowID() == "" {
		return models.ChangeEvent{}, fmt.Errorf("decode change event: missing row id")
	}
	return evt, nil
}
