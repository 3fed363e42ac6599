package remote

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListener struct {
	ch        chan *pq.Notification
	listenErr error
	listened  []string
	closed    bool
	closes    int32
}

func newFakeListener() *fakeListener {
	return &fakeListener{ch: make(chan *pq.Notification, 8)}
}

func (f *fakeListener) Listen(channel string) error {
	f.listened = append(f.listened, channel)
	return f.listenErr
}
func (f *fakeListener) NotificationChannel() <-chan *pq.Notification { return f.ch }
func (f *fakeListener) Ping() error                                  { return nil }
func (f *fakeListener) Close() error {
	atomic.AddInt32(&f.closes, 1)
	f.closed = true
	return nil
}

type collector struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (c *collector) handle(evt models.ChangeEvent) {
	c.mu.Lock()
	c.events = append(c.events, evt)
	c.mu.Unlock()
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		want    models.EventType
	}{
		{"insert", `{"eventType":"INSERT","new":{"id":"j1","user_id":"u1","notes":null},"old":null}`, false, models.EventInsert},
		{"delete uses old row", `{"eventType":"DELETE","new":null,"old":{"id":"j1","user_id":"u1"}}`, false, models.EventDelete},
		{"not json", `{"eventType":`, true, ""},
		{"unknown type", `{"eventType":"TRUNCATE","new":{"id":"j1"}}`, true, ""},
		{"missing id", `{"eventType":"UPDATE","new":{"company":"Acme"}}`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := DecodeEvent([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, evt.EventType)
			assert.Equal(t, "j1", evt.RowID())
		})
	}
}

func TestRealtime_DispatchesPerUser(t *testing.T) {
	l := newFakeListener()
	rt := newRealtimeWithListener(l, "job_changes", logger.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	require.NoError(t, rt.Start(ctx), "second start is a no-op")
	assert.Equal(t, []string{"job_changes"}, l.listened)

	var mine, theirs collector
	sub, err := rt.Subscribe(ctx, "u1", mine.handle)
	require.NoError(t, err)
	_, err = rt.Subscribe(ctx, "u2", theirs.handle)
	require.NoError(t, err)

	l.ch <- &pq.Notification{Extra: `{"eventType":"INSERT","new":{"id":"j1","user_id":"u1"}}`}
	l.ch <- nil
	l.ch <- &pq.Notification{Extra: `garbage`}
	l.ch <- &pq.Notification{Extra: `{"eventType":"UPDATE","new":{"id":"j2","user_id":"u2"}}`}

	assert.Eventually(t, func() bool { return mine.count() == 1 && theirs.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, sub.Close())
	l.ch <- &pq.Notification{Extra: `{"eventType":"DELETE","old":{"id":"j1","user_id":"u1"}}`}
	l.ch <- &pq.Notification{Extra: `{"eventType":"DELETE","old":{"id":"j2","user_id":"u2"}}`}
	assert.Eventually(t, func() bool { return theirs.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, mine.count(), "closed subscription receives nothing")

	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())
	assert.True(t, l.closed)
}

func TestRealtime_ConcurrentClose(t *testing.T) {
	l := newFakeListener()
	rt := newRealtimeWithListener(l, "job_changes", logger.NewNoOpLogger())
	require.NoError(t, rt.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rt.Close())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&l.closes))
	assert.NoError(t, rt.Close())
}

func TestRealtime_ListenError(t *testing.T) {
	l := newFakeListener()
	l.listenErr = errors.New("permission denied")
	rt := newRealtimeWithListener(l, "job_changes", logger.NewNoOpLogger())

	assert.ErrorContains(t, rt.Start(context.Background()), "permission denied")
}

func TestRealtime_ReconnectCallback(t *testing.T) {
	rt := newRealtimeWithListener(newFakeListener(), "job_changes", logger.NewNoOpLogger())

	called := make(chan struct{}, 1)
	rt.OnReconnect(func() { called <- struct{}{} })
	rt.onListenerEvent(pq.ListenerEventDisconnected, errors.New("eof"))
	rt.onListenerEvent(pq.ListenerEventReconnected, nil)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("reconnect callback not called")
	}
}
