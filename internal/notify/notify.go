// Package notify delivers user-facing notices: the short messages shown
// after a change could not be saved.
package notify

import (
	"context"
	"sync"
	"time"

	"jobtracker/internal/common/aws"
	"jobtracker/internal/common/logger"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives notices. Delivery is best effort; implementations log
// their own failures.
type Sink interface {
	Notify(ctx context.Context, n Notice)
}

// MemoryNotifier keeps the most recent notices until they are drained.
type MemoryNotifier struct {
	mu       sync.Mutex
	capacity int
	notices  []Notice
}

func NewMemoryNotifier(capacity int) *MemoryNotifier {
	if capacity <= 0 {
		capacity = 50
	}
	return &MemoryNotifier{capacity: capacity}
}

func (m *MemoryNotifier) Notify(_ context.Context, n Notice) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
	if over := len(m.notices) - m.capacity; over > 0 {
		m.notices = append([]Notice(nil), m.notices[over:]...)
	}
}

// Drain returns pending notices, oldest first, and forgets them.
func (m *MemoryNotifier) Drain() []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.notices
	m.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// SNSNotifier publishes each notice as JSON to a topic.
type SNSNotifier struct {
	client   *aws.SNSClient
	topicARN string
	logger   logger.Logger
}

func NewSNSNotifier(client *aws.SNSClient, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   logger.Component(log, "notify.sns"),
	}
}

func (s *SNSNotifier) Notify(ctx context.Context, n Notice) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	id, err := s.client.PublishJSON(ctx, s.topicARN, n.Title, n, map[string]string{"level": string(n.Level)})
	if err != nil {
		s.logger.Warn("failed to publish notice", map[string]interface{}{
			"error": err,
			"title": n.Title,
		})
		return
	}
	s.logger.Debug("notice published", map[string]interface{}{"messageId": id})
}

// Multi fans a notice out to every sink in order.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}
