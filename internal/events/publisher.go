// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Event types published on friendship mutations.
const (
	TypeInvitationSent     = "invitation_sent"
	TypeInvitationAccepted = "invitation_accepted"
	TypeInvitationDenied   = "invitation_denied"
	TypeFriendRemoved      = "friend_removed"
)

// DefaultQueueName is the Redis list friend events are pushed to for
// external consumers.
var DefaultQueueName = "amici_friend_events"

// FriendEventRecord describes one friendship mutation. Actor is the user
// who triggered it; Subject is the user who should be told about it.
type FriendEventRecord struct {
	Type      string    `json:"type"`
	ActorID   uuid.UUID `json:"actor_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Timestamp int64     `json:"timestamp"`
}

// Publisher fans friend events out to two places: a Redis queue for
// external consumers, and in-process subscribers (the notify websocket).
// Both paths are best effort; a failed publish never changes the verdict
// of the mutation that produced it.
type Publisher struct {
	rdb   *redis.Client
	queue string

	mu   sync.RWMutex
	subs map[uuid.UUID][]chan FriendEventRecord

	log *logrus.Logger
}

// NewPublisher connects to Redis using REDIS_ADDR (default
// "localhost:6379") and REDIS_DB.
func NewPublisher(log *logrus.Logger) (*Publisher, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	queue := os.Getenv("FRIEND_EVENTS_QUEUE")
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue, subs: make(map[uuid.UUID][]chan FriendEventRecord), log: log}, nil
}

// NewInProcessPublisher builds a publisher without a Redis backend. Events
// still reach in-process subscribers; used in dev mode and tests.
func NewInProcessPublisher(log *logrus.Logger) *Publisher {
	return &Publisher{subs: make(map[uuid.UUID][]chan FriendEventRecord), log: log}
}

// Publish pushes the record to the Redis queue and to any subscriber of
// the subject user. Subscribers with full buffers are skipped rather than
// blocked on.
func (p *Publisher) Publish(ctx context.Context, rec FriendEventRecord) {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}

	if p.rdb != nil {
		data, err := json.Marshal(rec)
		if err == nil {
			err = p.rdb.RPush(ctx, p.queue, data).Err()
		}
		if err != nil && p.log != nil {
			p.log.WithError(err).Warn("failed to publish friend event to redis")
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs[rec.SubjectID] {
		select {
		case ch <- rec:
		default:
		}
	}
}

// Subscribe registers a buffered channel receiving events addressed to
// userID. The caller must Unsubscribe with the same channel when done.
func (p *Publisher) Subscribe(userID uuid.UUID) chan FriendEventRecord {
	ch := make(chan FriendEventRecord, 16)
	p.mu.Lock()
	p.subs[userID] = append(p.subs[userID], ch)
	p.mu.Unlock()
	return ch
}

// Unsubscribe removes ch from userID's subscriber list and closes it.
func (p *Publisher) Unsubscribe(userID uuid.UUID, ch chan FriendEventRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	chans := p.subs[userID]
	for i, c := range chans {
		if c == ch {
			p.subs[userID] = append(chans[:i], chans[i+1:]...)
			close(c)
			break
		}
	}
	if len(p.subs[userID]) == 0 {
		delete(p.subs, userID)
	}
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	if p.rdb != nil {
		return p.rdb.Close()
	}
	return nil
}
