// Package notify implements the transient notification queue. Every pushed
// notification expires after a fixed TTL unless it is removed first.
package notify

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/types"
)

// DefaultTTL is how long a notification stays visible
const DefaultTTL = 3 * time.Second

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RemovalReason says why a notification left the queue
type RemovalReason string

const (
	// ReasonExpired means the TTL elapsed
	ReasonExpired RemovalReason = "expired"
	// ReasonDismissed means Remove was called
	ReasonDismissed RemovalReason = "dismissed"
)

// RemovalObserver is called once per removed notification, outside the queue lock
type RemovalObserver func(n models.Notification, reason RemovalReason)

// Config holds configuration for the queue
type Config struct {
	TTL    time.Duration
	Clock  Clock
	Logger *logging.Logger
}

// Queue holds the active notifications in push order
type Queue struct {
	ttl    time.Duration
	clock  Clock
	logger *logging.Logger

	mu        sync.Mutex
	items     []models.Notification
	live      map[uint64]bool
	deadlines deadlineHeap
	lastID    uint64
	observers []RemovalObserver

	// wake nudges the scheduler when an earlier deadline arrives
	wake chan struct{}
}

// NewQueue creates an empty queue
func NewQueue(cfg Config) *Queue {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}
	return &Queue{
		ttl:    cfg.TTL,
		clock:  cfg.Clock,
		logger: cfg.Logger.WithField("component", "notifications"),
		live:   make(map[uint64]bool),
		wake:   make(chan struct{}, 1),
	}
}

// OnRemoved registers an observer for removals
func (q *Queue) OnRemoved(fn RemovalObserver) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, fn)
}

// TTL returns the configured lifetime of a notification
func (q *Queue) TTL() time.Duration {
	return q.ttl
}

// Push appends a notification and schedules its expiry. Unknown severities
// are treated as success. The returned id is strictly greater than any
// previously issued id.
func (q *Queue) Push(message string, severity types.Severity) uint64 {
	if severity != types.SeverityError {
		severity = types.SeveritySuccess
	}

	now := q.clock.Now()

	q.mu.Lock()
	id := uint64(now.UnixMilli())
	if id <= q.lastID {
		id = q.lastID + 1
	}
	q.lastID = id

	n := models.Notification{
		ID:        id,
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}
	q.items = append(q.items, n)
	q.live[id] = true
	heap.Push(&q.deadlines, deadline{at: n.ExpiresAt, id: id})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	q.logger.WithFields(map[string]interface{}{
		"id":       id,
		"severity": severity,
	}).Debug("notification pushed")

	return id
}

// Remove dismisses a notification. It reports false when the id is not active.
// Deadlines already passed are swept first, so an expired notification is
// reported as expired rather than dismissed.
func (q *Queue) Remove(id uint64) bool {
	q.Expire(q.clock.Now())

	q.mu.Lock()
	n, ok := q.take(id)
	observers := q.observers
	q.mu.Unlock()

	if !ok {
		return false
	}
	for _, fn := range observers {
		fn(n, ReasonDismissed)
	}
	return true
}

// Active returns the notifications that have not expired, oldest first
func (q *Queue) Active() []models.Notification {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.Notification, 0, len(q.items))
	for _, n := range q.items {
		if now.Before(n.ExpiresAt) {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of notifications not yet removed
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Expire removes every notification whose deadline is at or before now.
// A notification already dismissed is skipped, so each one is removed exactly once.
func (q *Queue) Expire(now time.Time) []models.Notification {
	q.mu.Lock()
	var expired []models.Notification
	for q.deadlines.Len() > 0 && !q.deadlines[0].at.After(now) {
		d := heap.Pop(&q.deadlines).(deadline)
		if n, ok := q.take(d.id); ok {
			expired = append(expired, n)
		}
	}
	observers := q.observers
	q.mu.Unlock()

	for _, n := range expired {
		for _, fn := range observers {
			fn(n, ReasonExpired)
		}
	}
	return expired
}

// nextDeadline returns the earliest scheduled expiry
func (q *Queue) nextDeadline() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deadlines.Len() == 0 {
		return time.Time{}, false
	}
	return q.deadlines[0].at, true
}

// Run is the single expiry scheduler. It sleeps until the earliest deadline,
// is woken early by pushes and returns when ctx is done.
func (q *Queue) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		q.Expire(q.clock.Now())

		var timerC <-chan time.Time
		if at, ok := q.nextDeadline(); ok {
			timer.Reset(max(at.Sub(q.clock.Now()), 0))
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-timerC:
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

// take removes id from the active list; the caller holds q.mu
func (q *Queue) take(id uint64) (models.Notification, bool) {
	if !q.live[id] {
		return models.Notification{}, false
	}
	delete(q.live, id)

	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return n, true
		}
	}
	return models.Notification{}, false
}

type deadline struct {
	at time.Time
	id uint64
}

// deadlineHeap is a min-heap ordered by expiry then id
type deadlineHeap []deadline

func (h deadlineHeap) Len() int { return len(h) }

func (h deadlineHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].id < h[j].id
	}
	return h[i].at.Before(h[j].at)
}

func (h deadlineHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *deadlineHeap) Push(x any) { *h = append(*h, x.(deadline)) }

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
