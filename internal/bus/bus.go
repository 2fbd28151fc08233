package bus

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
)

// DefaultQueueSize is the per-subscriber snapshot queue depth.
const DefaultQueueSize = 16

// Bus fans out device-state snapshots to any number of subscribers. Publishing
// never blocks on a subscriber: each subscriber owns a bounded queue and when
// it is full the oldest queued snapshot is evicted to make room for the newest
// one. Snapshots are self-contained, so a consumer that lost intermediate ones
// is fully consistent again after the next read.
type Bus struct {
	mu         sync.Mutex
	subs       map[string]*Subscriber
	current    entities.DeviceState
	hasCurrent bool
	queueSize  int
	logger     *zap.Logger
}

// Subscriber is one connected display client's end of the bus.
type Subscriber struct {
	ID string
	ch chan entities.DeviceState
}

// Events returns the subscriber's delivery queue. It is closed by Unsubscribe.
func (s *Subscriber) Events() <-chan entities.DeviceState {
	return s.ch
}

// NewBus creates a bus with the given per-subscriber queue depth.
// queueSize <= 0 selects DefaultQueueSize.
func NewBus(queueSize int, logger *zap.Logger) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		subs:      make(map[string]*Subscriber),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Subscribe registers a new subscriber. The first item on its queue is the
// most recently published snapshot, so a late or reconnecting client renders
// correctly before the next state change arrives.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID: uuid.NewString(),
		ch: make(chan entities.DeviceState, b.queueSize),
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	if b.hasCurrent {
		sub.ch <- b.current
	}
	b.mu.Unlock()

	b.logger.Info("Subscriber registered", zap.String("subscriberID", sub.ID))
	return sub
}

// Unsubscribe removes the subscriber and closes its queue. Safe to call once
// per subscriber; unknown IDs are ignored.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[sub.ID]; ok {
		delete(b.subs, sub.ID)
		close(sub.ch)
	}
	b.mu.Unlock()

	b.logger.Info("Subscriber unregistered", zap.String("subscriberID", sub.ID))
}

// Publish enqueues the snapshot on every live subscriber's queue and records
// it as the current snapshot for future subscribers. Publish never blocks:
// a full queue has its oldest item dropped first.
func (b *Bus) Publish(snapshot entities.DeviceState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = snapshot
	b.hasCurrent = true

	for _, sub := range b.subs {
		select {
		case sub.ch <- snapshot:
		default:
			// Queue full: evict the oldest snapshot. The consumer may have
			// raced us and drained the queue, so the retry still has to be
			// non-blocking.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snapshot:
			default:
			}
			b.logger.Debug("Dropped oldest snapshot for slow subscriber",
				zap.String("subscriberID", sub.ID))
		}
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
