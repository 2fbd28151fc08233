package state

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
	"github.com/meomirror/server/internal/bus"
)

// Store owns the single live DeviceState. Every mutation goes through one
// mutex, so overlapping callers are applied in arrival order, and each
// mutation publishes exactly one snapshot to the bus before the next mutation
// can start. No other component holds a reference to the raw state.
type Store struct {
	mu     sync.Mutex
	state  entities.DeviceState
	bus    *bus.Bus
	now    func() time.Time
	logger *zap.Logger
}

// NewStore creates the store and publishes the initial state so the bus has a
// current snapshot for the first subscriber.
func NewStore(initial entities.DeviceState, b *bus.Bus, logger *zap.Logger) *Store {
	s := &Store{
		state:  initial,
		bus:    b,
		now:    time.Now,
		logger: logger,
	}
	s.state.Stamp(s.now())
	b.Publish(s.state)
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() entities.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ApplySensor merges the fields present in the update, stamps last_update and
// publishes the resulting snapshot.
func (s *Store) ApplySensor(update entities.SensorUpdate) entities.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	update.ApplyTo(&s.state)
	return s.commit()
}

// SetVoiceMode flips the voice subsystem fields and publishes.
func (s *Store) SetVoiceMode(enabled bool, response string) entities.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.VoiceMode = enabled
	s.state.LastVoiceResponse = response
	return s.commit()
}

// SetGeneratedImage records a new artifact reference together with the
// spoken response and publishes once.
func (s *Store) SetGeneratedImage(url, response string) entities.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.GeneratedImage = url
	s.state.LastVoiceResponse = response
	return s.commit()
}

// SetVoiceResponse updates only the spoken-response text and publishes.
func (s *Store) SetVoiceResponse(response string) entities.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.LastVoiceResponse = response
	return s.commit()
}

// commit stamps the state and publishes it. Caller must hold s.mu; publishing
// under the lock is what keeps bus order equal to mutation order, and
// bus.Publish is non-blocking so the lock is never held on a slow consumer.
func (s *Store) commit() entities.DeviceState {
	s.state.Stamp(s.now())
	snapshot := s.state
	s.bus.Publish(snapshot)
	s.logger.Debug("State committed", zap.String("lastUpdate", snapshot.LastUpdate))
	return snapshot
}
