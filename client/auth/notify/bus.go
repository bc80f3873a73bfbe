// Package notify delivers the process-wide "unauthenticated" signal emitted
// when a session cannot be recovered.
//
// Any number of listeners can subscribe; emissions closer together than the
// bus MinInterval are dropped, so a burst of requests failing at the same
// time produces a single signal.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/viant/authclient/internal/collection"
)

// DefaultMinInterval is the minimum time between two delivered events.
const DefaultMinInterval = time.Second

// Event is the unauthenticated notification payload.
type Event struct {
	ID     string    `json:"id"`
	Reason string    `json:"reason"`
	Time   time.Time `json:"time"`
}

// Listener handles an Event. Errors are logged and never reach the emitter.
type Listener func(ctx context.Context, event Event) error

// Notifier emits the unauthenticated signal.
type Notifier interface {
	Emit(ctx context.Context, reason string) bool
}

type Option func(*Bus)

// WithClock sets clock
func WithClock(clock clockwork.Clock) Option {
	return func(b *Bus) {
		b.clock = clock
	}
}

// WithMinInterval sets the rate limit window
func WithMinInterval(interval time.Duration) Option {
	return func(b *Bus) {
		b.minInterval = interval
	}
}

// WithLogger sets logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Bus) {
		b.log = log
	}
}

// Bus is a rate limited publish/subscribe hub for Event.
type Bus struct {
	listeners   *collection.SyncMap[string, Listener]
	clock       clockwork.Clock
	minInterval time.Duration
	log         logrus.FieldLogger

	mu       sync.Mutex // protects lastEmit
	lastEmit time.Time
}

// NewBus creates a Bus.
func NewBus(options ...Option) *Bus {
	ret := &Bus{
		listeners:   collection.NewSyncMap[string, Listener](),
		clock:       clockwork.NewRealClock(),
		minInterval: DefaultMinInterval,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.log = ret.log.WithField("component", "notify")
	return ret
}

// Subscribe registers listener and returns a function removing it.
func (b *Bus) Subscribe(listener Listener) func() {
	id := uuid.NewString()
	b.listeners.Put(id, listener)
	return func() {
		b.listeners.Delete(id)
	}
}

// Listeners returns the number of registered listeners.
func (b *Bus) Listeners() int {
	return b.listeners.Len()
}

// Emit delivers an Event with reason to every listener, unless an event was
// delivered less than MinInterval ago. It reports whether the event was
// delivered.
func (b *Bus) Emit(ctx context.Context, reason string) bool {
	now := b.clock.Now()
	b.mu.Lock()
	if !b.lastEmit.IsZero() && now.Sub(b.lastEmit) < b.minInterval {
		b.mu.Unlock()
		b.log.WithField("reason", reason).Debug("Dropping unauthenticated event inside rate limit window")
		return false
	}
	b.lastEmit = now
	b.mu.Unlock()

	event := Event{ID: uuid.NewString(), Reason: reason, Time: now}
	listeners := b.listeners.Values()
	b.log.WithFields(logrus.Fields{"reason": reason, "listeners": len(listeners)}).Info("Session is unauthenticated")
	for _, listener := range listeners {
		if err := listener(ctx, event); err != nil {
			b.log.WithError(err).WithField("event", event.ID).Warn("Unauthenticated listener failed")
		}
	}
	return true
}
