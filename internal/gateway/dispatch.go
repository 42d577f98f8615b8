package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

// defaultHighWater is the per-subscription event buffer.
const defaultHighWater = 64

// slowConsumerWarnAfter is how long a delivery may block on a full
// subscription queue before a warning is logged.
const slowConsumerWarnAfter = 5 * time.Second

// StreamEvent is one typed, immutable unit of server-pushed information.
type StreamEvent struct {
	Type protocol.EventType
	Data map[string]any
}

// Subscription is a consumer's registered interest in a filtered
// subsequence of stream events. Events() yields events in the order the
// transport received them until the consumer calls Close or the gateway
// shuts down, at which point the channel is closed (it never errors).
type Subscription struct {
	id     string
	filter map[protocol.EventType]bool
	ch     chan StreamEvent
	done   chan struct{}

	doneOnce sync.Once
	sendMu   sync.Mutex
	closed   bool

	unsub func(id string)
}

// Events returns the delivery channel. It is closed on Close and on gateway
// shutdown; a closed channel (after draining) is the graceful-end signal.
func (s *Subscription) Events() <-chan StreamEvent { return s.ch }

// Close stops the subscription and deregisters it from the dispatcher.
// Idempotent. Buffered events remain readable until the channel drains.
func (s *Subscription) Close() {
	if s.unsub != nil {
		s.unsub(s.id)
	} else {
		s.terminate()
	}
}

// ID returns the subscription's identifier, used in logs.
func (s *Subscription) ID() string { return s.id }

func (s *Subscription) matches(t protocol.EventType) bool {
	return len(s.filter) == 0 || s.filter[t]
}

// deliver enqueues one event. When the queue is at its high-water mark the
// caller (the inbound reader) blocks until the consumer drains or the
// subscription ends; events are never dropped, since losing a done or error
// event corrupts caller state machines.
func (s *Subscription) deliver(ev StreamEvent, logger *slog.Logger) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
		return
	default:
	}

	warn := time.NewTimer(slowConsumerWarnAfter)
	defer warn.Stop()
	for {
		select {
		case s.ch <- ev:
			return
		case <-s.done:
			return
		case <-warn.C:
			logger.Warn("slow subscriber, inbound delivery blocked",
				"sub_id", s.id,
				"event_type", ev.Type,
			)
		}
	}
}

// terminate ends the subscription: unblocks any in-flight delivery, then
// closes the event channel. Safe to call more than once.
func (s *Subscription) terminate() {
	s.doneOnce.Do(func() { close(s.done) })

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// dispatcher fans inbound stream events out to every live subscription
// whose filter matches. Subscription set mutations are mutex-protected;
// publish is invoked serially by the connection's reader loop, so delivery
// order within a subscription equals transport receive order.
type dispatcher struct {
	mu        sync.RWMutex
	subs      map[string]*Subscription
	closed    bool
	highWater int
	logger    *slog.Logger
}

func newDispatcher(highWater int, logger *slog.Logger) *dispatcher {
	if highWater <= 0 {
		highWater = defaultHighWater
	}
	return &dispatcher{
		subs:      make(map[string]*Subscription),
		highWater: highWater,
		logger:    logger.With("component", "dispatcher"),
	}
}

// subscribe registers a new sink. An empty type list means all events.
// Each call creates an independent subscription that sees only events
// published after this point.
func (d *dispatcher) subscribe(types ...protocol.EventType) *Subscription {
	s := &Subscription{
		id:    uuid.New().String(),
		ch:    make(chan StreamEvent, d.highWater),
		done:  make(chan struct{}),
		unsub: d.unsubscribe,
	}
	if len(types) > 0 {
		s.filter = make(map[protocol.EventType]bool, len(types))
		for _, t := range types {
			s.filter[t] = true
		}
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		s.terminate()
		return s
	}
	d.subs[s.id] = s
	d.mu.Unlock()

	d.logger.Debug("subscriber added", "sub_id", s.id, "filter_size", len(types))
	return s
}

// unsubscribe removes one subscription and ends it.
func (d *dispatcher) unsubscribe(id string) {
	d.mu.Lock()
	s, ok := d.subs[id]
	if ok {
		delete(d.subs, id)
	}
	d.mu.Unlock()

	if ok {
		s.terminate()
		d.logger.Debug("subscriber removed", "sub_id", id)
	}
}

// publish delivers one event to every matching subscription.
func (d *dispatcher) publish(ev StreamEvent) {
	d.mu.RLock()
	targets := make([]*Subscription, 0, len(d.subs))
	for _, s := range d.subs {
		if s.matches(ev.Type) {
			targets = append(targets, s)
		}
	}
	d.mu.RUnlock()

	for _, s := range targets {
		s.deliver(ev, d.logger)
	}
}

// closeAll ends every subscription and refuses new ones. Consumers observe
// their channels closing, not an error: graceful shutdown is distinguishable
// from a failed call.
func (d *dispatcher) closeAll() {
	d.mu.Lock()
	subs := d.subs
	d.subs = make(map[string]*Subscription)
	d.closed = true
	d.mu.Unlock()

	for _, s := range subs {
		s.terminate()
	}
	if len(subs) > 0 {
		d.logger.Debug("dispatcher closed", "terminated", len(subs))
	}
}

// reopen allows a closed dispatcher to accept subscriptions again after a
// reconnect.
func (d *dispatcher) reopen() {
	d.mu.Lock()
	d.closed = false
	d.mu.Unlock()
}

// count reports the number of live subscriptions.
func (d *dispatcher) count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}
