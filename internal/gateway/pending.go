package gateway

import (
	"log/slog"
	"sync"
)

// callResult is what resolves a pending request slot: a raw result or a
// typed failure, never both.
type callResult struct {
	result []byte
	err    error
}

// pendingTable maps correlation ids to in-flight request slots. Each slot
// resolves exactly once; late or duplicate resolutions are no-ops so that a
// response arriving after a timeout cannot crash or resurface.
type pendingTable struct {
	mu     sync.Mutex
	slots  map[string]chan callResult
	closed bool
	logger *slog.Logger
}

func newPendingTable(logger *slog.Logger) *pendingTable {
	return &pendingTable{
		slots:  make(map[string]chan callResult),
		logger: logger.With("component", "pending"),
	}
}

// register creates the slot for a new correlation id. After failAll has
// torn the table down, registration fails with a connection error until
// reopen: a slot created then would outlive the sweep and never resolve.
// Registering an id that already has a live slot is an internal consistency
// error; it can only happen under a broken id generator.
func (p *pendingTable) register(id string) (<-chan callResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, NewConnectionError(CodeConnectionClosed, "connection closed", nil)
	}
	if _, ok := p.slots[id]; ok {
		return nil, NewGatewayError(CodeDuplicateID, "correlation id already registered: "+id)
	}
	ch := make(chan callResult, 1)
	p.slots[id] = ch
	return ch, nil
}

// resolve completes the slot for id with a raw result and removes it.
// Unknown or already-completed ids are ignored.
func (p *pendingTable) resolve(id string, result []byte) {
	if ch, ok := p.take(id); ok {
		ch <- callResult{result: result}
	}
}

// fail completes the slot for id with an error and removes it. Unknown or
// already-completed ids are ignored.
func (p *pendingTable) fail(id string, err error) {
	if ch, ok := p.take(id); ok {
		ch <- callResult{err: err}
	}
}

// remove deregisters a slot without completing it. Used when the caller
// cancels or times out and loses interest in the eventual response.
func (p *pendingTable) remove(id string) {
	p.mu.Lock()
	delete(p.slots, id)
	p.mu.Unlock()
}

// failAll completes every registered slot with err, clears the table and
// marks it closed so late registrations cannot slip in behind the sweep.
// Called on disconnect so no caller is left hanging.
func (p *pendingTable) failAll(err error) {
	p.mu.Lock()
	slots := p.slots
	p.slots = make(map[string]chan callResult)
	p.closed = true
	p.mu.Unlock()

	for id, ch := range slots {
		ch <- callResult{err: err}
		p.logger.Debug("failed pending request", "request_id", id, "reason", err)
	}
}

// reopen allows a torn-down table to accept registrations again after a
// reconnect.
func (p *pendingTable) reopen() {
	p.mu.Lock()
	p.closed = false
	p.mu.Unlock()
}

func (p *pendingTable) take(id string) (chan callResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.slots[id]
	if !ok {
		p.logger.Debug("response for unknown request, discarding", "request_id", id)
		return nil, false
	}
	delete(p.slots, id)
	return ch, true
}

// size reports the number of in-flight requests.
func (p *pendingTable) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}
