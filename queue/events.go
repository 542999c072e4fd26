package queue

import "sync"

// Event identifies a queue lifecycle notification.
type Event string

const (
	// EventEnqueued fires after an operation is persisted.
	EventEnqueued Event = "enqueued"

	// EventSyncing fires when dispatch of an operation begins.
	EventSyncing Event = "syncing"

	// EventSynced fires after an operation succeeds and is removed.
	EventSynced Event = "synced"

	// EventFailed fires when an operation exhausts its attempt budget.
	EventFailed Event = "failed"

	// EventOnline fires on an offline to online transition. The operation
	// argument is nil.
	EventOnline Event = "online"

	// EventOffline fires on an online to offline transition. The operation
	// argument is nil.
	EventOffline Event = "offline"
)

// Listener receives queue events. The operation is a copy and is nil for
// connectivity events.
type Listener func(event Event, op *Operation)

// emitter dispatches events synchronously. A panicking listener is recovered
// so it cannot disturb queue state or the remaining listeners.
type emitter struct {
	mu        sync.RWMutex
	listeners map[Event][]Listener
}

func (e *emitter) on(event Event, fn Listener) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[Event][]Listener)
	}
	e.listeners[event] = append(e.listeners[event], fn)
}

func (e *emitter) emit(event Event, op *Operation) {
	e.mu.RLock()
	fns := e.listeners[event]
	e.mu.RUnlock()
	for _, fn := range fns {
		func() {
			defer func() { _ = recover() }()
			fn(event, op)
		}()
	}
}
