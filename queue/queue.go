package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/offlinekit/observe"
	"github.com/jonwraymond/offlinekit/storage"
)

// DefaultPrefix namespaces queue records within the storage adapter.
const DefaultPrefix = "queue:"

const (
	defaultMaxRetries    = 5
	defaultRetryDelay    = time.Second
	defaultMaxRetryDelay = 60 * time.Second
	defaultConcurrency   = 3
)

// Handler performs the remote side effect for one operation type. A nil error
// marks the operation synced; any error counts against its attempt budget.
type Handler func(ctx context.Context, op *Operation) error

// Connectivity reports whether the remote system is currently reachable.
// Implementations are platform specific wiring (network monitors, health
// probes); the queue only ever asks for the instantaneous answer.
type Connectivity interface {
	Online() bool
}

// Options configures a Queue. The zero value is usable: defaults are applied
// by New.
type Options struct {
	// Prefix namespaces queue keys in the store. Defaults to DefaultPrefix.
	Prefix string

	// MaxRetries bounds dispatch attempts per operation. Defaults to 5.
	MaxRetries int

	// RetryDelay and MaxRetryDelay are reserved for future scheduled
	// retries. Dispatch pacing is currently caller driven: a failed
	// operation returns to pending and waits for the next Sync pass.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// Concurrency bounds how many operations dispatch in parallel within
	// one chunk of a sync pass. Defaults to 3.
	Concurrency int

	// DisableAutoSync suppresses the automatic sync pass triggered by
	// Enqueue and by offline to online transitions.
	DisableAutoSync bool

	// Connectivity, when set, supplies the initial online state. Later
	// transitions are reported through SetOnline.
	Connectivity Connectivity

	// Logger receives queue diagnostics. Defaults to a no-op logger.
	Logger observe.Logger

	// Middleware, when set, wraps handler dispatch with tracing and
	// metrics.
	Middleware *observe.Middleware
}

// SyncResult tallies one sync pass.
type SyncResult struct {
	// Synced counts operations that completed and were removed.
	Synced int

	// Failed counts operations that did not complete this pass: handler
	// errors (whether requeued or terminal) and operations skipped for a
	// missing handler.
	Failed int
}

// Queue is a durable operation queue.
//
// Contract:
//   - Concurrency: all methods are goroutine-safe. At most one sync pass
//     runs at a time; overlapping Sync calls return a zero result.
//   - Durability: every state change is persisted before listeners observe
//     it. Synced operations are deleted; failed operations are kept.
//   - Ordering: within a pass, operations dispatch by priority descending,
//     then enqueue time ascending. No ordering holds across passes.
type Queue struct {
	store  storage.Store
	prefix string

	maxRetries  int
	concurrency int
	autoSync    bool

	mu       sync.RWMutex
	handlers map[string]Handler

	emitter emitter

	online  atomic.Bool
	syncing atomic.Bool

	logger   observe.Logger
	dispatch observe.DispatchFunc
}

// New creates a Queue backed by store.
func New(store storage.Store, opts Options) (*Queue, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = defaultMaxRetryDelay
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = observe.NewNopLogger()
	}

	q := &Queue{
		store:       store,
		prefix:      opts.Prefix,
		maxRetries:  opts.MaxRetries,
		concurrency: opts.Concurrency,
		autoSync:    !opts.DisableAutoSync,
		handlers:    make(map[string]Handler),
		logger:      opts.Logger,
	}
	q.online.Store(true)
	if opts.Connectivity != nil {
		q.online.Store(opts.Connectivity.Online())
	}

	q.dispatch = q.invokeHandler
	if opts.Middleware != nil {
		q.dispatch = opts.Middleware.Wrap(q.invokeHandler)
	}
	return q, nil
}

// Register installs the handler for an operation type, replacing any
// previous handler for that type.
func (q *Queue) Register(opType string, h Handler) error {
	if opType == "" {
		return ErrEmptyType
	}
	if h == nil {
		return ErrNilHandler
	}
	q.mu.Lock()
	q.handlers[opType] = h
	q.mu.Unlock()
	return nil
}

// On subscribes a listener to a queue event.
func (q *Queue) On(event Event, fn Listener) {
	q.emitter.on(event, fn)
}

// EnqueueOptions adjusts a single enqueue.
type EnqueueOptions struct {
	// Priority orders dispatch; higher values go first. Defaults to 0.
	Priority int
}

// Enqueue persists a new pending operation and, when online with auto sync
// enabled, triggers a background sync pass.
func (q *Queue) Enqueue(ctx context.Context, opType string, payload any, opts EnqueueOptions) (*Operation, error) {
	if opType == "" {
		return nil, ErrEmptyType
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("queue: marshal payload: %w", err)
		}
		raw = data
	}

	op := &Operation{
		ID:        uuid.NewString(),
		Type:      opType,
		Payload:   raw,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		Priority:  opts.Priority,
	}
	if err := q.persist(ctx, op); err != nil {
		return nil, err
	}
	q.emitter.emit(EventEnqueued, op.clone())

	if q.autoSync && q.online.Load() {
		go func() {
			if _, err := q.Sync(context.WithoutCancel(ctx)); err != nil {
				q.logger.Error(ctx, "auto sync failed", observe.Field{Key: "error", Value: err.Error()})
			}
		}()
	}
	return op.clone(), nil
}

// Get returns the stored operation with the given ID.
func (q *Queue) Get(ctx context.Context, id string) (*Operation, error) {
	return q.load(ctx, id)
}

// List returns every stored operation, pending and failed alike, in no
// particular order.
func (q *Queue) List(ctx context.Context) ([]*Operation, error) {
	keys, err := q.store.Keys(ctx, q.prefix)
	if err != nil {
		return nil, fmt.Errorf("queue: list keys: %w", err)
	}
	ops := make([]*Operation, 0, len(keys))
	for _, key := range keys {
		data, ok, err := q.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("queue: load %s: %w", key, err)
		}
		if !ok {
			continue
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			q.logger.Warn(ctx, "dropping corrupt queue record", observe.Field{Key: "key", Value: key})
			continue
		}
		ops = append(ops, rec.toOperation())
	}
	return ops, nil
}

// Pending returns pending operations in dispatch order: priority descending,
// then enqueue time ascending.
func (q *Queue) Pending(ctx context.Context) ([]*Operation, error) {
	all, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := all[:0]
	for _, op := range all {
		if op.Status == StatusPending {
			pending = append(pending, op)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// Sync dispatches all pending operations in priority order. Operations are
// processed in chunks of the configured concurrency; a chunk must fully
// resolve before the next one starts. Sync is a no-op while offline or while
// another pass is already running.
func (q *Queue) Sync(ctx context.Context) (SyncResult, error) {
	if !q.online.Load() {
		return SyncResult{}, nil
	}
	if !q.syncing.CompareAndSwap(false, true) {
		return SyncResult{}, nil
	}
	defer q.syncing.Store(false)

	pending, err := q.Pending(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	var synced, failed atomic.Int64
	for start := 0; start < len(pending); start += q.concurrency {
		end := min(start+q.concurrency, len(pending))
		g, gctx := errgroup.WithContext(ctx)
		for _, op := range pending[start:end] {
			g.Go(func() error {
				outcome, err := q.syncOperation(gctx, op)
				if err != nil {
					return err
				}
				switch outcome {
				case outcomeSynced:
					synced.Add(1)
				case outcomeFailed, outcomeRequeued, outcomeSkipped:
					failed.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return SyncResult{Synced: int(synced.Load()), Failed: int(failed.Load())}, err
		}
	}
	return SyncResult{Synced: int(synced.Load()), Failed: int(failed.Load())}, nil
}

type outcome int

const (
	outcomeSynced outcome = iota
	outcomeRequeued
	outcomeFailed
	outcomeSkipped
)

// syncOperation runs one dispatch attempt. The returned error is reserved
// for storage failures; handler errors are absorbed into the outcome.
func (q *Queue) syncOperation(ctx context.Context, op *Operation) (outcome, error) {
	q.mu.RLock()
	_, ok := q.handlers[op.Type]
	q.mu.RUnlock()
	if !ok {
		// No handler registered: skip without touching the record so a
		// later pass can pick it up once the handler exists.
		q.logger.Warn(ctx, "no handler for operation type",
			observe.Field{Key: "type", Value: op.Type},
			observe.Field{Key: "id", Value: op.ID})
		return outcomeSkipped, nil
	}

	op.Status = StatusSyncing
	op.Attempts++
	op.LastAttempt = time.Now()
	if err := q.persist(ctx, op); err != nil {
		return 0, err
	}
	q.emitter.emit(EventSyncing, op.clone())

	meta := observe.OpMeta{Component: "queue", Name: op.Type, ID: op.ID}
	if dispatchErr := q.dispatch(ctx, meta); dispatchErr != nil {
		op.LastError = dispatchErr.Error()
		if op.Attempts >= q.maxRetries {
			op.Status = StatusFailed
			if err := q.persist(ctx, op); err != nil {
				return 0, err
			}
			q.emitter.emit(EventFailed, op.clone())
			return outcomeFailed, nil
		}
		op.Status = StatusPending
		if err := q.persist(ctx, op); err != nil {
			return 0, err
		}
		return outcomeRequeued, nil
	}

	if err := q.store.Delete(ctx, q.key(op.ID)); err != nil {
		return 0, fmt.Errorf("queue: delete %s: %w", op.ID, err)
	}
	op.Status = StatusSynced
	q.emitter.emit(EventSynced, op.clone())
	return outcomeSynced, nil
}

// invokeHandler resolves the handler and current record for the operation
// named by meta and runs it. It is the innermost layer of the dispatch chain.
func (q *Queue) invokeHandler(ctx context.Context, meta observe.OpMeta) error {
	q.mu.RLock()
	h := q.handlers[meta.Name]
	q.mu.RUnlock()
	if h == nil {
		return ErrNotFound
	}
	op, err := q.load(ctx, meta.ID)
	if err != nil {
		return err
	}
	return h(ctx, op)
}

// Retry resets a failed operation to pending with a fresh attempt budget
// and, when online, immediately attempts a single dispatch.
func (q *Queue) Retry(ctx context.Context, id string) error {
	op, err := q.load(ctx, id)
	if err != nil {
		return err
	}
	if op.Status != StatusFailed {
		return ErrNotFailed
	}
	op.Status = StatusPending
	op.Attempts = 0
	op.LastError = ""
	if err := q.persist(ctx, op); err != nil {
		return err
	}
	if !q.online.Load() {
		return nil
	}
	_, err = q.syncOperation(ctx, op)
	return err
}

// Remove deletes an operation regardless of its state.
func (q *Queue) Remove(ctx context.Context, id string) error {
	op, err := q.load(ctx, id)
	if err != nil {
		return err
	}
	return q.store.Delete(ctx, q.key(op.ID))
}

// Clear deletes every queue record. Records outside the queue prefix are
// untouched.
func (q *Queue) Clear(ctx context.Context) error {
	keys, err := q.store.Keys(ctx, q.prefix)
	if err != nil {
		return fmt.Errorf("queue: list keys: %w", err)
	}
	for _, key := range keys {
		if err := q.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("queue: delete %s: %w", key, err)
		}
	}
	return nil
}

// Online reports the queue's current connectivity state.
func (q *Queue) Online() bool {
	return q.online.Load()
}

// SetOnline records a connectivity transition. Moving online emits
// EventOnline and, with auto sync enabled, triggers a background sync pass.
// Moving offline emits EventOffline. Setting the current state is a no-op.
func (q *Queue) SetOnline(online bool) {
	if !q.online.CompareAndSwap(!online, online) {
		return
	}
	if online {
		q.emitter.emit(EventOnline, nil)
		if q.autoSync {
			go func() {
				ctx := context.Background()
				if _, err := q.Sync(ctx); err != nil {
					q.logger.Error(ctx, "auto sync failed", observe.Field{Key: "error", Value: err.Error()})
				}
			}()
		}
		return
	}
	q.emitter.emit(EventOffline, nil)
}

func (q *Queue) key(id string) string {
	return q.prefix + id
}

func (q *Queue) persist(ctx context.Context, op *Operation) error {
	data, err := json.Marshal(op.toRecord())
	if err != nil {
		return fmt.Errorf("queue: marshal operation: %w", err)
	}
	if err := q.store.Set(ctx, q.key(op.ID), data, 0); err != nil {
		return fmt.Errorf("queue: persist %s: %w", op.ID, err)
	}
	return nil
}

func (q *Queue) load(ctx context.Context, id string) (*Operation, error) {
	data, ok, err := q.store.Get(ctx, q.key(id))
	if err != nil {
		return nil, fmt.Errorf("queue: load %s: %w", id, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("queue: decode %s: %w", id, err)
	}
	return rec.toOperation(), nil
}
