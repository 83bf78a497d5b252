package mentions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"discuss/internal/models"
)

// ContentEvent is published by the write path after a thread or comment is
// created or its text changes.
type ContentEvent struct {
	ContentID    string
	Kind         models.ContentKind
	BodyRevision int64
}

// ContentStore is the persistence the worker needs. Missing content is
// reported with an error wrapping sql.ErrNoRows.
type ContentStore interface {
	Content(ctx context.Context, id string) (*models.Content, error)
	MentionState(ctx context.Context, contentID string) (*models.MentionState, error)
	// ReplaceMentions stores records only if the stored list is still at
	// expectRevision.
	ReplaceMentions(ctx context.Context, contentID string, records []models.MentionRecord, expectRevision, bodyRevision int64) error
}

// Notifier receives the users newly mentioned by c.
type Notifier interface {
	Dispatch(ctx context.Context, c *models.Content, userIDs []string) (*models.Notification, error)
}

// Worker processes content events on a bounded pool.
type Worker struct {
	resolver *Resolver
	store    ContentStore
	notifier Notifier
	pool     *ants.Pool
	locks    *keyedMutex
	pending  sync.WaitGroup
	queue    int
	logger   *slog.Logger
}

// DefaultQueueSize bounds how many scans may wait for a free pool slot.
const DefaultQueueSize = 1024

// WorkerOption configures a Worker.
type WorkerOption func(*Worker) error

// WithPoolSize sets how many scans may run at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) WorkerOption {
	return func(w *Worker) error {
		if size < 1 {
			size = 1
		}
		pool, err := newPool(size, w.queue)
		if err != nil {
			return err
		}
		if w.pool != nil {
			w.pool.Release()
		}
		w.pool = pool
		return nil
	}
}

// WithQueueSize bounds how many scans may wait for a pool slot. Events
// published beyond it are dropped and logged.
// Default is DefaultQueueSize.
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) error {
		if n < 1 {
			n = 1
		}
		w.queue = n
		pool, err := newPool(w.pool.Cap(), n)
		if err != nil {
			return err
		}
		w.pool.Release()
		w.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

func newPool(size, queue int) (*ants.Pool, error) {
	return ants.NewPool(size, ants.WithMaxBlockingTasks(queue))
}

// NewWorker creates a worker. Call Release when done.
func NewWorker(resolver *Resolver, store ContentStore, notifier Notifier, opts ...WorkerOption) (*Worker, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if store == nil {
		return nil, ErrContentStoreRequired
	}
	if notifier == nil {
		return nil, ErrNotifierRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := newPool(poolSize, DefaultQueueSize)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		resolver: resolver,
		store:    store,
		notifier: notifier,
		pool:     pool,
		queue:    DefaultQueueSize,
		locks:    newKeyedMutex(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(w); optErr != nil {
			w.Release()
			return nil, optErr
		}
	}
	return w, nil
}

// Publish schedules ev and returns immediately. Failures are logged and not
// retried; the content stays saved either way.
func (w *Worker) Publish(ev ContentEvent) {
	w.pending.Add(1)
	go func() {
		err := w.pool.Submit(func() {
			defer w.pending.Done()
			if _, err := w.Process(context.Background(), ev); err != nil {
				w.logger.Error("mention scan failed",
					"content_id", ev.ContentID, "kind", string(ev.Kind), "revision", ev.BodyRevision, "err", err)
			}
		})
		if err != nil {
			w.pending.Done()
			w.logger.Error("mention scan not scheduled",
				"content_id", ev.ContentID, "kind", string(ev.Kind), "err", err)
		}
	}()
}

// Process runs the scan for ev synchronously. It returns the notification
// that was created, if any. Scans of the same content never overlap.
func (w *Worker) Process(ctx context.Context, ev ContentEvent) (*models.Notification, error) {
	unlock := w.locks.Lock(ev.ContentID)
	defer unlock()

	state, err := w.store.MentionState(ctx, ev.ContentID)
	if errors.Is(err, sql.ErrNoRows) {
		w.logger.Debug("content gone before mention scan", "content_id", ev.ContentID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mention state: %w", err)
	}
	if ev.BodyRevision > 0 && ev.BodyRevision <= state.BodyRevision {
		w.logger.Debug("skipping superseded mention scan",
			"content_id", ev.ContentID, "revision", ev.BodyRevision, "scanned_revision", state.BodyRevision)
		return nil, nil
	}

	c, err := w.store.Content(ctx, ev.ContentID)
	if errors.Is(err, sql.ErrNoRows) {
		w.logger.Debug("content gone before mention scan", "content_id", ev.ContentID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	outcome, err := w.resolver.Resolve(ctx, c, state.Records)
	if err != nil {
		return nil, err
	}
	if err := w.store.ReplaceMentions(ctx, c.ID, outcome.Records, state.Revision, c.BodyRevision); err != nil {
		return nil, fmt.Errorf("store mentions: %w", err)
	}
	if len(outcome.NewUserIDs) == 0 {
		return nil, nil
	}

	n, err := w.notifier.Dispatch(ctx, c, outcome.NewUserIDs)
	if err != nil {
		return nil, fmt.Errorf("dispatch notification: %w", err)
	}
	w.logger.Debug("mention scan complete",
		"content_id", c.ID, "mentions", len(outcome.Records), "new_users", len(outcome.NewUserIDs))
	return n, nil
}

// Wait blocks until every published event has been processed.
func (w *Worker) Wait() {
	w.pending.Wait()
}

// Release waits for queued scans and frees the pool.
// The worker should not be used after calling Release.
func (w *Worker) Release() {
	w.Wait()
	if w.pool != nil {
		w.pool.Release()
	}
}
