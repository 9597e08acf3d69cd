// Package sync keeps the local study log replica and the shared backing
// store convergent across a user's devices. Local mutations apply
// optimistically and upload in the background; remote mutations funnel
// through one last-write-wins choke point keyed by the row's mutation
// timestamp.
package sync

import (
	"context"
	"errors"
	"log"
	"os"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/mishnahbot/internal/database"
	"github.com/example/mishnahbot/pkg/models"
)

const (
	uploadQueueDepth  = 64
	resultBufferDepth = 256
	maxUploadAttempts = 5
	baseBackoff       = 500 * time.Millisecond
)

// Result reports the final fate of one queued upload: Err is nil once the
// row is durable in the backing store, a *RejectedMutationError when the
// store refused it, or a *TransportError when retries ran out or the
// user's upload queue was full.
type Result struct {
	Record models.StudyLogRecord
	Err    error
}

// Reconciler owns all mutation of the local study log replica. Uploads run
// on one background worker per user, so one user's transport failures
// never block another's.
type Reconciler struct {
	logs      *database.StudyLogRepository
	transport Transport
	deviceID  string
	logger    *log.Logger
	now       func() time.Time
	sleep     func(time.Duration)
	results   chan Result

	mu      gosync.Mutex
	workers map[string]chan models.StudyLogRecord
	closed  bool
	wg      gosync.WaitGroup
}

// NewReconciler wires a reconciler over the local store and an upload
// transport. deviceID identifies this replica in conflict tiebreaks; if
// empty a random one is assigned. If logger is nil, a default logger
// writing to stderr is used.
func NewReconciler(store *database.Store, transport Transport, deviceID string, logger *log.Logger) *Reconciler {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Reconciler{
		logs:      database.NewStudyLogRepository(store),
		transport: transport,
		deviceID:  deviceID,
		logger:    logger,
		now:       time.Now,
		sleep:     time.Sleep,
		results:   make(chan Result, resultBufferDepth),
		workers:   make(map[string]chan models.StudyLogRecord),
	}
}

// Results delivers one Result per queued upload. The channel is closed by
// Close after all pending uploads settle.
func (r *Reconciler) Results() <-chan Result {
	return r.results
}

// ApplyLocal persists a mutation to the local replica and queues it for
// upload. It returns as soon as the row is locally durable; the upload's
// outcome arrives on Results. The local value is authoritative for local
// reads immediately.
func (r *Reconciler) ApplyLocal(ctx context.Context, rec *models.StudyLogRecord) error {
	if rec.DeviceID == "" {
		rec.DeviceID = r.deviceID
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.now().UTC()
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	if existing, err := r.logs.Get(rec.Key()); err != nil {
		return err
	} else if existing != nil {
		rec.ID = existing.ID
	}
	if err := r.logs.Upsert(rec); err != nil {
		return err
	}
	r.enqueue(*rec)
	return nil
}

// ApplyRemote folds a remotely-mutated row into the local replica. The row
// with the newer mutation timestamp wins; on an exact tie the higher
// device id wins. When the local row wins it is re-queued for upload so
// the backing store converges too. Delivery order does not matter: the
// comparison runs on every delivery, never assuming monotonic arrival.
func (r *Reconciler) ApplyRemote(ctx context.Context, rec models.StudyLogRecord) error {
	if err := validateRecord(&rec); err != nil {
		return err
	}
	existing, err := r.logs.Get(rec.Key())
	if err != nil {
		return err
	}
	if existing != nil {
		if sameMutation(rec, *existing) {
			// Idempotent redelivery.
			return nil
		}
		if rec.UpdatedAt.Equal(existing.UpdatedAt) && rec.DeviceID == existing.DeviceID {
			return &ConflictUnresolvedError{Key: rec.Key(), DeviceID: rec.DeviceID}
		}
		if !rec.Supersedes(*existing) {
			r.logger.Printf("Remote row for %s/%s/%s loses to local state, re-uploading",
				rec.UserID, rec.TrackID, rec.StudyDate)
			r.enqueue(*existing)
			return nil
		}
		rec.ID = existing.ID
	}
	return r.logs.Upsert(&rec)
}

// PullRemote fetches the user's raw rows mutated remotely since the given
// instant, normalizes each and applies it through the conflict path. A row
// that cannot be decoded or applied is skipped and reported; the rest of
// the batch still lands. It returns how many rows were applied.
func (r *Reconciler) PullRemote(ctx context.Context, userID string, since time.Time) (int, error) {
	rows, err := r.transport.FetchSince(ctx, userID, since)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, row := range rows {
		rec, err := Normalize(row)
		if err != nil {
			r.logger.Printf("Skipping undecodable remote row for user %s: %v", userID, err)
			continue
		}
		if err := r.ApplyRemote(ctx, rec); err != nil {
			r.logger.Printf("Skipping remote row %s/%s/%s: %v",
				rec.UserID, rec.TrackID, rec.StudyDate, err)
			r.report(Result{Record: rec, Err: err})
			continue
		}
		applied++
	}
	return applied, nil
}

// Close stops accepting mutations, waits for pending uploads to settle and
// closes the Results channel.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, queue := range r.workers {
		close(queue)
	}
	r.mu.Unlock()

	r.wg.Wait()
	close(r.results)
}

// errUploadQueueFull is surfaced through Results when one user's pending
// uploads exceed the queue depth. The local row is already durable; a later
// pull or re-apply converges the backing store.
var errUploadQueueFull = errors.New("upload queue full")

// enqueue hands a row to the owning user's upload worker, starting one on
// first use. The hand-off never blocks: a full queue is reported through
// Results instead, so one stalled user's backlog cannot hold the mutex and
// freeze every other user's apply path.
func (r *Reconciler) enqueue(rec models.StudyLogRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Printf("Reconciler closed, dropping upload for %s/%s/%s",
			rec.UserID, rec.TrackID, rec.StudyDate)
		return
	}
	queue, ok := r.workers[rec.UserID]
	if !ok {
		queue = make(chan models.StudyLogRecord, uploadQueueDepth)
		r.workers[rec.UserID] = queue
		r.wg.Add(1)
		go r.runWorker(rec.UserID, queue)
	}
	select {
	case queue <- rec:
	default:
		r.logger.Printf("Upload queue for user %s full, deferring %s/%s",
			rec.UserID, rec.TrackID, rec.StudyDate)
		r.report(Result{Record: rec, Err: &TransportError{Op: "enqueue", Err: errUploadQueueFull}})
	}
}

func (r *Reconciler) runWorker(userID string, queue chan models.StudyLogRecord) {
	defer r.wg.Done()
	for rec := range queue {
		err := r.upload(rec)
		if err != nil {
			r.logger.Printf("Upload for user %s failed permanently: %v", userID, err)
		}
		r.report(Result{Record: rec, Err: err})
	}
}

// report delivers a Result without ever blocking the caller.
func (r *Reconciler) report(res Result) {
	select {
	case r.results <- res:
	default:
		r.logger.Printf("Result buffer full, dropping notification for user %s", res.Record.UserID)
	}
}

// upload retries transient transport failures with exponential backoff.
// Permanent rejections return immediately.
func (r *Reconciler) upload(rec models.StudyLogRecord) error {
	var lastErr error
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		lastErr = r.transport.Upload(context.Background(), rec)
		if lastErr == nil {
			return nil
		}
		var rejected *RejectedMutationError
		if errors.As(lastErr, &rejected) {
			return lastErr
		}
		if attempt < maxUploadAttempts {
			r.sleep(baseBackoff << (attempt - 1))
		}
	}
	return lastErr
}

// sameMutation reports whether two rows carry the identical mutation.
func sameMutation(a, b models.StudyLogRecord) bool {
	if a.IsCompleted != b.IsCompleted || a.ContentID != b.ContentID || a.DeviceID != b.DeviceID {
		return false
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	switch {
	case a.CompletedAt == nil && b.CompletedAt == nil:
		return true
	case a.CompletedAt == nil || b.CompletedAt == nil:
		return false
	default:
		return a.CompletedAt.Equal(*b.CompletedAt)
	}
}
