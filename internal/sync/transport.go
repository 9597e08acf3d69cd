package sync

import (
	"context"
	"time"

	"github.com/example/mishnahbot/internal/database"
	"github.com/example/mishnahbot/pkg/models"
)

// Transport moves study log rows between the local replica and the shared
// backing store. Implementations distinguish transient failures (return a
// *TransportError, the reconciler retries) from permanent rejections
// (return a *RejectedMutationError, surfaced once).
type Transport interface {
	// Upload persists one row in the backing store. It must be
	// idempotent: re-sending the same row after a transient failure may
	// not create duplicates or double-toggle state.
	Upload(ctx context.Context, rec models.StudyLogRecord) error

	// FetchSince returns the user's rows mutated in the backing store at
	// or after the given instant, in whatever raw column-keyed shape the
	// store produces. The reconciler normalizes each row before applying
	// it; the transport never decodes.
	FetchSince(ctx context.Context, userID string, since time.Time) ([]map[string]interface{}, error)
}

// PostgresTransport is a Transport over a shared postgres store, reusing
// the same repository layer the local sqlite replica runs on.
type PostgresTransport struct {
	logs *database.StudyLogRepository
}

// NewPostgresTransport wraps a store opened with the postgres driver.
func NewPostgresTransport(store *database.Store) *PostgresTransport {
	return &PostgresTransport{logs: database.NewStudyLogRepository(store)}
}

func (t *PostgresTransport) Upload(ctx context.Context, rec models.StudyLogRecord) error {
	if err := validateRecord(&rec); err != nil {
		return err
	}
	if err := t.logs.Upsert(&rec); err != nil {
		return &TransportError{Op: "upload", Err: err}
	}
	return nil
}

func (t *PostgresTransport) FetchSince(ctx context.Context, userID string, since time.Time) ([]map[string]interface{}, error) {
	rows, err := t.logs.RowsByUserSince(userID, since)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Err: err}
	}
	return rows, nil
}

// OfflineTransport accepts every upload and never delivers remote rows,
// for single-device deployments without a shared backing store.
type OfflineTransport struct{}

func (OfflineTransport) Upload(ctx context.Context, rec models.StudyLogRecord) error {
	return validateRecord(&rec)
}

func (OfflineTransport) FetchSince(ctx context.Context, userID string, since time.Time) ([]map[string]interface{}, error) {
	return nil, nil
}

// validateRecord rejects rows the uniqueness invariant cannot key.
func validateRecord(rec *models.StudyLogRecord) error {
	key := rec.Key()
	if rec.UserID == "" {
		return &RejectedMutationError{Key: key, Reason: "missing user id"}
	}
	if rec.TrackID == "" {
		return &RejectedMutationError{Key: key, Reason: "missing track id"}
	}
	if rec.StudyDate == "" {
		return &RejectedMutationError{Key: key, Reason: "missing study date"}
	}
	if rec.UpdatedAt.IsZero() {
		return &RejectedMutationError{Key: key, Reason: "missing mutation timestamp"}
	}
	return nil
}
