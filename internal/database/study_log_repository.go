package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/mishnahbot/pkg/models"
)

// StudyLogRepository handles database operations for study log rows. All
// mutation funnels through the sync reconciler's apply path; nothing else
// writes completion state.
type StudyLogRepository struct {
	store *Store
}

// NewStudyLogRepository creates a new repository over the given store.
func NewStudyLogRepository(store *Store) *StudyLogRepository {
	return &StudyLogRepository{store: store}
}

// Get returns the row for a (user, track, study date) key, or nil if no
// row exists yet.
func (r *StudyLogRepository) Get(key models.StudyLogKey) (*models.StudyLogRecord, error) {
	var rec models.StudyLogRecord
	err := r.store.DB.Get(&rec, `
		SELECT * FROM user_study_log
		WHERE user_id = $1 AND track_id = $2 AND study_date = $3`,
		key.UserID, key.TrackID, key.StudyDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study log row: %w", err)
	}
	return &rec, nil
}

// Upsert writes the record keyed by (user, track, study date), assigning an
// id for new rows. Re-applying the same record is a no-op, which keeps
// transport retries idempotent.
func (r *StudyLogRepository) Upsert(rec *models.StudyLogRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.store.DB.Exec(`
		INSERT INTO user_study_log (
			id, user_id, track_id, study_date, content_id,
			is_completed, completed_at, updated_at, device_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, track_id, study_date) DO UPDATE SET
			content_id = EXCLUDED.content_id,
			is_completed = EXCLUDED.is_completed,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at,
			device_id = EXCLUDED.device_id`,
		rec.ID, rec.UserID, rec.TrackID, rec.StudyDate, rec.ContentID,
		rec.IsCompleted, rec.CompletedAt, rec.UpdatedAt, rec.DeviceID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert study log row: %w", err)
	}
	return nil
}

// GetByTrack returns all rows for a track, most recent study date first,
// the order the streak calculator scans in.
func (r *StudyLogRepository) GetByTrack(trackID string) ([]models.StudyLogRecord, error) {
	var rows []models.StudyLogRecord
	err := r.store.DB.Select(&rows, `
		SELECT * FROM user_study_log
		WHERE track_id = $1
		ORDER BY study_date DESC`, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to get study log for track: %w", err)
	}
	return rows, nil
}

// CompletedDatesFrom returns the track's study dates on or after fromDate
// that carry a completed row. The schedule generator treats these as
// unavailable when placing new entries.
func (r *StudyLogRepository) CompletedDatesFrom(trackID, fromDate string) ([]string, error) {
	var dates []string
	err := r.store.DB.Select(&dates, `
		SELECT study_date FROM user_study_log
		WHERE track_id = $1 AND study_date >= $2 AND is_completed = true
		ORDER BY study_date`, trackID, fromDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed dates: %w", err)
	}
	return dates, nil
}

// RowsByUserSince returns the user's rows mutated at or after the given
// instant in raw column-keyed form, oldest mutation first. Callers are
// expected to normalize the rows before use; the raw shape is what crosses
// the sync transport.
func (r *StudyLogRepository) RowsByUserSince(userID string, since time.Time) ([]map[string]interface{}, error) {
	rows, err := r.store.DB.Queryx(`
		SELECT * FROM user_study_log
		WHERE user_id = $1 AND updated_at >= $2
		ORDER BY updated_at`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get study log changes for user: %w", err)
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan study log row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read study log changes: %w", err)
	}
	return out, nil
}
