package database

import (
	"fmt"

	"github.com/example/mishnahbot/pkg/models"
)

// ScheduleRepository handles database operations for schedule entries. The
// schedule generator is the sole writer.
type ScheduleRepository struct {
	store *Store
}

// NewScheduleRepository creates a new repository over the given store.
func NewScheduleRepository(store *Store) *ScheduleRepository {
	return &ScheduleRepository{store: store}
}

// GetByTrack returns a track's full schedule ordered by date then index.
func (r *ScheduleRepository) GetByTrack(trackID string) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	err := r.store.DB.Select(&entries, `
		SELECT * FROM schedule_entries
		WHERE track_id = $1
		ORDER BY date, global_index`, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return entries, nil
}

// EntriesForDate returns the entries assigned to one calendar date.
func (r *ScheduleRepository) EntriesForDate(trackID, date string) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	err := r.store.DB.Select(&entries, `
		SELECT * FROM schedule_entries
		WHERE track_id = $1 AND date = $2
		ORDER BY global_index`, trackID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule for date: %w", err)
	}
	return entries, nil
}

// MaxCompletedIndex returns the highest global index among learn entries
// whose study date has a completed log row, or -1 if none. The resume point
// for regeneration is this value plus one.
func (r *ScheduleRepository) MaxCompletedIndex(trackID string) (int, error) {
	var max int
	err := r.store.DB.Get(&max, `
		SELECT COALESCE(MAX(se.global_index), -1)
		FROM schedule_entries se
		JOIN user_study_log l
			ON l.track_id = se.track_id AND l.study_date = se.date
		WHERE se.track_id = $1 AND se.node_type = $2 AND l.is_completed = true`,
		trackID, models.NodeLearn)
	if err != nil {
		return 0, fmt.Errorf("failed to compute resume point: %w", err)
	}
	return max, nil
}

// CountFrom returns the number of entries on or after fromDate.
func (r *ScheduleRepository) CountFrom(trackID, fromDate string) (int, error) {
	var count int
	err := r.store.DB.Get(&count, `
		SELECT COUNT(*) FROM schedule_entries
		WHERE track_id = $1 AND date >= $2`, trackID, fromDate)
	if err != nil {
		return 0, fmt.Errorf("failed to count schedule entries: %w", err)
	}
	return count, nil
}

// ReplaceFuture atomically removes a track's entries on or after fromDate
// whose date has no completed log row, then inserts the new entries.
// Completed history is never touched, and on any failure nothing is written.
func (r *ScheduleRepository) ReplaceFuture(trackID, fromDate string, entries []models.ScheduleEntry) error {
	tx, err := r.store.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin schedule transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM schedule_entries
		WHERE track_id = $1 AND date >= $2
		AND NOT EXISTS (
			SELECT 1 FROM user_study_log l
			WHERE l.track_id = schedule_entries.track_id
			AND l.study_date = schedule_entries.date
			AND l.is_completed = true
		)`, trackID, fromDate)
	if err != nil {
		return fmt.Errorf("failed to clear future schedule: %w", err)
	}

	for _, e := range entries {
		_, err = tx.Exec(`
			INSERT INTO schedule_entries (track_id, date, global_index, content_ref, node_type)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (track_id, date, global_index, node_type) DO NOTHING`,
			e.TrackID, e.Date, e.GlobalIndex, e.ContentRef, e.NodeType)
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}
	return nil
}
