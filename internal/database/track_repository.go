package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/mishnahbot/pkg/models"
)

// TrackRepository handles database operations for tracks.
type TrackRepository struct {
	store *Store
}

// NewTrackRepository creates a new repository over the given store.
func NewTrackRepository(store *Store) *TrackRepository {
	return &TrackRepository{store: store}
}

// Create inserts a new track, assigning an id if none is set.
func (r *TrackRepository) Create(track *models.Track) error {
	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	track.CreatedAt = now
	track.UpdatedAt = now
	track.IsActive = true

	_, err := r.store.DB.Exec(`
		INSERT INTO tracks (
			id, user_id, title, start_date, schedule_type,
			pace_units_per_day, review_intensity, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		track.ID, track.UserID, track.Title, track.StartDate, track.ScheduleType,
		track.PaceUnitsPerDay, track.ReviewIntensity, track.IsActive,
		track.CreatedAt, track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}
	return nil
}

// GetByID returns a track by id.
func (r *TrackRepository) GetByID(id string) (*models.Track, error) {
	var track models.Track
	err := r.store.DB.Get(&track, "SELECT * FROM tracks WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "track", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &track, nil
}

// GetActiveByUser returns the user's active tracks ordered by creation.
func (r *TrackRepository) GetActiveByUser(userID string) ([]models.Track, error) {
	var tracks []models.Track
	err := r.store.DB.Select(&tracks,
		"SELECT * FROM tracks WHERE user_id = $1 AND is_active = true ORDER BY created_at",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks for user: %w", err)
	}
	return tracks, nil
}

// ActiveUserIDs returns every user with at least one active track.
func (r *TrackRepository) ActiveUserIDs() ([]string, error) {
	var ids []string
	err := r.store.DB.Select(&ids,
		"SELECT DISTINCT user_id FROM tracks WHERE is_active = true ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}
	return ids, nil
}

// UpdatePace changes a track's pace and review intensity. The caller is
// expected to regenerate the schedule afterwards.
func (r *TrackRepository) UpdatePace(id string, pace int, intensity models.ReviewIntensity) error {
	res, err := r.store.DB.Exec(`
		UPDATE tracks SET pace_units_per_day = $1, review_intensity = $2, updated_at = $3
		WHERE id = $4`,
		pace, intensity, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update track pace: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "track", ID: id}
	}
	return nil
}

// Deactivate soft-deletes a track. Rows referencing it stay in place.
func (r *TrackRepository) Deactivate(id string) error {
	res, err := r.store.DB.Exec(
		"UPDATE tracks SET is_active = false, updated_at = $1 WHERE id = $2",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate track: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "track", ID: id}
	}
	return nil
}
