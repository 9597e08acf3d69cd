package models

import "time"

// StudyLogRecord is the per-day completion row for a track. It is the one
// row type exchanged with the durable transport and therefore the one
// subject to multi-device conflict resolution. At most one record exists per
// (user, track, study date).
type StudyLogRecord struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	TrackID     string     `json:"track_id" db:"track_id"`
	StudyDate   string     `json:"study_date" db:"study_date"` // YYYY-MM-DD
	ContentID   string     `json:"content_id" db:"content_id"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	// UpdatedAt is the mutation timestamp used for last-write-wins.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	// DeviceID identifies the replica that produced the last mutation and
	// breaks exact-timestamp ties deterministically.
	DeviceID string `json:"device_id" db:"device_id"`
}

// StudyLogKey identifies a study log row across replicas.
type StudyLogKey struct {
	UserID    string
	TrackID   string
	StudyDate string
}

// Key returns the replica-independent identity of the record.
func (r StudyLogRecord) Key() StudyLogKey {
	return StudyLogKey{UserID: r.UserID, TrackID: r.TrackID, StudyDate: r.StudyDate}
}

// Supersedes reports whether this record's mutation wins over other under
// last-write-wins. Equal timestamps fall back to lexicographic device id,
// so two replicas always agree on the winner.
func (r StudyLogRecord) Supersedes(other StudyLogRecord) bool {
	if !r.UpdatedAt.Equal(other.UpdatedAt) {
		return r.UpdatedAt.After(other.UpdatedAt)
	}
	return r.DeviceID > other.DeviceID
}
