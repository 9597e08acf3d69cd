package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSnakeCaseRow(t *testing.T) {
	rec, err := Normalize(map[string]interface{}{
		"id":           "row-1",
		"user_id":      "user-1",
		"track_id":     "track-1",
		"study_date":   "2024-01-05",
		"content_id":   "Mishnah_Berakhot.1.1",
		"is_completed": true,
		"completed_at": "2024-01-05T21:14:00Z",
		"updated_at":   "2024-01-05T21:14:00Z",
		"device_id":    "device-a",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "2024-01-05", rec.StudyDate)
	assert.True(t, rec.IsCompleted)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, time.Date(2024, 1, 5, 21, 14, 0, 0, time.UTC), *rec.CompletedAt)
	assert.Equal(t, "device-a", rec.DeviceID)
}

func TestNormalizeCamelCaseKeys(t *testing.T) {
	rec, err := Normalize(map[string]interface{}{
		"userId":      "user-1",
		"trackId":     "track-1",
		"studyDate":   "2024-01-05",
		"isCompleted": "true",
		"updatedAt":   "2024-01-05T21:14:00Z",
		"deviceId":    "device-a",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "track-1", rec.TrackID)
	assert.True(t, rec.IsCompleted)
}

func TestNormalizeLooseEncodings(t *testing.T) {
	// Numeric booleans, epoch timestamps and a full-timestamp study date,
	// the shapes different client libraries actually produce.
	rec, err := Normalize(map[string]interface{}{
		"user_id":      "user-1",
		"track_id":     "track-1",
		"study_date":   "2024-01-05 00:00:00",
		"is_completed": float64(1),
		"updated_at":   float64(1704489240),
		"device_id":    []byte("device-a"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", rec.StudyDate)
	assert.True(t, rec.IsCompleted)
	assert.Equal(t, time.Unix(1704489240, 0).UTC(), rec.UpdatedAt)
	assert.Equal(t, "device-a", rec.DeviceID)
}

func TestNormalizeNullCompletedAt(t *testing.T) {
	rec, err := Normalize(map[string]interface{}{
		"user_id":      "user-1",
		"track_id":     "track-1",
		"study_date":   "2024-01-05",
		"is_completed": false,
		"completed_at": nil,
		"updated_at":   time.Date(2024, 1, 5, 21, 14, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Nil(t, rec.CompletedAt)
	assert.False(t, rec.IsCompleted)
}

func TestNormalizeRejectsMissingKeyFields(t *testing.T) {
	var rejected *RejectedMutationError
	_, err := Normalize(map[string]interface{}{
		"track_id":   "track-1",
		"study_date": "2024-01-05",
		"updated_at": "2024-01-05T21:14:00Z",
	})
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "user id")
}

func TestNormalizeRejectsUnreadableFields(t *testing.T) {
	var rejected *RejectedMutationError

	_, err := Normalize(map[string]interface{}{
		"user_id":      "user-1",
		"track_id":     "track-1",
		"study_date":   "2024-01-05",
		"is_completed": []string{"yes"},
		"updated_at":   "2024-01-05T21:14:00Z",
	})
	assert.ErrorAs(t, err, &rejected)

	_, err = Normalize(map[string]interface{}{
		"user_id":    "user-1",
		"track_id":   "track-1",
		"study_date": "not a date",
		"updated_at": "2024-01-05T21:14:00Z",
	})
	assert.ErrorAs(t, err, &rejected)
}
