package models

import "time"

// ScheduleType controls which calendar days receive study assignments.
type ScheduleType string

const (
	// ScheduleDaily schedules every day except holy days.
	ScheduleDaily ScheduleType = "DAILY"
	// ScheduleWeekdaysOnly additionally skips the weekly rest day (Saturday).
	ScheduleWeekdaysOnly ScheduleType = "DAILY_WEEKDAYS_ONLY"
)

// ReviewIntensity selects how aggressively previously studied material is
// re-inserted into the schedule.
type ReviewIntensity string

const (
	ReviewNone      ReviewIntensity = "none"
	ReviewLight     ReviewIntensity = "light"
	ReviewMedium    ReviewIntensity = "medium"
	ReviewIntensive ReviewIntensity = "intensive"
)

// Valid reports whether the intensity is one of the known levels.
func (r ReviewIntensity) Valid() bool {
	switch r {
	case ReviewNone, ReviewLight, ReviewMedium, ReviewIntensive:
		return true
	}
	return false
}

// Track is a user's enrollment in studying the corpus at a chosen pace.
// Tracks are soft-deactivated, never deleted, while log rows reference them.
type Track struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	Title           string          `json:"title" db:"title"`
	StartDate       string          `json:"start_date" db:"start_date"` // YYYY-MM-DD
	ScheduleType    ScheduleType    `json:"schedule_type" db:"schedule_type"`
	PaceUnitsPerDay int             `json:"pace_units_per_day" db:"pace_units_per_day"`
	ReviewIntensity ReviewIntensity `json:"review_intensity" db:"review_intensity"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
