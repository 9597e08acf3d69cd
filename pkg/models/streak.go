package models

// StreakState is derived from study log history plus the non-study date
// set. It is never persisted authoritatively and never hand-edited.
type StreakState struct {
	TrackID       string `json:"track_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	// LastCompletedDate is the most recent study date with a completed
	// record, YYYY-MM-DD, or empty if nothing was ever completed.
	LastCompletedDate string `json:"last_completed_date"`
	// OnTimeCompletions counts completions whose completed_at fell on the
	// scheduled study date itself rather than retroactively.
	OnTimeCompletions int `json:"on_time_completions"`
}
