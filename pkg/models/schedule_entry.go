package models

// NodeType distinguishes the kinds of entries a schedule can carry.
type NodeType string

const (
	// NodeLearn is a new corpus unit.
	NodeLearn NodeType = "learn"
	// NodeQuiz closes out a finished chapter.
	NodeQuiz NodeType = "quiz"
	// NodeReview revisits a previously studied unit.
	NodeReview NodeType = "review"
)

// ScheduleEntry is one calendar-date assignment of study material for a
// track. Entries are produced only by the schedule generator; within a track
// they are strictly increasing by date and non-decreasing by global index.
type ScheduleEntry struct {
	TrackID     string   `json:"track_id" db:"track_id"`
	Date        string   `json:"date" db:"date"` // YYYY-MM-DD
	GlobalIndex int      `json:"global_index" db:"global_index"`
	ContentRef  string   `json:"content_ref" db:"content_ref"`
	NodeType    NodeType `json:"node_type" db:"node_type"`
}
