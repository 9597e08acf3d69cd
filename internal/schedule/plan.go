// Package schedule turns a track's pace preference into a concrete calendar
// of study assignments, skipping non-study days and weaving in chapter
// quizzes and spaced review sessions.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/corpus"
	"github.com/example/mishnahbot/pkg/models"
)

// reviewIntervals maps intensity to the spaced ladder of study-day offsets
// at which a learn day's units come back for review.
var reviewIntervals = map[models.ReviewIntensity][]int{
	models.ReviewNone:      {},
	models.ReviewLight:     {7, 30},
	models.ReviewMedium:    {3, 7, 30},
	models.ReviewIntensive: {1, 3, 7, 14, 30},
}

// maxReviewRefs bounds how many trailing units one review session revisits.
const maxReviewRefs = 10

// studyDaysPerYear approximates weekdays minus holidays, used only for
// completion estimates.
const studyDaysPerYear = 250

// Options configures one generation run.
type Options struct {
	StartDate     time.Time
	Pace          int
	Intensity     models.ReviewIntensity
	NonStudyDates calendar.DateSet
	Force         bool
}

func (o Options) validate() error {
	if o.Pace <= 0 {
		return &InvalidConfigError{Field: "pace", Value: o.Pace, Reason: "must be a positive number of units per day"}
	}
	if !o.Intensity.Valid() {
		return &InvalidConfigError{Field: "review_intensity", Value: o.Intensity, Reason: "unknown intensity"}
	}
	return nil
}

// Plan computes the full remaining schedule for a track from its resume
// point. It is a pure function of its inputs: the same resume point and
// options always yield the same entries, which is what makes forced
// regeneration idempotent.
func Plan(ix *corpus.Index, trackID string, resume int, opts Options) ([]models.ScheduleEntry, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if resume < 0 {
		resume = 0
	}
	total := ix.TotalUnits()
	if resume >= total {
		// Track complete: nothing left to schedule.
		return []models.ScheduleEntry{}, nil
	}

	intervals := reviewIntervals[opts.Intensity]

	var entries []models.ScheduleEntry
	next := resume

	day := calendar.NextStudyDay(opts.StartDate, opts.NonStudyDates)
	for next < total {
		date := calendar.FormatDate(day)

		last := next
		var dayUnits []int
		for n := 0; n < opts.Pace && next < total; n++ {
			ref, err := ix.ContentRef(next)
			if err != nil {
				return nil, err
			}
			entries = append(entries, models.ScheduleEntry{
				TrackID:     trackID,
				Date:        date,
				GlobalIndex: next,
				ContentRef:  ref,
				NodeType:    models.NodeLearn,
			})
			dayUnits = append(dayUnits, next)
			last = next
			next++
		}

		if ix.IsChapterEnd(last) {
			entries = append(entries, quizEntry(ix, trackID, date, last))
		}

		for _, offset := range intervals {
			reviewDate := calendar.FormatDate(calendar.AddStudyDays(day, offset, opts.NonStudyDates))
			entries = append(entries, reviewEntries(ix, trackID, reviewDate, dayUnits)...)
		}

		day = calendar.NextStudyDay(calendar.AddDays(day, 1), opts.NonStudyDates)
	}

	// Review sessions land past the learn day that spawned them, so the
	// combined list needs one ordering pass. On a shared date learning
	// comes first, then the chapter quiz, then reviews.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		if ri, rj := nodeRank(entries[i].NodeType), nodeRank(entries[j].NodeType); ri != rj {
			return ri < rj
		}
		return entries[i].GlobalIndex < entries[j].GlobalIndex
	})
	return entries, nil
}

func nodeRank(n models.NodeType) int {
	switch n {
	case models.NodeLearn:
		return 0
	case models.NodeQuiz:
		return 1
	default:
		return 2
	}
}

// quizEntry closes out the chapter ending at global index last.
func quizEntry(ix *corpus.Index, trackID, date string, last int) models.ScheduleEntry {
	t, _ := ix.TractateAtGlobalIndex(last)
	chapter, _ := ix.ChapterAtGlobalIndex(last)
	return models.ScheduleEntry{
		TrackID:     trackID,
		Date:        date,
		GlobalIndex: last,
		ContentRef:  fmt.Sprintf("Quiz_%s.%d", t.Name, chapter),
		NodeType:    models.NodeQuiz,
	}
}

// reviewEntries revisits one learn day's units on a later date, newest
// last, capped at maxReviewRefs.
func reviewEntries(ix *corpus.Index, trackID, date string, window []int) []models.ScheduleEntry {
	if len(window) > maxReviewRefs {
		window = window[len(window)-maxReviewRefs:]
	}
	var out []models.ScheduleEntry
	for _, idx := range window {
		ref, err := ix.ContentRef(idx)
		if err != nil {
			continue
		}
		out = append(out, models.ScheduleEntry{
			TrackID:     trackID,
			Date:        date,
			GlobalIndex: idx,
			ContentRef:  ref,
			NodeType:    models.NodeReview,
		})
	}
	return out
}

// CompletionEstimate summarizes how long finishing the corpus takes at a
// given pace.
type CompletionEstimate struct {
	Years       float64
	FinishDate  time.Time
	TotalItems  int
	ItemsPerDay int
}

// EstimateCompletion projects a finish date for studying the remaining
// corpus at pace units per study day, starting from start.
func EstimateCompletion(ix *corpus.Index, resume, pace int, start time.Time) (CompletionEstimate, error) {
	if pace <= 0 {
		return CompletionEstimate{}, &InvalidConfigError{Field: "pace", Value: pace, Reason: "must be a positive number of units per day"}
	}
	remaining := ix.TotalUnits() - resume
	if remaining < 0 {
		remaining = 0
	}
	studyDays := (remaining + pace - 1) / pace
	calendarDays := int(float64(studyDays) * 365.0 / studyDaysPerYear)
	return CompletionEstimate{
		Years:       float64(studyDays) / studyDaysPerYear,
		FinishDate:  calendar.AddDays(start, calendarDays),
		TotalItems:  remaining,
		ItemsPerDay: pace,
	}, nil
}
