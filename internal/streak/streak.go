// Package streak derives study statistics from a track's completion log.
// Computation is always a pure function of the current log state: a record
// whose completion flag was toggled off simply stops counting on the next
// run.
package streak

import (
	"fmt"
	"time"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/pkg/models"
)

// liveWindowDays bounds how far back the current streak stays live: with no
// completion in this many days the current streak reads zero, even when
// only non-study days passed in between.
const liveWindowDays = 14

// Compute scans a track's study log together with the non-study date set
// and returns the derived streak state as of today.
//
// A date is satisfied when it has a completed record or is a non-study
// date. Non-study days are transparent: they sit inside a streak without
// breaking it, and a streak's length is counted from the earliest to the
// latest completed day of its run. A study day with no completed record
// ends the run. Today is graced: an empty today does not break the current
// streak until the day is over.
func Compute(trackID string, records []models.StudyLogRecord, nonStudyDates calendar.DateSet, today time.Time) (models.StreakState, error) {
	state := models.StreakState{TrackID: trackID}

	completed := make(map[string]struct{})
	var earliest, latest time.Time
	for _, rec := range records {
		if rec.TrackID != trackID || !rec.IsCompleted {
			continue
		}
		d, err := calendar.ParseDate(rec.StudyDate)
		if err != nil {
			return models.StreakState{}, fmt.Errorf("study log for track %s: %w", trackID, err)
		}
		completed[rec.StudyDate] = struct{}{}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
		if d.After(latest) {
			latest = d
		}
		if rec.CompletedAt != nil && calendar.FormatDate(*rec.CompletedAt) <= rec.StudyDate {
			state.OnTimeCompletions++
		}
	}
	if len(completed) == 0 {
		return state, nil
	}
	state.LastCompletedDate = calendar.FormatDate(latest)

	isCompleted := func(t time.Time) bool {
		_, ok := completed[calendar.FormatDate(t)]
		return ok
	}
	satisfied := func(t time.Time) bool {
		return isCompleted(t) || nonStudyDates.Has(t)
	}

	state.CurrentStreak = currentStreak(isCompleted, satisfied, today)
	state.LongestStreak = longestStreak(isCompleted, satisfied, earliest, latest)
	if state.CurrentStreak > state.LongestStreak {
		state.LongestStreak = state.CurrentStreak
	}
	return state, nil
}

// currentStreak walks backwards from today through satisfied dates and
// measures the run from its most recent completed day down to its earliest.
func currentStreak(isCompleted, satisfied func(time.Time) bool, today time.Time) int {
	d := today
	if !satisfied(d) {
		// Today is still in progress; the streak is judged from yesterday.
		d = calendar.AddDays(d, -1)
	}
	var top, bottom time.Time
	for satisfied(d) {
		if top.IsZero() && daysBetween(d, today) > liveWindowDays {
			return 0
		}
		if isCompleted(d) {
			if top.IsZero() {
				top = d
			}
			bottom = d
		}
		d = calendar.AddDays(d, -1)
	}
	if top.IsZero() {
		return 0
	}
	return daysBetween(bottom, top) + 1
}

// longestStreak scans the full history from the earliest to the latest
// completed day, measuring every run the same way currentStreak does.
func longestStreak(isCompleted, satisfied func(time.Time) bool, earliest, latest time.Time) int {
	longest := 0
	var top, bottom time.Time
	closeRun := func() {
		if !top.IsZero() {
			if n := daysBetween(bottom, top) + 1; n > longest {
				longest = n
			}
		}
		top, bottom = time.Time{}, time.Time{}
	}
	for d := earliest; !d.After(latest); d = calendar.AddDays(d, 1) {
		switch {
		case isCompleted(d):
			if bottom.IsZero() {
				bottom = d
			}
			top = d
		case !satisfied(d):
			closeRun()
		}
	}
	closeRun()
	return longest
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
