package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/quiz"
	"github.com/example/mishnahbot/internal/schedule"
	"github.com/example/mishnahbot/internal/streak"
	"github.com/example/mishnahbot/pkg/models"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, userID string) error {
	tracks, err := b.tracks.GetActiveByUser(userID)
	if err != nil {
		return err
	}
	if len(tracks) > 0 {
		return b.send(msg.Chat.ID, fmt.Sprintf("You are already enrolled in %q. Send /today for today's assignment.", tracks[0].Title))
	}

	track := &models.Track{
		UserID:          userID,
		Title:           "Daily mishnah",
		StartDate:       calendar.FormatDate(time.Now()),
		ScheduleType:    models.ScheduleDaily,
		PaceUnitsPerDay: 1,
		ReviewIntensity: models.ReviewNone,
	}
	if err := b.tracks.Create(track); err != nil {
		return err
	}
	if _, err := b.generator.Regenerate(ctx, track.ID, false); err != nil {
		return err
	}

	est, err := b.estimateFor(track)
	if err != nil {
		return err
	}
	return b.send(msg.Chat.ID, fmt.Sprintf(
		"Welcome! You are enrolled in %q at one mishnah per day.\n"+
			"At this pace you finish all %d mishnayot around %s.\n"+
			"Send /today to begin.",
		track.Title, b.corpus.TotalUnits(), est.FinishDate.Format("January 2006")))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message, userID string) error {
	track, err := b.activeTrack(msg.Chat.ID, userID)
	if track == nil {
		return err
	}

	today := calendar.FormatDate(time.Now())
	entries, err := b.sched.EntriesForDate(track.ID, today)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return b.send(msg.Chat.ID, "Nothing scheduled today. Rest well!")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Today (%s):\n", today))
	for _, e := range entries {
		switch e.NodeType {
		case models.NodeLearn:
			line, err := b.learnLine(ctx, e)
			if err != nil {
				return err
			}
			sb.WriteString(line)
		case models.NodeQuiz:
			sb.WriteString(fmt.Sprintf("\nQuiz: test yourself on %s\n", strings.TrimPrefix(e.ContentRef, "Quiz_")))
		case models.NodeReview:
			addr, err := b.corpus.ParseContentRef(e.ContentRef)
			if err != nil {
				return err
			}
			sb.WriteString(fmt.Sprintf("Review: %s\n", b.corpus.HebrewRef(addr)))
		}
	}
	sb.WriteString("\nSend /done when you finish.")
	return b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) learnLine(ctx context.Context, e models.ScheduleEntry) (string, error) {
	addr, err := b.corpus.ParseContentRef(e.ContentRef)
	if err != nil {
		return "", err
	}
	text, err := b.content.Ensure(ctx, e.ContentRef)
	if err != nil {
		// The assignment stands even when content generation is down.
		b.logger.Printf("Content for %s unavailable: %v", e.ContentRef, err)
		return fmt.Sprintf("Learn: %s\n", b.corpus.HebrewRef(addr)), nil
	}
	return fmt.Sprintf("Learn: %s\n%s\n", b.corpus.HebrewRef(addr), text), nil
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message, userID string) error {
	track, err := b.activeTrack(msg.Chat.ID, userID)
	if track == nil {
		return err
	}

	today := calendar.FormatDate(time.Now())
	entries, err := b.sched.EntriesForDate(track.ID, today)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return b.send(msg.Chat.ID, "Nothing was scheduled today, so there is nothing to mark.")
	}

	now := time.Now().UTC()
	rec := &models.StudyLogRecord{
		UserID:      userID,
		TrackID:     track.ID,
		StudyDate:   today,
		ContentID:   entries[0].ContentRef,
		IsCompleted: true,
		CompletedAt: &now,
	}
	if err := b.reconciler.ApplyLocal(ctx, rec); err != nil {
		return err
	}

	state, err := b.streakFor(ctx, track)
	if err != nil {
		return err
	}
	return b.send(msg.Chat.ID, fmt.Sprintf(
		"Marked today complete. Current streak: %d days. Keep it up!", state.CurrentStreak))
}

func (b *Bot) handleStreak(ctx context.Context, msg *tgbotapi.Message, userID string) error {
	track, err := b.activeTrack(msg.Chat.ID, userID)
	if track == nil {
		return err
	}
	state, err := b.streakFor(ctx, track)
	if err != nil {
		return err
	}
	if state.LastCompletedDate == "" {
		return b.send(msg.Chat.ID, "No completions yet. Send /today to start your streak.")
	}
	return b.send(msg.Chat.ID, fmt.Sprintf(
		"Current streak: %d days\nLongest streak: %d days\nLast completed: %s\nOn-time completions: %d",
		state.CurrentStreak, state.LongestStreak, state.LastCompletedDate, state.OnTimeCompletions))
}

func (b *Bot) streakFor(ctx context.Context, track *models.Track) (models.StreakState, error) {
	records, err := b.logs.GetByTrack(track.ID)
	if err != nil {
		return models.StreakState{}, err
	}

	now := time.Now()
	nonStudy, err := calendar.NonStudyDates(ctx, b.calendar,
		calendar.AddDays(now, -streakLookbackDays), now, b.region,
		track.ScheduleType == models.ScheduleWeekdaysOnly)
	if err != nil {
		return models.StreakState{}, err
	}

	today, err := calendar.ParseDate(calendar.FormatDate(now))
	if err != nil {
		return models.StreakState{}, err
	}
	return streak.Compute(track.ID, records, nonStudy, today)
}

func (b *Bot) handleQuiz(ctx context.Context, msg *tgbotapi.Message, userID string) error {
	track, err := b.activeTrack(msg.Chat.ID, userID)
	if track == nil {
		return err
	}
	// A quiz node scheduled for today takes precedence; otherwise fall
	// back to the chapter the user most recently finished studying.
	today := calendar.FormatDate(time.Now())
	entries, err := b.sched.EntriesForDate(track.ID, today)
	if err != nil {
		return err
	}
	var questions []quiz.Question
	var subject string
	for _, e := range entries {
		if e.NodeType == models.NodeQuiz {
			questions, err = b.quiz.ForQuizRef(ctx, e.ContentRef, quiz.DefaultOptionCount)
			if err != nil {
				return err
			}
			subject = strings.ReplaceAll(strings.TrimPrefix(e.ContentRef, "Quiz_"), ".", " chapter ")
			break
		}
	}
	if questions == nil {
		maxCompleted, err := b.sched.MaxCompletedIndex(track.ID)
		if err != nil {
			return err
		}
		if maxCompleted < 0 {
			return b.send(msg.Chat.ID, "Complete some learning first, then come back to quiz yourself.")
		}
		tractate, err := b.corpus.TractateAtGlobalIndex(maxCompleted)
		if err != nil {
			return err
		}
		chapter, err := b.corpus.ChapterAtGlobalIndex(maxCompleted)
		if err != nil {
			return err
		}
		questions, err = b.quiz.ForChapter(ctx, tractate.Name, chapter, quiz.DefaultOptionCount)
		if err != nil {
			return err
		}
		subject = fmt.Sprintf("%s chapter %d", tractate.Name, chapter)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Quiz on %s. Which mishnah is described?\n", subject))
	for n, q := range questions {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", n+1, q.Prompt))
		for i, o := range q.Options {
			sb.WriteString(fmt.Sprintf("   %c) %s\n", 'a'+i, o))
		}
	}
	sb.WriteString("\nAnswers: ")
	for n, q := range questions {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d-%c", n+1, 'a'+q.CorrectIndex))
	}
	return b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handlePace(ctx context.Context, msg *tgbotapi.Message, userID string) error {
	track, err := b.activeTrack(msg.Chat.ID, userID)
	if track == nil {
		return err
	}

	pace, intensity, err := parsePaceArgs(msg.CommandArguments())
	if err != nil {
		return b.send(msg.Chat.ID, "Usage: /pace <units per day> [none|light|medium|intensive]")
	}
	if pace <= 0 {
		return b.send(msg.Chat.ID, "Pace must be a positive number of mishnayot per day.")
	}

	if err := b.tracks.UpdatePace(track.ID, pace, intensity); err != nil {
		return err
	}
	if _, err := b.generator.Regenerate(ctx, track.ID, true); err != nil {
		return err
	}

	track.PaceUnitsPerDay = pace
	est, err := b.estimateFor(track)
	if err != nil {
		return err
	}
	return b.send(msg.Chat.ID, fmt.Sprintf(
		"Pace set to %d per day with %s review. New projected finish: %s.",
		pace, intensity, est.FinishDate.Format("January 2006")))
}

func (b *Bot) handleRegen(ctx context.Context, msg *tgbotapi.Message, userID string) error {
	track, err := b.activeTrack(msg.Chat.ID, userID)
	if track == nil {
		return err
	}
	entries, err := b.generator.Regenerate(ctx, track.ID, true)
	if err != nil {
		return err
	}
	return b.send(msg.Chat.ID, fmt.Sprintf("Schedule rebuilt: %d upcoming assignments.", len(entries)))
}

func (b *Bot) handleEstimate(msg *tgbotapi.Message, userID string) error {
	track, err := b.activeTrack(msg.Chat.ID, userID)
	if track == nil {
		return err
	}
	est, err := b.estimateFor(track)
	if err != nil {
		return err
	}
	return b.send(msg.Chat.ID, fmt.Sprintf(
		"%d mishnayot left at %d per day: about %.1f years of study, finishing around %s.",
		est.TotalItems, est.ItemsPerDay, est.Years, est.FinishDate.Format("January 2006")))
}

func (b *Bot) estimateFor(track *models.Track) (schedule.CompletionEstimate, error) {
	maxCompleted, err := b.sched.MaxCompletedIndex(track.ID)
	if err != nil {
		return schedule.CompletionEstimate{}, err
	}
	return schedule.EstimateCompletion(b.corpus, maxCompleted+1, track.PaceUnitsPerDay, time.Now())
}
