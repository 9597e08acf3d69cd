// Package bot is the Telegram front end: a thin command layer over the
// corpus index, schedule generator, streak calculator and sync reconciler.
package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/content"
	"github.com/example/mishnahbot/internal/corpus"
	"github.com/example/mishnahbot/internal/database"
	"github.com/example/mishnahbot/internal/quiz"
	"github.com/example/mishnahbot/internal/schedule"
	"github.com/example/mishnahbot/internal/sync"
	"github.com/example/mishnahbot/pkg/models"
)

// streakLookback bounds how much non-study calendar the streak command
// fetches.
const streakLookbackDays = 365

// Deps carries the engine services the bot drives.
type Deps struct {
	Store      *database.Store
	Corpus     *corpus.Index
	Generator  *schedule.Generator
	Reconciler *sync.Reconciler
	Content    *content.Service
	Calendar   calendar.Service
	Region     calendar.RegionMode
}

// Bot represents the Telegram bot application.
type Bot struct {
	api        *tgbotapi.BotAPI
	token      string
	corpus     *corpus.Index
	tracks     *database.TrackRepository
	sched      *database.ScheduleRepository
	logs       *database.StudyLogRepository
	generator  *schedule.Generator
	reconciler *sync.Reconciler
	content    *content.Service
	quiz       *quiz.Module
	calendar   calendar.Service
	region     calendar.RegionMode
	logger     *log.Logger
}

// New creates a new bot instance from the TELEGRAM_BOT_TOKEN environment
// variable.
func New(deps Deps, logger *log.Logger) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[bot] ", log.LstdFlags)
	}
	return &Bot{
		token:      token,
		corpus:     deps.Corpus,
		tracks:     database.NewTrackRepository(deps.Store),
		sched:      database.NewScheduleRepository(deps.Store),
		logs:       database.NewStudyLogRepository(deps.Store),
		generator:  deps.Generator,
		reconciler: deps.Reconciler,
		content:    deps.Content,
		quiz:       quiz.New(deps.Corpus, deps.Content),
		calendar:   deps.Calendar,
		region:     deps.Region,
		logger:     logger,
	}, nil
}

// Start connects to Telegram and handles incoming updates until the
// updates channel closes.
func (b *Bot) Start() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = botAPI
	b.logger.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	for update := range b.api.GetUpdatesChan(updateConfig) {
		go b.handleUpdate(update)
	}
	return nil
}

// Stop stops receiving updates.
func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
}

// SendReminder notifies a user that today's assignment for a track is
// still open. Satisfies the scheduler's Notifier.
func (b *Bot) SendReminder(userID string, track models.Track, dueCount int) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("user id %q is not a chat id: %w", userID, err)
	}
	noun := "mishnayot"
	if dueCount == 1 {
		noun = "mishnah"
	}
	text := fmt.Sprintf("You still have %d %s to learn today on %q. Send /today to see them.",
		dueCount, noun, track.Title)
	return b.send(chatID, text)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	msg := update.Message
	userID := strconv.FormatInt(msg.From.ID, 10)
	ctx := context.Background()

	var err error
	switch msg.Command() {
	case "start":
		err = b.handleStart(ctx, msg, userID)
	case "help":
		err = b.send(msg.Chat.ID, helpText)
	case "today":
		err = b.handleToday(ctx, msg, userID)
	case "done":
		err = b.handleDone(ctx, msg, userID)
	case "streak":
		err = b.handleStreak(ctx, msg, userID)
	case "quiz":
		err = b.handleQuiz(ctx, msg, userID)
	case "pace":
		err = b.handlePace(ctx, msg, userID)
	case "regen":
		err = b.handleRegen(ctx, msg, userID)
	case "estimate":
		err = b.handleEstimate(msg, userID)
	default:
		err = b.send(msg.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
	if err != nil {
		b.logger.Printf("Command /%s for user %s failed: %v", msg.Command(), userID, err)
		if sendErr := b.send(msg.Chat.ID, "Something went wrong, please try again."); sendErr != nil {
			b.logger.Printf("Failed to send error reply: %v", sendErr)
		}
	}
}

const helpText = `Commands:
/start - enroll in a daily mishnah track
/today - show today's assignment
/done - mark today's assignment complete
/streak - show your current and longest streak
/quiz - quiz yourself on your latest chapter
/pace <n> [none|light|medium|intensive] - change pace and review intensity
/regen - rebuild your future schedule
/estimate - project your completion date`

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// activeTrack returns the user's single active track, or nil with a
// user-facing hint already sent.
func (b *Bot) activeTrack(chatID int64, userID string) (*models.Track, error) {
	tracks, err := b.tracks.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, b.send(chatID, "You have no active track yet. Send /start to enroll.")
	}
	return &tracks[0], nil
}

func parsePaceArgs(args string) (int, models.ReviewIntensity, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("missing pace")
	}
	pace, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, "", fmt.Errorf("pace %q is not a number", fields[0])
	}
	intensity := models.ReviewNone
	if len(fields) > 1 {
		intensity = models.ReviewIntensity(strings.ToLower(fields[1]))
		if !intensity.Valid() {
			return 0, "", fmt.Errorf("unknown review intensity %q", fields[1])
		}
	}
	return pace, intensity, nil
}
