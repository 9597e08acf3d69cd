package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/mishnahbot/internal/bot"
	"github.com/example/mishnahbot/internal/calendar"
	"github.com/example/mishnahbot/internal/content"
	"github.com/example/mishnahbot/internal/corpus"
	"github.com/example/mishnahbot/internal/database"
	"github.com/example/mishnahbot/internal/importer"
	"github.com/example/mishnahbot/internal/schedule"
	"github.com/example/mishnahbot/internal/scheduler"
	"github.com/example/mishnahbot/internal/sync"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	store, err := database.OpenLocal(dataDir)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer store.Close()

	ix, err := loadCorpus()
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}

	region := calendar.RegionTwoDay
	if os.Getenv("REGION_MODE") == string(calendar.RegionSingleDay) {
		region = calendar.RegionSingleDay
	}
	cal := calendar.NewHebcalClient()

	transport, remote := openTransport()
	if remote != nil {
		defer remote.Close()
	}
	reconciler := sync.NewReconciler(store, transport, os.Getenv("DEVICE_ID"), nil)
	defer reconciler.Close()
	go func() {
		for res := range reconciler.Results() {
			if res.Err != nil {
				log.Printf("Completion for %s on %s did not save: %v",
					res.Record.TrackID, res.Record.StudyDate, res.Err)
			}
		}
	}()

	var gen content.Generator
	if os.Getenv("OPENAI_API_KEY") != "" {
		gen, err = content.NewOpenAI()
		if err != nil {
			log.Printf("Warning: content generation disabled: %v", err)
		}
	}
	contentSvc := content.NewService(ix, store, gen, nil)

	generator := schedule.NewGenerator(ix, store, cal, region, nil)

	b, err := bot.New(bot.Deps{
		Store:      store,
		Corpus:     ix,
		Generator:  generator,
		Reconciler: reconciler,
		Content:    contentSvc,
		Calendar:   cal,
		Region:     region,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	var puller scheduler.Puller
	if remote != nil {
		puller = reconciler
	}
	jobs := scheduler.New(store, b, puller, nil)
	jobs.Start()
	defer jobs.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		b.Stop()
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	log.Println("Bot stopped")
}

// loadCorpus uses the built-in corpus table unless CORPUS_FILE points at an
// Excel or CSV override.
func loadCorpus() (*corpus.Index, error) {
	path := os.Getenv("CORPUS_FILE")
	if path == "" {
		return corpus.Default(), nil
	}
	config := importer.DefaultConfig()
	config.FilePath = path
	ix, result, err := importer.ImportIndex(config)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		log.Printf("Corpus import: %s", e)
	}
	log.Printf("Imported %d tractates (%d units) from %s", result.Imported, ix.TotalUnits(), path)
	return ix, nil
}

// openTransport connects to the shared backing store named by DATABASE_URL,
// falling back to offline mode without one.
func openTransport() (sync.Transport, *database.Store) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Println("DATABASE_URL not set, running without multi-device sync")
		return sync.OfflineTransport{}, nil
	}
	remote, err := database.Open("postgres", url)
	if err != nil {
		log.Printf("Warning: backing store unavailable, running offline: %v", err)
		return sync.OfflineTransport{}, nil
	}
	return sync.NewPostgresTransport(remote), remote
}
