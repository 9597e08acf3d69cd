// Package content answers "is there text for this corpus address" and
// fetches or generates it on demand, fronted by the durable content cache.
package content

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/example/mishnahbot/internal/corpus"
	"github.com/example/mishnahbot/internal/database"
)

// Service resolves content refs to explanation text. Generated text is
// cached by ref, so each corpus unit is generated at most once.
type Service struct {
	corpus *corpus.Index
	cache  *database.ContentCacheRepository
	gen    Generator
	logger *log.Logger
}

// NewService wires a content service. gen may be nil, in which case cache
// misses fall back to a plain reference line instead of generated text.
func NewService(ix *corpus.Index, store *database.Store, gen Generator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stderr, "[content] ", log.LstdFlags)
	}
	return &Service{
		corpus: ix,
		cache:  database.NewContentCacheRepository(store),
		gen:    gen,
		logger: logger,
	}
}

// Exists reports whether cached content is already present for the ref.
func (s *Service) Exists(ref string) (bool, error) {
	return s.cache.Exists(ref)
}

// Ensure returns the text for a content ref, generating and caching it on
// a miss.
func (s *Service) Ensure(ctx context.Context, ref string) (string, error) {
	cached, err := s.cache.Get(ref)
	if err != nil {
		return "", err
	}
	if cached != nil {
		return cached.Content, nil
	}

	addr, err := s.corpus.ParseContentRef(ref)
	if err != nil {
		return "", err
	}
	tractate := s.corpus.Tractates()[addr.TractateIndex]

	var text string
	if s.gen != nil {
		text, err = s.gen.Explain(ctx, tractate, addr.ChapterIndex+1, addr.UnitIndex+1)
		if err != nil {
			s.logger.Printf("Generation for %s failed: %v", ref, err)
			return "", fmt.Errorf("failed to generate content for %s: %w", ref, err)
		}
	} else {
		text = fmt.Sprintf("%s (%s), chapter %d, mishnah %d",
			tractate.Name, s.corpus.HebrewRef(addr), addr.ChapterIndex+1, addr.UnitIndex+1)
	}

	if err := s.cache.Put(ref, text); err != nil {
		return "", err
	}
	return text, nil
}
