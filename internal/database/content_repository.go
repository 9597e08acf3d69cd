package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CachedContent is one generated explanation keyed by its content ref.
type CachedContent struct {
	RefID     string    `db:"ref_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// ContentCacheRepository handles database operations for generated content.
type ContentCacheRepository struct {
	store *Store
}

// NewContentCacheRepository creates a new repository over the given store.
func NewContentCacheRepository(store *Store) *ContentCacheRepository {
	return &ContentCacheRepository{store: store}
}

// Exists reports whether content is cached for the ref.
func (r *ContentCacheRepository) Exists(refID string) (bool, error) {
	var count int
	err := r.store.DB.Get(&count, "SELECT COUNT(*) FROM content_cache WHERE ref_id = $1", refID)
	if err != nil {
		return false, fmt.Errorf("failed to check content cache: %w", err)
	}
	return count > 0, nil
}

// Get returns cached content for the ref.
func (r *ContentCacheRepository) Get(refID string) (*CachedContent, error) {
	var c CachedContent
	err := r.store.DB.Get(&c, "SELECT * FROM content_cache WHERE ref_id = $1", refID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "content", ID: refID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached content: %w", err)
	}
	return &c, nil
}

// Put stores content for the ref, replacing any previous version.
func (r *ContentCacheRepository) Put(refID, content string) error {
	_, err := r.store.DB.Exec(`
		INSERT INTO content_cache (ref_id, content, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (ref_id) DO UPDATE SET content = EXCLUDED.content`,
		refID, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cache content: %w", err)
	}
	return nil
}
