package search

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

const indexTimeout = 10 * time.Second

// Service is the facade that tries the engine first and falls back to the
// store's full-text search.
type Service struct {
	engine Engine
	store  Store
	logger logger.Logger
}

// NewService creates a search service. engine may be nil when no search
// engine is configured.
func NewService(engine Engine, store Store, log logger.Logger) *Service {
	return &Service{engine: engine, store: store, logger: log}
}

// Search returns bookmarks in rank order.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error) {
	if s.Healthy() {
		list, err := s.searchEngine(ctx, query, limit)
		if err == nil {
			return list, nil
		}
		s.logger.Warn("search engine error, falling back to store", logger.Error(err))
	}

	list, err := s.store.SearchBookmarks(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store search: %w", err)
	}
	return list, nil
}

func (s *Service) searchEngine(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error) {
	ids, err := s.engine.SearchIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Bookmark{}, nil
	}
	// ids of bookmarks deleted since they were indexed are simply missing
	return s.store.BookmarksByIDs(ctx, ids)
}

// Healthy reports whether the engine is configured and reachable.
func (s *Service) Healthy() bool {
	return s.engine != nil && s.engine.Healthy()
}

// Configured reports whether an engine was set up at all.
func (s *Service) Configured() bool {
	return s.engine != nil
}

// IndexBookmark mirrors a committed bookmark into the engine (fire-and-forget).
func (s *Service) IndexBookmark(b *domain.Bookmark) {
	if !s.Healthy() || b == nil {
		return
	}
	doc := NewDocument(b)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := s.engine.Upsert(ctx, []Document{doc}); err != nil {
			s.logger.Warn("index bookmark", logger.Int64("bookmark_id", doc.ID), logger.Error(err))
		}
	}()
}

// DeleteBookmark removes a bookmark from the engine (fire-and-forget).
func (s *Service) DeleteBookmark(id int64) {
	if !s.Healthy() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := s.engine.Delete(ctx, id); err != nil {
			s.logger.Warn("delete bookmark from index", logger.Int64("bookmark_id", id), logger.Error(err))
		}
	}()
}

// IndexBookmarks pushes a batch synchronously. Used by the reindexer.
func (s *Service) IndexBookmarks(ctx context.Context, list []*domain.Bookmark) error {
	if s.engine == nil {
		return nil
	}
	docs := make([]Document, 0, len(list))
	for _, b := range list {
		docs = append(docs, NewDocument(b))
	}
	return s.engine.Upsert(ctx, docs)
}
