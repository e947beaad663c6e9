package bookmarks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

// Get returns one bookmark and logs a view.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Bookmark, error) {
	b, err := s.store.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logViews(ctx, b)
	return b, nil
}

// List returns a page ordered by position, newest first on ties, and logs a
// view for each returned bookmark.
func (s *Service) List(ctx context.Context, f domain.ListFilter) ([]*domain.Bookmark, error) {
	list, err := s.store.ListBookmarks(ctx, f.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	s.logViews(ctx, list...)
	return list, nil
}

// Search runs a full-text query. An empty query lists instead.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, domain.ListFilter{Limit: limit})
	}
	limit = domain.ListFilter{Limit: limit}.Normalize().Limit

	results, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search bookmarks: %w", err)
	}
	s.logViews(ctx, results...)
	return results, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

func (s *Service) Analytics(ctx context.Context) (domain.Analytics, error) {
	return s.store.Analytics(ctx, domain.DefaultRecentActions)
}

// History returns the interactions logged for a bookmark, including ones
// that outlived it.
func (s *Service) History(ctx context.Context, id int64) ([]domain.Interaction, error) {
	return s.store.Interactions(ctx, id)
}

// SuggestTitle asks the extractor for a title, bounded by the enrich timeout.
func (s *Service) SuggestTitle(ctx context.Context, url string) (string, bool) {
	title, ok := bounded(ctx, s.timeout, func(ctx context.Context) (string, bool) {
		return s.titles.ExtractTitle(ctx, url)
	})
	title = strings.TrimSpace(title)
	if !ok || title == "" {
		s.logger.Debug("no title suggestion", logger.String("url", url))
		return "", false
	}
	return title, true
}

// SuggestTags asks the classifier for tags and a category, bounded by the
// enrich timeout.
func (s *Service) SuggestTags(ctx context.Context, url string) (domain.Classification, bool) {
	c, ok := bounded(ctx, s.timeout, func(ctx context.Context) (domain.Classification, bool) {
		return s.classifier.Classify(ctx, url)
	})
	if !ok {
		s.logger.Debug("no classification", logger.String("url", url))
		return domain.Classification{}, false
	}
	c.Tags = domain.NormalizeTags(c.Tags)
	return c, true
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) logViews(ctx context.Context, list ...*domain.Bookmark) {
	if len(list) == 0 {
		return
	}
	ids := make([]int64, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	if err := s.store.AppendInteractions(context.WithoutCancel(ctx), domain.InteractionView, ids...); err != nil {
		s.logger.Warn("failed to log views", logger.Int("count", len(ids)), logger.Error(err))
	}
}

// bounded runs fn with a deadline and gives up when it passes, even if fn
// ignores its context.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, bool)) (T, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v  T
		ok bool
	}
	ch := make(chan result, 1)
	go func() {
		v, ok := fn(ctx)
		ch <- result{v, ok}
	}()

	select {
	case r := <-ch:
		return r.v, r.ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

type storeSearcher struct{ store Store }

func (s storeSearcher) Search(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error) {
	return s.store.SearchBookmarks(ctx, query, limit)
}
