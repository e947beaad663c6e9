package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

// Lister pages through stored bookmarks.
type Lister interface {
	ListBookmarks(ctx context.Context, f domain.ListFilter) ([]*domain.Bookmark, error)
}

// BulkIndexer replaces the content of the search index.
type BulkIndexer interface {
	Healthy() bool
	IndexBookmarks(ctx context.Context, list []*domain.Bookmark) error
}

// Reindexer pushes every stored bookmark to the search index, so it catches
// up with writes made while it was unreachable.
type Reindexer struct {
	store   Lister
	index   BulkIndexer
	logger  logger.Logger
	pageLen int
}

func NewReindexer(store Lister, index BulkIndexer, log logger.Logger) *Reindexer {
	return &Reindexer{store: store, index: index, logger: log, pageLen: domain.MaxListLimit}
}

// Reindex returns the number of bookmarks pushed. It does nothing when the
// index is down.
func (r *Reindexer) Reindex(ctx context.Context) (int, error) {
	if !r.index.Healthy() {
		r.logger.Info("search index unavailable, skipping reindex")
		return 0, nil
	}

	total := 0
	for skip := 0; ; skip += r.pageLen {
		page, err := r.store.ListBookmarks(ctx, domain.ListFilter{Skip: skip, Limit: r.pageLen})
		if err != nil {
			return total, fmt.Errorf("list bookmarks: %w", err)
		}
		if len(page) == 0 {
			break
		}
		if err := r.index.IndexBookmarks(ctx, page); err != nil {
			return total, fmt.Errorf("index bookmarks: %w", err)
		}
		total += len(page)
		if len(page) < r.pageLen {
			break
		}
	}

	r.logger.Info("search index rebuilt", logger.Int("bookmarks", total))
	return total, nil
}
