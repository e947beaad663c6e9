package search

import (
	"context"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// Document is what gets pushed to the search engine for one bookmark.
type Document struct {
	ID          int64    `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// NewDocument flattens a bookmark for indexing.
func NewDocument(b *domain.Bookmark) Document {
	d := Document{
		ID:    b.ID,
		URL:   b.URL,
		Title: b.Title,
		Tags:  b.TagNames(),
	}
	if b.Description != nil {
		d.Description = *b.Description
	}
	if b.Category != nil {
		d.Category = *b.Category
	}
	return d
}

// Engine is an external full-text engine returning ranked bookmark ids.
type Engine interface {
	Healthy() bool
	SearchIDs(ctx context.Context, query string, limit int) ([]int64, error)
	Upsert(ctx context.Context, docs []Document) error
	Delete(ctx context.Context, id int64) error
}

// Store is the relational fallback and the source used to hydrate engine hits.
type Store interface {
	SearchBookmarks(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error)
	BookmarksByIDs(ctx context.Context, ids []int64) ([]*domain.Bookmark, error)
}
