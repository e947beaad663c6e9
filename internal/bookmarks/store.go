package bookmarks

import (
	"context"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/realtime"
)

// Store is the persistence collaborator. Implementations return errors
// wrapping domain.ErrConflict on duplicate URLs and domain.ErrNotFound for
// missing bookmarks. A successful return means the write is durable.
type Store interface {
	CreateBookmark(ctx context.Context, in domain.NewBookmark) (*domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, id int64, p domain.BookmarkPatch) (*domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) (bool, error)

	GetBookmark(ctx context.Context, id int64) (*domain.Bookmark, error)
	ListBookmarks(ctx context.Context, f domain.ListFilter) ([]*domain.Bookmark, error)
	SearchBookmarks(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error)
	BookmarksByIDs(ctx context.Context, ids []int64) ([]*domain.Bookmark, error)
	Categories(ctx context.Context) ([]string, error)
	MaxPosition(ctx context.Context, category *string) (float64, bool, error)

	AppendInteractions(ctx context.Context, kind domain.InteractionKind, ids ...int64) error
	Interactions(ctx context.Context, bookmarkID int64) ([]domain.Interaction, error)
	Analytics(ctx context.Context, recent int) (domain.Analytics, error)

	Ping(ctx context.Context) error
}

// TitleExtractor suggests a title for a URL. ok is false when nothing could
// be extracted.
type TitleExtractor interface {
	ExtractTitle(ctx context.Context, url string) (title string, ok bool)
}

// Classifier suggests tags and a category for a URL.
type Classifier interface {
	Classify(ctx context.Context, url string) (c domain.Classification, ok bool)
}

// Publisher receives one event per committed mutation.
type Publisher interface {
	Publish(evt realtime.Event)
}

// Indexer mirrors committed bookmarks into an external search index. Calls
// must not block.
type Indexer interface {
	IndexBookmark(b *domain.Bookmark)
	DeleteBookmark(id int64)
}

// Searcher runs full-text queries. The store is used when none is set.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error)
}

type noTitles struct{}

func (noTitles) ExtractTitle(context.Context, string) (string, bool) { return "", false }

type noClassifier struct{}

func (noClassifier) Classify(context.Context, string) (domain.Classification, bool) {
	return domain.Classification{}, false
}

type noIndexer struct{}

func (noIndexer) IndexBookmark(*domain.Bookmark) {}
func (noIndexer) DeleteBookmark(int64)           {}
