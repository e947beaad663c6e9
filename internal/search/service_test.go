package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/store/memory"
)

type fakeEngine struct {
	mu      sync.Mutex
	healthy bool
	ids     []int64
	err     error
	docs    []Document
	deleted []int64
}

func (f *fakeEngine) Healthy() bool { return f.healthy }

func (f *fakeEngine) SearchIDs(context.Context, string, int) ([]int64, error) {
	return f.ids, f.err
}

func (f *fakeEngine) Upsert(_ context.Context, docs []Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeEngine) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEngine) snapshot() ([]Document, []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Document(nil), f.docs...), append([]int64(nil), f.deleted...)
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T) (*memory.Store, []*domain.Bookmark) {
	t.Helper()
	store := memory.New()
	var out []*domain.Bookmark
	for i, in := range []domain.NewBookmark{
		{URL: "https://go.dev", Title: "Go", Tags: []string{"lang"}},
		{URL: "https://rust-lang.org", Title: "Rust", Category: strPtr("tech")},
		{URL: "https://news.ycombinator.com", Title: "Hacker News"},
	} {
		in.Position = float64(i + 1)
		b, err := store.CreateBookmark(context.Background(), in)
		require.NoError(t, err)
		out = append(out, b)
	}
	return store, out
}

func TestSearchUsesEngineOrder(t *testing.T) {
	store, bms := seed(t)
	engine := &fakeEngine{healthy: true, ids: []int64{bms[2].ID, bms[0].ID, 999}}
	svc := NewService(engine, store, logger.NewNop())

	got, err := svc.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bms[2].ID, got[0].ID)
	assert.Equal(t, bms[0].ID, got[1].ID)
}

func TestSearchFallsBackOnEngineError(t *testing.T) {
	store, _ := seed(t)
	engine := &fakeEngine{healthy: true, err: errors.New("timeout")}
	svc := NewService(engine, store, logger.NewNop())

	got, err := svc.Search(context.Background(), "rust", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rust", got[0].Title)
}

func TestSearchWithoutEngine(t *testing.T) {
	store, _ := seed(t)
	svc := NewService(nil, store, logger.NewNop())
	assert.False(t, svc.Healthy())
	assert.False(t, svc.Configured())

	got, err := svc.Search(context.Background(), "go", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Go", got[0].Title)

	// no engine: indexing is a no-op
	svc.IndexBookmark(got[0])
	svc.DeleteBookmark(got[0].ID)
	assert.NoError(t, svc.IndexBookmarks(context.Background(), got))
}

func TestIndexHooks(t *testing.T) {
	store, bms := seed(t)
	engine := &fakeEngine{healthy: true}
	svc := NewService(engine, store, logger.NewNop())

	svc.IndexBookmark(bms[1])
	svc.DeleteBookmark(bms[0].ID)

	assert.Eventually(t, func() bool {
		docs, deleted := engine.snapshot()
		return len(docs) == 1 && len(deleted) == 1
	}, time.Second, 5*time.Millisecond)

	docs, deleted := engine.snapshot()
	assert.Equal(t, Document{ID: bms[1].ID, URL: "https://rust-lang.org", Title: "Rust", Category: "tech", Tags: []string{}}, docs[0])
	assert.Equal(t, []int64{bms[0].ID}, deleted)
}

func TestIndexHooksSkipUnhealthyEngine(t *testing.T) {
	store, bms := seed(t)
	engine := &fakeEngine{}
	svc := NewService(engine, store, logger.NewNop())

	svc.IndexBookmark(bms[0])
	svc.DeleteBookmark(bms[0].ID)
	time.Sleep(20 * time.Millisecond)

	docs, deleted := engine.snapshot()
	assert.Empty(t, docs)
	assert.Empty(t, deleted)
}

func TestNewDocument(t *testing.T) {
	b := &domain.Bookmark{
		ID:          7,
		URL:         "https://example.com",
		Title:       "Example",
		Description: strPtr("desc"),
		Tags:        []domain.Tag{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
	}
	assert.Equal(t, Document{ID: 7, URL: "https://example.com", Title: "Example", Description: "desc", Tags: []string{"a", "b"}}, NewDocument(b))
}

func TestHitID(t *testing.T) {
	tests := []struct {
		name string
		hit  meili.Hit
		want int64
		ok   bool
	}{
		{"number", meili.Hit{"id": json.RawMessage(`42`)}, 42, true},
		{"string", meili.Hit{"id": json.RawMessage(`"43"`)}, 43, true},
		{"garbage", meili.Hit{"id": json.RawMessage(`"x"`)}, 0, false},
		{"missing", meili.Hit{"title": json.RawMessage(`"t"`)}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := hitID(tt.hit)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMeiliUnreachable(t *testing.T) {
	m := NewMeili("http://127.0.0.1:1", "", logger.NewNop())
	defer m.Close()

	assert.False(t, m.Healthy())
	_, err := m.SearchIDs(context.Background(), "go", 10)
	assert.ErrorIs(t, err, errUnhealthy)

	m.Close()
}
