package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/patch"
)

func strPtr(s string) *string { return &s }

// tickingClock returns timestamps one second apart so ordering is deterministic.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestCreateBookmarkNormalizesTags(t *testing.T) {
	s := New()
	b, err := s.CreateBookmark(context.Background(), domain.NewBookmark{
		URL:  "https://go.dev",
		Tags: []string{"Tech", " tech ", "NEWS"},
	})
	if err != nil {
		t.Fatalf("CreateBookmark() error = %v", err)
	}
	if got := b.TagNames(); len(got) != 2 || got[0] != "tech" || got[1] != "news" {
		t.Errorf("tags = %v, want [tech news]", got)
	}
	if b.Title != domain.DefaultTitle {
		t.Errorf("Title = %q, want default", b.Title)
	}
}

func TestCreateBookmarkDuplicateURL(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a"}); err != nil {
		t.Fatal(err)
	}
	_, err := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestTagsAreSharedByName(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, _ := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a", Tags: []string{"go"}})
	b, _ := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://b", Tags: []string{"GO"}})
	if a.Tags[0].ID != b.Tags[0].ID {
		t.Errorf("tag ids differ: %d vs %d", a.Tags[0].ID, b.Tags[0].ID)
	}
}

func TestUpdateBookmarkPartial(t *testing.T) {
	s := New().WithClock(tickingClock())
	ctx := context.Background()
	b, _ := s.CreateBookmark(ctx, domain.NewBookmark{
		URL: "https://a", Title: "A", Description: strPtr("d"), Category: strPtr("x"), Tags: []string{"one"},
	})

	got, err := s.UpdateBookmark(ctx, b.ID, domain.BookmarkPatch{
		Description: patch.Unset[string](),
		Tags:        patch.NewOptional([]string{"two", "three"}),
	})
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}
	if got.Title != "A" || got.Category == nil || *got.Category != "x" {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if got.Description != nil {
		t.Errorf("Description = %v, want cleared", *got.Description)
	}
	if names := got.TagNames(); len(names) != 2 || names[0] != "two" {
		t.Errorf("tags = %v, want replaced", names)
	}
	if !got.UpdatedAt.After(b.UpdatedAt) {
		t.Errorf("UpdatedAt not bumped")
	}
	if !got.CreatedAt.Equal(b.CreatedAt) {
		t.Errorf("CreatedAt changed")
	}
}

func TestUpdateBookmarkErrors(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, _ := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a"})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://b"})

	if _, err := s.UpdateBookmark(ctx, 999, domain.BookmarkPatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateBookmark(ctx, a.ID, domain.BookmarkPatch{URL: patch.NewOptional("https://b")}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("collision: error = %v, want ErrConflict", err)
	}
	if _, err := s.UpdateBookmark(ctx, a.ID, domain.BookmarkPatch{URL: patch.NewOptional("https://c")}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a"}); err != nil {
		t.Errorf("old url should be free after rename: %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	s := New().WithClock(tickingClock())
	ctx := context.Background()
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a", Position: 2})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://b", Position: 1})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://c", Position: 1})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://d", Position: 0, Category: strPtr("x")})

	list, _ := s.ListBookmarks(ctx, domain.ListFilter{})
	want := []string{"https://d", "https://c", "https://b", "https://a"}
	for i, b := range list {
		if b.URL != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, b.URL, want[i])
		}
	}

	filtered, _ := s.ListBookmarks(ctx, domain.ListFilter{Category: strPtr("x")})
	if len(filtered) != 1 || filtered[0].URL != "https://d" {
		t.Errorf("filtered = %v", filtered)
	}

	paged, _ := s.ListBookmarks(ctx, domain.ListFilter{Skip: 1, Limit: 2})
	if len(paged) != 2 || paged[0].URL != "https://c" {
		t.Errorf("paged = %v", paged)
	}
}

func TestMaxPositionGroupsNilCategory(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a", Position: 5})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://b", Position: 9, Category: strPtr("x")})

	max, ok, _ := s.MaxPosition(ctx, nil)
	if !ok || max != 5 {
		t.Errorf("MaxPosition(nil) = %v, %v", max, ok)
	}
	if _, ok, _ := s.MaxPosition(ctx, strPtr("empty")); ok {
		t.Error("MaxPosition(empty) should report no rows")
	}
}

func TestDeleteKeepsInteractions(t *testing.T) {
	s := New()
	ctx := context.Background()
	b, _ := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a", Title: "A"})
	_ = s.AppendInteractions(ctx, domain.InteractionCreate, b.ID)

	ok, _ := s.DeleteBookmark(ctx, b.ID)
	if !ok {
		t.Fatal("DeleteBookmark() = false")
	}
	if ok, _ := s.DeleteBookmark(ctx, b.ID); ok {
		t.Error("second delete should report false")
	}
	history, _ := s.Interactions(ctx, b.ID)
	if len(history) != 1 {
		t.Errorf("history = %v, want 1 entry", history)
	}
	if _, err := s.GetBookmark(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetBookmark after delete error = %v", err)
	}
}

func TestSearchBookmarks(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://x", Title: "Learning Go"})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://go.example", Title: "Other"})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://z", Title: "Tagged", Tags: []string{"golang"}})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://none", Title: "Rust"})

	got, _ := s.SearchBookmarks(ctx, "GO", 10)
	if len(got) != 3 {
		t.Fatalf("SearchBookmarks() returned %d, want 3", len(got))
	}
	if got[0].Title != "Learning Go" {
		t.Errorf("first hit = %q, want title match", got[0].Title)
	}
	if got, _ := s.SearchBookmarks(ctx, "  ", 10); len(got) != 0 {
		t.Errorf("blank query returned %d", len(got))
	}
}

func TestCategoriesAndAnalytics(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, _ := s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://a", Category: strPtr("tech"), Tags: []string{"go"}})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://b", Category: strPtr("news")})
	_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: "https://c"})
	_ = s.AppendInteractions(ctx, domain.InteractionView, a.ID)

	cats, _ := s.Categories(ctx)
	if len(cats) != 2 || cats[0] != "news" || cats[1] != "tech" {
		t.Errorf("Categories() = %v", cats)
	}

	an, _ := s.Analytics(ctx, 10)
	if an.CategoryCounts[domain.UncategorizedLabel] != 1 || an.TagCounts["go"] != 1 {
		t.Errorf("Analytics() = %+v", an)
	}
	if len(an.RecentActions) != 1 {
		t.Errorf("RecentActions = %v", an.RecentActions)
	}
}

func TestConcurrentCreates(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.CreateBookmark(ctx, domain.NewBookmark{URL: fmt.Sprintf("https://%d", i%50)})
		}(i)
	}
	wg.Wait()
	if s.Count() != 50 {
		t.Errorf("Count() = %d, want 50", s.Count())
	}
}
