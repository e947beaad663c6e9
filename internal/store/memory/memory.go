package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// Store keeps bookmarks, tags and the interaction log in process memory.
// It backs BOOKMARKD_STORE=memory and the test suites.
type Store struct {
	mu           sync.RWMutex
	bookmarks    map[int64]*domain.Bookmark // ID -> Bookmark
	byURL        map[string]int64           // URL -> ID
	tags         map[string]domain.Tag      // name -> Tag
	interactions []domain.Interaction

	nextBookmarkID    int64
	nextTagID         int64
	nextInteractionID int64

	now func() time.Time
}

// New creates an empty memory store
func New() *Store {
	return &Store{
		bookmarks: make(map[int64]*domain.Bookmark),
		byURL:     make(map[string]int64),
		tags:      make(map[string]domain.Tag),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) CreateBookmark(_ context.Context, in domain.NewBookmark) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byURL[in.URL]; exists {
		return nil, domain.Conflict("A bookmark with this URL already exists")
	}

	s.nextBookmarkID++
	now := s.now().UTC()
	b := &domain.Bookmark{
		ID:          s.nextBookmarkID,
		URL:         in.URL,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Position:    in.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        s.resolveTagsLocked(in.Tags),
	}
	if b.Title == "" {
		b.Title = domain.DefaultTitle
	}
	s.bookmarks[b.ID] = b
	s.byURL[b.URL] = b.ID
	return b.Clone(), nil
}

func (s *Store) UpdateBookmark(_ context.Context, id int64, p domain.BookmarkPatch) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return nil, domain.NotFound("Bookmark not found")
	}
	if p.URL.HasValue() && *p.URL.Value() != b.URL {
		if _, taken := s.byURL[*p.URL.Value()]; taken {
			return nil, domain.Conflict("A bookmark with this URL already exists")
		}
	}

	oldURL := b.URL
	p.Apply(b)
	if b.URL != oldURL {
		delete(s.byURL, oldURL)
		s.byURL[b.URL] = b.ID
	}
	if p.Tags.IsSet() {
		b.Tags = s.resolveTagsLocked(p.TagSet())
	}
	b.UpdatedAt = s.now().UTC()
	return b.Clone(), nil
}

func (s *Store) DeleteBookmark(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return false, nil
	}
	delete(s.byURL, b.URL)
	delete(s.bookmarks, id)
	return true, nil
}

func (s *Store) GetBookmark(_ context.Context, id int64) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return nil, domain.NotFound("Bookmark not found")
	}
	return b.Clone(), nil
}

func (s *Store) ListBookmarks(_ context.Context, f domain.ListFilter) ([]*domain.Bookmark, error) {
	f = f.Normalize()

	s.mu.RLock()
	list := make([]*domain.Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		if f.Category != nil && !domain.SameCategory(b.Category, f.Category) {
			continue
		}
		list = append(list, b.Clone())
	}
	s.mu.RUnlock()

	sortListing(list)
	return page(list, f.Skip, f.Limit), nil
}

func (s *Store) BookmarksByIDs(_ context.Context, ids []int64) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		if b, ok := s.bookmarks[id]; ok {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

// SearchBookmarks matches the query against title, description and URL, or
// any tag containing it, case-insensitively. Title hits rank first.
func (s *Store) SearchBookmarks(_ context.Context, query string, limit int) ([]*domain.Bookmark, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*domain.Bookmark{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}

	type hit struct {
		b     *domain.Bookmark
		score int
	}

	s.mu.RLock()
	hits := make([]hit, 0)
	for _, b := range s.bookmarks {
		if score := matchScore(b, q); score > 0 {
			hits = append(hits, hit{b: b.Clone(), score: score})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return listingLess(hits[i].b, hits[j].b)
	})

	out := make([]*domain.Bookmark, 0, len(hits))
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.b)
	}
	return out, nil
}

func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, b := range s.bookmarks {
		if b.Category != nil {
			seen[*b.Category] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) MaxPosition(_ context.Context, category *string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max float64
	found := false
	for _, b := range s.bookmarks {
		if !domain.SameCategory(b.Category, category) {
			continue
		}
		if !found || b.Position > max {
			max = b.Position
			found = true
		}
	}
	return max, found, nil
}

func (s *Store) AppendInteractions(_ context.Context, kind domain.InteractionKind, ids ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, id := range ids {
		s.nextInteractionID++
		s.interactions = append(s.interactions, domain.Interaction{
			ID:         s.nextInteractionID,
			BookmarkID: id,
			Kind:       kind,
			Timestamp:  now,
		})
	}
	return nil
}

func (s *Store) Interactions(_ context.Context, bookmarkID int64) ([]domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Interaction, 0)
	for _, in := range s.interactions {
		if in.BookmarkID == bookmarkID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *Store) Analytics(_ context.Context, recent int) (domain.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		list = append(list, b)
	}
	return domain.ProjectAnalytics(list, s.interactions, recent), nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Count returns the number of stored bookmarks
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookmarks)
}

// resolveTagsLocked returns tags for names, creating unknown ones.
func (s *Store) resolveTagsLocked(names []string) []domain.Tag {
	names = domain.NormalizeTags(names)
	out := make([]domain.Tag, 0, len(names))
	for _, n := range names {
		t, ok := s.tags[n]
		if !ok {
			s.nextTagID++
			t = domain.Tag{ID: s.nextTagID, Name: n}
			s.tags[n] = t
		}
		out = append(out, t)
	}
	return out
}

func matchScore(b *domain.Bookmark, q string) int {
	score := 0
	if strings.Contains(strings.ToLower(b.Title), q) {
		score += 4
	}
	if b.Description != nil && strings.Contains(strings.ToLower(*b.Description), q) {
		score += 2
	}
	if strings.Contains(strings.ToLower(b.URL), q) {
		score++
	}
	for _, t := range b.Tags {
		if strings.Contains(t.Name, q) {
			score++
			break
		}
	}
	return score
}

func sortListing(list []*domain.Bookmark) {
	sort.SliceStable(list, func(i, j int) bool { return listingLess(list[i], list[j]) })
}

// listingLess orders by position, then newest first, then highest id.
func listingLess(a, b *domain.Bookmark) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func page(list []*domain.Bookmark, skip, limit int) []*domain.Bookmark {
	if skip >= len(list) {
		return []*domain.Bookmark{}
	}
	list = list[skip:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list
}
