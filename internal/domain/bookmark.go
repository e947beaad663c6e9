package domain

import (
	"strings"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/patch"
)

// DefaultTitle is used when a bookmark is created without a title and none
// could be extracted from the page.
const DefaultTitle = "Untitled Bookmark"

// Tag is a normalized label shared between bookmarks.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Bookmark is the persisted entity. Position orders bookmarks inside their
// category. A nil Category is its own group.
type Bookmark struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Position    float64   `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tags        []Tag     `json:"tags"`
}

// Clone returns a deep copy so callers can hand the value across goroutines.
func (b *Bookmark) Clone() *Bookmark {
	if b == nil {
		return nil
	}
	c := *b
	c.Description = cloneString(b.Description)
	c.Category = cloneString(b.Category)
	c.Tags = append([]Tag(nil), b.Tags...)
	if c.Tags == nil {
		c.Tags = []Tag{}
	}
	return &c
}

// TagNames returns the tag names in stored order.
func (b *Bookmark) TagNames() []string {
	names := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		names = append(names, t.Name)
	}
	return names
}

// NewBookmark carries the fields of a bookmark about to be inserted. Position
// is assigned by the ordering engine, never by callers.
type NewBookmark struct {
	URL         string
	Title       string
	Description *string
	Category    *string
	Tags        []string
	Position    float64
}

// Validate checks the fields the store can't default.
func (n NewBookmark) Validate() error {
	if strings.TrimSpace(n.URL) == "" {
		return Invalid("url is required")
	}
	return nil
}

// BookmarkPatch is a partial update. Absent fields are left untouched, explicit
// nulls clear nullable fields, and Tags replaces the whole tag set when set.
type BookmarkPatch struct {
	URL         patch.Optional[string]   `json:"url"`
	Title       patch.Optional[string]   `json:"title"`
	Description patch.Optional[string]   `json:"description"`
	Category    patch.Optional[string]   `json:"category"`
	Position    patch.Optional[float64]  `json:"position"`
	Tags        patch.Optional[[]string] `json:"tags"`
}

// Validate rejects clears on fields that can't be null.
func (p BookmarkPatch) Validate() error {
	if p.URL.IsSet() && (p.URL.IsUnset() || strings.TrimSpace(*p.URL.Value()) == "") {
		return Invalid("url cannot be empty")
	}
	if p.Title.IsSet() && (p.Title.IsUnset() || strings.TrimSpace(*p.Title.Value()) == "") {
		return Invalid("title cannot be empty")
	}
	if p.Position.IsUnset() {
		return Invalid("position cannot be null")
	}
	return nil
}

// MovesOrdering reports whether the patch touches position or category and
// therefore has to run inside the ordering engine.
func (p BookmarkPatch) MovesOrdering() bool {
	return p.Position.IsSet() || p.Category.IsSet()
}

// TagSet returns the normalized replacement tag set. An explicit null clears
// all tags.
func (p BookmarkPatch) TagSet() []string {
	if !p.Tags.HasValue() {
		return []string{}
	}
	return NormalizeTags(*p.Tags.Value())
}

// Apply writes the scalar fields of the patch onto b. Tags are resolved by
// the store since they need tag identities.
func (p BookmarkPatch) Apply(b *Bookmark) {
	if p.URL.HasValue() {
		b.URL = *p.URL.Value()
	}
	if p.Title.HasValue() {
		b.Title = *p.Title.Value()
	}
	if p.Description.IsSet() {
		b.Description = cloneString(p.Description.Value())
	}
	if p.Category.IsSet() {
		b.Category = cloneString(p.Category.Value())
	}
	if p.Position.HasValue() {
		b.Position = *p.Position.Value()
	}
}

// Reorder moves a bookmark to a new position, optionally into another
// category. A nil or blank Category keeps the current one. Position is
// required; nil means the client left it out.
type Reorder struct {
	BookmarkID int64    `json:"bookmark_id"`
	Position   *float64 `json:"new_position"`
	Category   *string  `json:"category,omitempty"`
}

// ListFilter selects a page of bookmarks.
type ListFilter struct {
	Skip     int
	Limit    int
	Category *string
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Normalize clamps paging values to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Category != nil && *f.Category == "" {
		f.Category = nil
	}
	return f
}

// SameCategory compares two nullable categories.
func SameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
