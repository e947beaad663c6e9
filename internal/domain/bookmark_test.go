package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/bookmarkd/internal/patch"
)

func strPtr(s string) *string { return &s }

func TestBookmarkPatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		patch   BookmarkPatch
		wantErr bool
	}{
		{"empty patch", BookmarkPatch{}, false},
		{"title value", BookmarkPatch{Title: patch.NewOptional("New")}, false},
		{"title null", BookmarkPatch{Title: patch.Unset[string]()}, true},
		{"title blank", BookmarkPatch{Title: patch.NewOptional("  ")}, true},
		{"url null", BookmarkPatch{URL: patch.Unset[string]()}, true},
		{"description null", BookmarkPatch{Description: patch.Unset[string]()}, false},
		{"position null", BookmarkPatch{Position: patch.Unset[float64]()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestBookmarkPatchApply(t *testing.T) {
	b := &Bookmark{
		URL:         "https://a.example",
		Title:       "A",
		Description: strPtr("desc"),
		Category:    strPtr("reading"),
		Position:    3,
	}

	var p BookmarkPatch
	if err := json.Unmarshal([]byte(`{"title":"B","description":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p.Apply(b)

	if b.Title != "B" {
		t.Errorf("Title = %q, want B", b.Title)
	}
	if b.Description != nil {
		t.Errorf("Description = %v, want nil", *b.Description)
	}
	if b.Category == nil || *b.Category != "reading" {
		t.Errorf("Category changed, got %v", b.Category)
	}
	if b.Position != 3 {
		t.Errorf("Position = %v, want 3", b.Position)
	}
	if p.MovesOrdering() {
		t.Error("MovesOrdering() = true, want false")
	}
}

func TestBookmarkPatchTagSet(t *testing.T) {
	p := BookmarkPatch{Tags: patch.NewOptional([]string{"Go", "go ", "Rust"})}
	got := p.TagSet()
	if len(got) != 2 || got[0] != "go" || got[1] != "rust" {
		t.Errorf("TagSet() = %v", got)
	}
	cleared := BookmarkPatch{Tags: patch.Unset[[]string]()}
	if len(cleared.TagSet()) != 0 {
		t.Errorf("TagSet() on null = %v, want empty", cleared.TagSet())
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := &Bookmark{Category: strPtr("x"), Tags: []Tag{{ID: 1, Name: "go"}}}
	c := b.Clone()
	*c.Category = "y"
	c.Tags[0].Name = "rust"
	if *b.Category != "x" || b.Tags[0].Name != "go" {
		t.Error("Clone() shares memory with the original")
	}
}

func TestListFilterNormalize(t *testing.T) {
	f := ListFilter{Skip: -5, Limit: 0, Category: strPtr("")}.Normalize()
	if f.Skip != 0 || f.Limit != DefaultListLimit || f.Category != nil {
		t.Errorf("Normalize() = %+v", f)
	}
	if got := (ListFilter{Limit: 5000}).Normalize().Limit; got != MaxListLimit {
		t.Errorf("Limit = %d, want %d", got, MaxListLimit)
	}
}

func TestSameCategory(t *testing.T) {
	if !SameCategory(nil, nil) {
		t.Error("nil, nil should match")
	}
	if SameCategory(nil, strPtr("a")) {
		t.Error("nil, a should not match")
	}
	if !SameCategory(strPtr("a"), strPtr("a")) {
		t.Error("a, a should match")
	}
}

func TestErrorsUnwrap(t *testing.T) {
	err := Conflict("duplicate url")
	if !errors.Is(err, ErrConflict) {
		t.Error("Conflict() should match ErrConflict")
	}
	if Message(err, "x") != "duplicate url" {
		t.Errorf("Message() = %q", Message(err, "x"))
	}
	if Message(errors.New("boom"), "fallback") != "fallback" {
		t.Error("Message() should fall back for non-domain errors")
	}
}
