package homepage

import (
	"testing"
)

func TestMapperMapBookmarks(t *testing.T) {
	config := BookmarksConfig{
		{
			"Developer": []map[string][]BookmarkEntry{
				{"Github": {{Abbr: "GH", Href: "https://github.com/", Description: "code"}}},
				{"Go docs": {{Abbr: "GO", Href: "https://go.dev/doc/"}}},
			},
		},
	}

	got, err := NewMapper().MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("MapBookmarks() returned %d bookmarks, want 2", len(got))
	}

	first := got[0]
	if first.URL != "https://github.com/" || first.Title != "Github" {
		t.Errorf("first bookmark = %+v", first)
	}
	if first.Category == nil || *first.Category != "Developer" {
		t.Errorf("category = %v, want Developer", first.Category)
	}
	if first.Description == nil || *first.Description != "code" {
		t.Errorf("description = %v, want code", first.Description)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "gh" {
		t.Errorf("tags = %v, want [gh]", first.Tags)
	}
	if got[1].Description != nil {
		t.Errorf("empty description should stay nil, got %q", *got[1].Description)
	}
}

func TestMapperSkipsInvalidEntries(t *testing.T) {
	config := BookmarksConfig{
		{
			"Misc": []map[string][]BookmarkEntry{
				{"Empty": {}},
				{"No href": {{Abbr: "NH"}}},
				{"Stripped": {{Href: `""`}}},
				{"Valid": {{Href: "https://example.com"}}},
				{"Duplicate": {{Href: "https://example.com"}}},
			},
		},
	}

	got, err := NewMapper().MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("MapBookmarks() returned %d bookmarks, want 1", len(got))
	}
	if got[0].Title != "Valid" {
		t.Errorf("kept %q, want Valid", got[0].Title)
	}
	if len(got[0].Tags) != 0 {
		t.Errorf("tags = %v, want none", got[0].Tags)
	}
}

func TestMapperEmptyConfig(t *testing.T) {
	if _, err := NewMapper().MapBookmarks(BookmarksConfig{}); err == nil {
		t.Error("MapBookmarks() should fail when nothing can be imported")
	}
}
