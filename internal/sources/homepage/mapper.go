package homepage

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// Mapper converts Homepage bookmark config to bookmark inputs
type Mapper struct{}

// NewMapper creates a new bookmark mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapBookmarks converts BookmarksConfig to create inputs in file order. The
// group becomes the category, the bookmark name the title and the abbr a tag.
// Positions are left to the ordering engine.
func (m *Mapper) MapBookmarks(config BookmarksConfig) ([]domain.NewBookmark, error) {
	out := make([]domain.NewBookmark, 0)
	seen := make(map[string]struct{})

	for _, group := range config {
		for groupName, bookmarkList := range group {
			for _, bookmarkMap := range bookmarkList {
				for bookmarkName, entryList := range bookmarkMap {
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0]

					href := strings.TrimSpace(entry.Href)
					if href == "" || href == `""` {
						continue
					}
					if _, dup := seen[href]; dup {
						continue
					}
					seen[href] = struct{}{}

					in := domain.NewBookmark{
						URL:   href,
						Title: strings.TrimSpace(bookmarkName),
					}
					if g := strings.TrimSpace(groupName); g != "" {
						in.Category = &g
					}
					if d := strings.TrimSpace(entry.Description); d != "" {
						in.Description = &d
					}
					if entry.Abbr != "" {
						in.Tags = domain.NormalizeTags([]string{entry.Abbr})
					}

					out = append(out, in)
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return out, nil
}
