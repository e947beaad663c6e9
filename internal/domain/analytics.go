package domain

import (
	"sort"
	"time"
)

// UncategorizedLabel is the analytics bucket for bookmarks without a category.
// A real category with the same name is counted in the same bucket.
const UncategorizedLabel = "Uncategorized"

// DefaultRecentActions is the size of the recent actions window.
const DefaultRecentActions = 10

type RecentAction struct {
	BookmarkID int64           `json:"bookmark_id"`
	Title      string          `json:"title"`
	Action     InteractionKind `json:"action"`
	Timestamp  time.Time       `json:"timestamp"`
}

type Analytics struct {
	CategoryCounts map[string]int `json:"category_counts"`
	TagCounts      map[string]int `json:"tag_counts"`
	RecentActions  []RecentAction `json:"recent_actions"`
}

// ProjectAnalytics computes analytics from the current bookmarks and the
// interaction log. Recent actions only include bookmarks that still exist,
// newest first.
func ProjectAnalytics(bookmarks []*Bookmark, log []Interaction, recent int) Analytics {
	out := Analytics{
		CategoryCounts: make(map[string]int),
		TagCounts:      make(map[string]int),
		RecentActions:  []RecentAction{},
	}

	titles := make(map[int64]string, len(bookmarks))
	for _, b := range bookmarks {
		titles[b.ID] = b.Title
		label := UncategorizedLabel
		if b.Category != nil {
			label = *b.Category
		}
		out.CategoryCounts[label]++
		for _, t := range b.Tags {
			out.TagCounts[t.Name]++
		}
	}

	ordered := append([]Interaction(nil), log...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].ID > ordered[j].ID
		}
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})

	for _, in := range ordered {
		if len(out.RecentActions) >= recent {
			break
		}
		title, ok := titles[in.BookmarkID]
		if !ok {
			continue
		}
		out.RecentActions = append(out.RecentActions, RecentAction{
			BookmarkID: in.BookmarkID,
			Title:      title,
			Action:     in.Kind,
			Timestamp:  in.Timestamp,
		})
	}
	return out
}
