package domain

import "time"

// InteractionKind is the action recorded in the interaction log.
type InteractionKind string

const (
	InteractionCreate  InteractionKind = "create"
	InteractionView    InteractionKind = "view"
	InteractionEdit    InteractionKind = "edit"
	InteractionReorder InteractionKind = "reorder"
	InteractionDelete  InteractionKind = "delete"
)

// Interaction is a write-once log entry. BookmarkID may refer to a bookmark
// that no longer exists.
type Interaction struct {
	ID         int64           `json:"id"`
	BookmarkID int64           `json:"bookmark_id"`
	Kind       InteractionKind `json:"action"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Classification is what the classifier suggests for a page.
type Classification struct {
	Tags     []string `json:"tags"`
	Category *string  `json:"category"`
}

// Categories is the closed set the classifier may assign.
var Categories = []string{
	"tech", "news", "research", "politics", "tutorial",
	"development", "science", "environment", "reviews",
}

// IsKnownCategory reports whether c belongs to Categories.
func IsKnownCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
