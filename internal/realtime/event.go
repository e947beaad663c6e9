package realtime

import "github.com/MrSnakeDoc/bookmarkd/internal/domain"

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event describes one committed mutation. Bookmark is null on delete and
// BookmarkID is only present on delete, matching what clients already parse.
type Event struct {
	Action     Action           `json:"action"`
	Bookmark   *domain.Bookmark `json:"bookmark"`
	BookmarkID *int64           `json:"bookmark_id,omitempty"`
}

// Created builds a create event holding a private copy of b.
func Created(b *domain.Bookmark) Event {
	return Event{Action: ActionCreate, Bookmark: b.Clone()}
}

// Updated builds an update event holding a private copy of b.
func Updated(b *domain.Bookmark) Event {
	return Event{Action: ActionUpdate, Bookmark: b.Clone()}
}

func Deleted(id int64) Event {
	return Event{Action: ActionDelete, BookmarkID: &id}
}
