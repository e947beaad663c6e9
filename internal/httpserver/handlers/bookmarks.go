package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
)

type createRequest struct {
	URL         string   `json:"url"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Position    *float64 `json:"position"` // ignored, positions are assigned on create
	Tags        []string `json:"tags"`
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := validateURL(req.URL); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		in := domain.NewBookmark{
			URL:         req.URL,
			Description: req.Description,
			Category:    req.Category,
			Tags:        req.Tags,
		}
		if req.Title != nil {
			in.Title = *req.Title
		}

		b, err := d.Bookmarks.Create(r.Context(), in)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, err := queryInt(r, "skip", 0)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		limit, err := queryInt(r, "limit", domain.DefaultListLimit)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		f := domain.ListFilter{Skip: skip, Limit: limit}
		if c := r.URL.Query().Get("category"); c != "" {
			f.Category = &c
		}

		list, err := d.Bookmarks.List(r.Context(), f)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func SearchBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", domain.DefaultListLimit)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		list, err := d.Bookmarks.Search(r.Context(), r.URL.Query().Get("query"), limit)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		b, err := d.Bookmarks.Get(r.Context(), id)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// UpdateBookmark applies a partial update: absent fields are untouched and
// explicit nulls clear nullable fields.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		var p domain.BookmarkPatch
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if p.URL.HasValue() {
			if err := validateURL(*p.URL.Value()); err != nil {
				writeError(w, d.Logger, err)
				return
			}
		}

		b, err := d.Bookmarks.Update(r.Context(), id, p)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// BookmarkHistory lists the interactions logged for a bookmark. Deleted
// bookmarks still have a history.
func BookmarkHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		list, err := d.Bookmarks.History(r.Context(), id)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Bookmarks.Delete(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReorderBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.Reorder
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if req.BookmarkID <= 0 {
			writeError(w, d.Logger, domain.Invalid("bookmark_id is required"))
			return
		}
		if req.Position == nil {
			writeError(w, d.Logger, domain.Invalid("new_position is required"))
			return
		}

		b, err := d.Bookmarks.Reorder(r.Context(), req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := d.Bookmarks.Categories(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(cats))
	}
}

func Analytics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := d.Bookmarks.Analytics(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
