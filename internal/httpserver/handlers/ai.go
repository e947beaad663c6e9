package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

type suggestRequest struct {
	URL string `json:"url"`
}

type titleSuggestion struct {
	SuggestedTitle *string `json:"suggested_title"`
	Error          *string `json:"error"`
}

type tagsSuggestion struct {
	SuggestedTags     []string `json:"suggested_tags"`
	SuggestedCategory *string  `json:"suggested_category"`
	Error             *string  `json:"error"`
}

func decodeSuggest(w http.ResponseWriter, r *http.Request, d deps.Deps) (string, bool) {
	var req suggestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, d.Logger, err)
		return "", false
	}
	if err := validateURL(req.URL); err != nil {
		writeError(w, d.Logger, err)
		return "", false
	}
	return req.URL, true
}

// SuggestTitle never fails on enrichment errors: it answers with an error
// message in the body instead.
func SuggestTitle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := decodeSuggest(w, r, d)
		if !ok {
			return
		}

		var resp titleSuggestion
		if title, ok := d.Bookmarks.SuggestTitle(r.Context(), url); ok {
			resp.SuggestedTitle = &title
		} else {
			msg := "Could not fetch title"
			resp.Error = &msg
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func SuggestTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := decodeSuggest(w, r, d)
		if !ok {
			return
		}

		resp := tagsSuggestion{SuggestedTags: []string{}}
		c, _ := d.Bookmarks.SuggestTags(r.Context(), url)
		if len(c.Tags) > 0 {
			resp.SuggestedTags = c.Tags
		}
		resp.SuggestedCategory = c.Category
		if len(resp.SuggestedTags) == 0 {
			msg := "Could not fetch tags"
			resp.Error = &msg
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type flushResponse struct {
	Deleted int `json:"deleted"`
}

// FlushSuggestions drops cached suggestions: only those of ?url= when given,
// all of them otherwise.
func FlushSuggestions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Suggestions == nil {
			writeError(w, d.Logger, domain.NotFound("Suggestion cache is disabled"))
			return
		}

		if url := r.URL.Query().Get("url"); url != "" {
			if err := d.Suggestions.Invalidate(r.Context(), url); err != nil {
				writeError(w, d.Logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		n, err := d.Suggestions.Flush(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("suggestion cache flushed", logger.Int("deleted", n))
		writeJSON(w, http.StatusOK, flushResponse{Deleted: n})
	}
}
