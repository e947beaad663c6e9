package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	limited := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RatePerMin,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Get("/search", handlers.SearchBookmarks(d))
		r.Get("/{id}", handlers.GetBookmark(d))
		r.Get("/{id}/history", handlers.BookmarkHistory(d))

		r.With(limited).Post("/", handlers.CreateBookmark(d))
		r.With(limited).Put("/{id}", handlers.UpdateBookmark(d))
		r.With(limited).Delete("/{id}", handlers.DeleteBookmark(d))
		r.With(limited).Post("/reorder", handlers.ReorderBookmark(d))
	})

	r.Get("/categories", handlers.Categories(d))
	r.Get("/analytics", handlers.Analytics(d))
}
