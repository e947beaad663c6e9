package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/mw"
)

func init() { Register(registerAI) }

func registerAI(r chi.Router, d deps.Deps) {
	limited := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RatePerMin,
		TrustProxy:        d.TrustProxy,
	})

	r.With(limited).Post("/ai/suggest-title", handlers.SuggestTitle(d))
	r.With(limited).Post("/ai/suggest-tags", handlers.SuggestTags(d))
}
