package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/handlers"
)

func init() { Register(registerRealtime) }

func registerRealtime(r chi.Router, d deps.Deps) {
	r.Get("/ws/bookmarks", handlers.Realtime(d))
}
