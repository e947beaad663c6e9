package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

var registrars []Registrar

// Register is called from init() in each route file.
func Register(reg Registrar) {
	registrars = append(registrars, reg)
}

// RegisterAll mounts every registered group on r, then logs the resulting
// route table at debug level.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registrars {
		reg(r, d)
	}

	count := 0
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		count++
		d.Logger.Debug("route", logger.String("method", method), logger.String("path", route))
		return nil
	})
	d.Logger.Info("routes registered", logger.Int("count", count))
}
