package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
	Connections *int   `json:"connections,omitempty"`
	Published   *int64 `json:"published,omitempty"`
	Evicted     *int64 `json:"evicted,omitempty"`
	LastImport  string `json:"last_import,omitempty"`
	Imported    *int   `json:"imported,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"store":       checkStore(r.Context(), d),
			"redis":       checkRedis(r.Context(), d),
			"meilisearch": checkSearch(d),
			"classifier":  checkClassifier(d),
			"realtime":    realtimeStatus(d),
			"import":      importStatus(d),
		}

		response := infraResponse{
			Mode:       determineMode(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// determineMode is critical when the store is down and degraded when an
// optional component that was configured is down.
func determineMode(components map[string]componentStatus) string {
	if store, exists := components["store"]; exists && !store.OK {
		return "critical"
	}
	for name, c := range components {
		if name == "store" {
			continue
		}
		if !c.OK && c.Mode != "disabled" {
			return "degraded"
		}
	}
	return "optimal"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.Bookmarks.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "bookmarks-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "suggestion-cache-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "suggestion-cache-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "suggestion-cache-enabled",
	}
}

func checkSearch(d deps.Deps) componentStatus {
	switch {
	case d.Search == nil || !d.Search.Configured():
		return componentStatus{OK: false, Mode: "disabled", Impact: "store-full-text-only"}
	case !d.Search.Healthy():
		return componentStatus{OK: false, Mode: "degraded", Impact: "store-full-text-only", Error: "unreachable"}
	default:
		return componentStatus{OK: true, Mode: "optimal"}
	}
}

func checkClassifier(d deps.Deps) componentStatus {
	if !d.ClassifierEnabled {
		return componentStatus{OK: false, Mode: "disabled", Impact: "no-category-suggestions"}
	}
	return componentStatus{OK: true, Mode: "llm"}
}

func realtimeStatus(d deps.Deps) componentStatus {
	conns := d.Registry.Len()
	status := componentStatus{OK: true, Connections: &conns}
	if d.Dispatcher != nil {
		published, evicted := d.Dispatcher.Stats()
		p, e := int64(published), int64(evicted)
		status.Published = &p
		status.Evicted = &e
	}
	return status
}

func importStatus(d deps.Deps) componentStatus {
	if d.Importer == nil {
		return componentStatus{OK: false, Mode: "disabled"}
	}
	res, at := d.Importer.LastRun()
	if at.IsZero() {
		return componentStatus{OK: false, Mode: "pending", LastImport: "never"}
	}
	created := res.Created
	return componentStatus{
		OK:         res.Failed == 0,
		Mode:       "yaml",
		LastImport: at.Format("2006-01-02 15:04:05"),
		Imported:   &created,
	}
}
