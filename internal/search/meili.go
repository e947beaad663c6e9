package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

const (
	// IndexUID is the Meilisearch index holding bookmarks.
	IndexUID = "bookmarkd_bookmarks"

	healthInterval = 10 * time.Second
)

var errUnhealthy = errors.New("meilisearch unhealthy")

// Meili implements Engine via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	logger  logger.Logger
	healthy atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewMeili creates a Meilisearch client and configures the index. An
// unreachable server is not an error: the engine reports unhealthy and a
// background loop picks it up once it answers.
func NewMeili(url, apiKey string, log logger.Logger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		logger: log,
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		log.Warn("meilisearch unavailable", logger.String("url", url), logger.Error(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        IndexUID,
		PrimaryKey: "id",
	}); err != nil {
		m.logger.Debug("create index (may already exist)", logger.String("index", IndexUID), logger.Error(err))
	}

	index := m.client.Index(IndexUID)
	searchable := []string{"title", "description", "url", "tags"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", logger.Error(err))
	}
	filterable := []interface{}{"category", "tags"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", logger.Error(err))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) SearchIDs(ctx context.Context, query string, limit int) ([]int64, error) {
	if !m.healthy.Load() {
		return nil, errUnhealthy
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:             IndexUID,
			Query:                query,
			Limit:                int64(limit),
			AttributesToRetrieve: []string{"id"},
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := make([]int64, 0)
	for _, sr := range resp.Results {
		for _, hit := range sr.Hits {
			id, ok := hitID(hit)
			if !ok {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *Meili) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.client.Index(IndexUID).AddDocuments(docs, nil); err != nil {
		return fmt.Errorf("meilisearch add documents: %w", err)
	}
	return nil
}

func (m *Meili) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.client.Index(IndexUID).DeleteDocument(strconv.FormatInt(id, 10), nil); err != nil {
		return fmt.Errorf("meilisearch delete document: %w", err)
	}
	return nil
}

// hitID reads the primary key of a hit. Meilisearch returns it as a number,
// but string keys are accepted too.
func hitID(hit meili.Hit) (int64, bool) {
	raw, ok := hit["id"]
	if !ok {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
