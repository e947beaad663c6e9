package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/sources/homepage"
)

// Creator runs a bookmark through the mutation pipeline.
type Creator interface {
	Create(ctx context.Context, in domain.NewBookmark) (*domain.Bookmark, error)
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Created int
	Skipped int
	Failed  int
}

// Importer handles periodic imports of a Homepage bookmarks.yaml. Every entry
// goes through the pipeline, so connected clients see imported bookmarks as
// regular create events.
type Importer struct {
	loader        *homepage.Loader
	mapper        *homepage.Mapper
	creator       Creator
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu   sync.Mutex
	last ImportResult
	at   time.Time
}

// NewImporter creates a new bookmark importer
func NewImporter(
	bookmarkFile string,
	creator Creator,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Importer {
	return &Importer{
		loader:        homepage.NewLoader(bookmarkFile),
		mapper:        homepage.NewMapper(),
		creator:       creator,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs a first import and then re-imports on every tick or manual
// trigger. A failed first import is logged, not fatal: the file may appear
// later.
func (im *Importer) Start(ctx context.Context) error {
	if _, err := im.Import(ctx); err != nil {
		im.logger.Warn("initial bookmark import failed", logger.Error(err))
	}

	ticker := time.NewTicker(im.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := im.Import(ctx); err != nil {
					im.logger.Error("failed to import bookmarks", logger.Error(err))
				}
			case <-im.manualTrigger:
				im.logger.Info("manual bookmark import triggered")
				if _, err := im.Import(ctx); err != nil {
					im.logger.Error("failed to import bookmarks", logger.Error(err))
				}
			case <-im.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the importer
func (im *Importer) Stop() {
	im.stopOnce.Do(func() { close(im.stopCh) })
}

// Import loads the file and creates every bookmark whose URL isn't stored
// yet. Existing URLs are skipped; other failures are counted and the run
// goes on.
func (im *Importer) Import(ctx context.Context) (ImportResult, error) {
	im.logger.Info("importing bookmarks", logger.String("file", im.loader.Path()))

	config, err := im.loader.Load()
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	inputs, err := im.mapper.MapBookmarks(config)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	var res ImportResult
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := im.creator.Create(ctx, in)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, domain.ErrConflict):
			res.Skipped++
		default:
			res.Failed++
			im.logger.Warn("failed to import bookmark",
				logger.String("url", in.URL),
				logger.Error(err))
		}
	}

	im.mu.Lock()
	im.last = res
	im.at = time.Now()
	im.mu.Unlock()

	im.logger.Info("bookmark import finished",
		logger.Int("created", res.Created),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed))
	return res, nil
}

// LastRun returns the result of the latest completed import and when it
// finished. The time is zero before the first run.
func (im *Importer) LastRun() (ImportResult, time.Time) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.last, im.at
}
