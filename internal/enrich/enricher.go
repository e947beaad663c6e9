package enrich

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

// PageFetcher loads a page for enrichment.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Cache stores suggestions per URL. Implemented by the redis suggestion cache.
type Cache interface {
	CachedTitle(ctx context.Context, url string) (string, bool, error)
	CacheTitle(ctx context.Context, url, title string) error
	CachedClassification(ctx context.Context, url string) (domain.Classification, bool, error)
	CacheClassification(ctx context.Context, url string, c domain.Classification) error
}

// Enricher produces title and classification suggestions for a URL. Every
// failure degrades to "no suggestion".
type Enricher struct {
	fetcher    PageFetcher
	classifier TextClassifier
	cache      Cache
	log        logger.Logger
}

// NewEnricher wires the collaborators. A nil classifier disables
// classification and a nil cache disables caching.
func NewEnricher(fetcher PageFetcher, classifier TextClassifier, cache Cache, log logger.Logger) *Enricher {
	if classifier == nil {
		classifier = NopClassifier{}
	}
	return &Enricher{fetcher: fetcher, classifier: classifier, cache: cache, log: log}
}

func (e *Enricher) ExtractTitle(ctx context.Context, url string) (string, bool) {
	if e.cache != nil {
		title, ok, err := e.cache.CachedTitle(ctx, url)
		if err != nil {
			e.log.Warn("title cache read failed", logger.String("url", url), logger.Error(err))
		} else if ok {
			return title, title != ""
		}
	}

	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.log.Debug("title fetch failed", logger.String("url", url), logger.Error(err))
		return "", false
	}
	title := strings.TrimSpace(page.Title)

	if e.cache != nil {
		if err := e.cache.CacheTitle(context.WithoutCancel(ctx), url, title); err != nil {
			e.log.Warn("title cache write failed", logger.String("url", url), logger.Error(err))
		}
	}
	return title, title != ""
}

func (e *Enricher) Classify(ctx context.Context, url string) (domain.Classification, bool) {
	if _, off := e.classifier.(NopClassifier); off {
		return domain.Classification{}, false
	}

	if e.cache != nil {
		c, ok, err := e.cache.CachedClassification(ctx, url)
		if err != nil {
			e.log.Warn("classification cache read failed", logger.String("url", url), logger.Error(err))
		} else if ok {
			return c, !isEmpty(c)
		}
	}

	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.log.Debug("classification fetch failed", logger.String("url", url), logger.Error(err))
		return domain.Classification{}, false
	}

	c, err := e.classifier.Classify(ctx, strings.TrimSpace(page.Title+"\n"+page.Text))
	if err != nil {
		e.log.Warn("classification failed", logger.String("url", url), logger.Error(err))
		return domain.Classification{}, false
	}

	if e.cache != nil {
		if err := e.cache.CacheClassification(context.WithoutCancel(ctx), url, c); err != nil {
			e.log.Warn("classification cache write failed", logger.String("url", url), logger.Error(err))
		}
	}
	return c, !isEmpty(c)
}

func isEmpty(c domain.Classification) bool {
	return len(c.Tags) == 0 && c.Category == nil
}
