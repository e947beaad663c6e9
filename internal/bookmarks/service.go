package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/keylock"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/ordering"
	"github.com/MrSnakeDoc/bookmarkd/internal/patch"
	"github.com/MrSnakeDoc/bookmarkd/internal/realtime"
)

// DefaultEnrichTimeout bounds each call to the title extractor or classifier.
const DefaultEnrichTimeout = 10 * time.Second

type Options struct {
	Titles        TitleExtractor
	Classifier    Classifier
	Indexer       Indexer
	Searcher      Searcher
	EnrichTimeout time.Duration
}

// Service is the mutation pipeline plus the read side. Every mutation runs
// persist -> log -> publish, and the log and the event only happen after the
// store reported success.
//
// Events are published before the mutation returns and while the category
// section of the written row is still held. Creates hold the section they
// append to; updates, reorders and deletes hold the row lock plus the section
// of the row's current category (and of the target one when it moves). A
// mutation of a fresh row therefore waits until its create event is out, and
// the dispatcher receives events in commit order.
type Service struct {
	store     Store
	publisher Publisher
	logger    logger.Logger
	engine    *ordering.Engine
	rows      *keylock.Map

	titles     TitleExtractor
	classifier Classifier
	indexer    Indexer
	searcher   Searcher
	timeout    time.Duration
}

func NewService(store Store, publisher Publisher, log logger.Logger, opts Options) *Service {
	s := &Service{
		store:      store,
		publisher:  publisher,
		logger:     log,
		engine:     ordering.New(store),
		rows:       keylock.New(),
		titles:     opts.Titles,
		classifier: opts.Classifier,
		indexer:    opts.Indexer,
		searcher:   opts.Searcher,
		timeout:    opts.EnrichTimeout,
	}
	if s.titles == nil {
		s.titles = noTitles{}
	}
	if s.classifier == nil {
		s.classifier = noClassifier{}
	}
	if s.indexer == nil {
		s.indexer = noIndexer{}
	}
	if s.searcher == nil {
		s.searcher = storeSearcher{store}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultEnrichTimeout
	}
	return s
}

// Create enriches missing title and category, assigns the next position in
// the category and persists. A duplicate URL returns an error wrapping
// domain.ErrConflict and produces neither a log entry nor an event.
func (s *Service) Create(ctx context.Context, in domain.NewBookmark) (*domain.Bookmark, error) {
	in.URL = strings.TrimSpace(in.URL)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.Tags = domain.NormalizeTags(in.Tags)

	if strings.TrimSpace(in.Title) == "" {
		in.Title = domain.DefaultTitle
		if title, ok := s.SuggestTitle(ctx, in.URL); ok {
			in.Title = title
		}
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) == "" {
		in.Category = nil
	}
	if in.Category == nil {
		// only the category is used here; suggested tags are offered through SuggestTags
		if c, ok := s.SuggestTags(ctx, in.URL); ok && c.Category != nil {
			in.Category = c.Category
		}
	}

	var created *domain.Bookmark
	err := s.engine.Append(ctx, in.Category, func(ctx context.Context, position float64) error {
		in.Position = position
		b, err := s.store.CreateBookmark(ctx, in)
		if err != nil {
			return err
		}
		created = b
		s.commit(ctx, domain.InteractionCreate, b.ID, realtime.Created(b))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create bookmark: %w", err)
	}

	s.indexer.IndexBookmark(created)
	return created, nil
}

// Update applies a partial update. Position or category changes also hold the
// target category's section so they can't interleave with appends there.
func (s *Service) Update(ctx context.Context, id int64, p domain.BookmarkPatch) (*domain.Bookmark, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Tags.IsSet() {
		p.Tags = patch.NewOptional(p.TagSet())
	}
	if p.Category.HasValue() && strings.TrimSpace(*p.Category.Value()) == "" {
		p.Category = patch.Unset[string]()
	}

	unlock := s.rows.Lock(rowKey(id))
	defer unlock()

	cur, err := s.store.GetBookmark(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update bookmark %d: %w", id, err)
	}

	var updated *domain.Bookmark
	apply := func(ctx context.Context) error {
		b, err := s.store.UpdateBookmark(ctx, id, p)
		if err != nil {
			return err
		}
		updated = b
		s.commit(ctx, domain.InteractionEdit, id, realtime.Updated(b))
		return nil
	}

	if p.MovesOrdering() {
		target := cur.Category
		if p.Category.IsSet() {
			target = p.Category.Value()
		}
		err = s.engine.SetPosition(ctx, cur.Category, target, apply)
	} else {
		err = s.engine.Hold(ctx, []*string{cur.Category}, apply)
	}
	if err != nil {
		return nil, fmt.Errorf("update bookmark %d: %w", id, err)
	}

	s.indexer.IndexBookmark(updated)
	return updated, nil
}

// Reorder overwrites the position, last writer wins. A nil or blank category
// keeps the bookmark where it is.
func (s *Service) Reorder(ctx context.Context, r domain.Reorder) (*domain.Bookmark, error) {
	if r.Position == nil {
		return nil, domain.Invalid("new_position is required")
	}
	p := domain.BookmarkPatch{Position: patch.NewOptional(*r.Position)}
	if r.Category != nil && strings.TrimSpace(*r.Category) != "" {
		p.Category = patch.NewOptional(*r.Category)
	}

	unlock := s.rows.Lock(rowKey(r.BookmarkID))
	defer unlock()

	cur, err := s.store.GetBookmark(ctx, r.BookmarkID)
	if err != nil {
		return nil, fmt.Errorf("reorder bookmark %d: %w", r.BookmarkID, err)
	}
	target := cur.Category
	if p.Category.IsSet() {
		target = p.Category.Value()
	}

	var updated *domain.Bookmark
	err = s.engine.SetPosition(ctx, cur.Category, target, func(ctx context.Context) error {
		b, err := s.store.UpdateBookmark(ctx, r.BookmarkID, p)
		if err != nil {
			return err
		}
		updated = b
		s.commit(ctx, domain.InteractionReorder, b.ID, realtime.Updated(b))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reorder bookmark %d: %w", r.BookmarkID, err)
	}

	s.indexer.IndexBookmark(updated)
	return updated, nil
}

// Delete removes the bookmark and its tag links. Its interactions stay.
func (s *Service) Delete(ctx context.Context, id int64) error {
	unlock := s.rows.Lock(rowKey(id))
	defer unlock()

	cur, err := s.store.GetBookmark(ctx, id)
	if err != nil {
		return fmt.Errorf("delete bookmark %d: %w", id, err)
	}

	err = s.engine.Hold(ctx, []*string{cur.Category}, func(ctx context.Context) error {
		ok, err := s.store.DeleteBookmark(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("Bookmark not found")
		}
		s.commit(ctx, domain.InteractionDelete, id, realtime.Deleted(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete bookmark %d: %w", id, err)
	}

	s.indexer.DeleteBookmark(id)
	return nil
}

// commit records the interaction and hands the event to the dispatcher. The
// write already succeeded, so neither step may fail the mutation.
func (s *Service) commit(ctx context.Context, kind domain.InteractionKind, id int64, evt realtime.Event) {
	ctx = context.WithoutCancel(ctx)
	if err := s.store.AppendInteractions(ctx, kind, id); err != nil {
		s.logger.Warn("failed to append interaction",
			logger.String("action", string(kind)),
			logger.Int64("bookmark_id", id),
			logger.Error(err))
	}
	s.publisher.Publish(evt)
}

func rowKey(id int64) string { return strconv.FormatInt(id, 10) }

// IsConflict and IsNotFound are shorthands for the HTTP layer.
func IsConflict(err error) bool { return errors.Is(err, domain.ErrConflict) }
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
