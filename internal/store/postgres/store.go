package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

const uniqueViolation = "23505"

// Store implements the bookmark persistence contract on PostgreSQL.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the pool for health checks and shutdown.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateBookmark(ctx context.Context, in domain.NewBookmark) (*domain.Bookmark, error) {
	if in.Title == "" {
		in.Title = domain.DefaultTitle
	}
	tags := domain.NormalizeTags(in.Tags)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create tx: %w", err)
	}
	defer rollback(tx)

	b := &domain.Bookmark{
		URL:         in.URL,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Position:    in.Position,
	}
	err = tx.QueryRowContext(ctx, insertBookmarkSQL, in.URL, in.Title, in.Description, in.Category, in.Position).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("A bookmark with this URL already exists")
		}
		return nil, fmt.Errorf("insert bookmark: %w", err)
	}

	if b.Tags, err = linkTags(ctx, tx, b.ID, tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return b, nil
}

func (s *Store) UpdateBookmark(ctx context.Context, id int64, p domain.BookmarkPatch) (*domain.Bookmark, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update tx: %w", err)
	}
	defer rollback(tx)

	b, err := scanBookmark(tx.QueryRowContext(ctx, selectBookmarkForUpdateSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Bookmark not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select bookmark %d: %w", id, err)
	}

	p.Apply(b)
	err = tx.QueryRowContext(ctx, updateBookmarkSQL, id, b.URL, b.Title, b.Description, b.Category, b.Position).
		Scan(&b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("A bookmark with this URL already exists")
		}
		return nil, fmt.Errorf("update bookmark %d: %w", id, err)
	}

	if p.Tags.IsSet() {
		if _, err := tx.ExecContext(ctx, unlinkTagsSQL, id); err != nil {
			return nil, fmt.Errorf("clear tags of %d: %w", id, err)
		}
		if b.Tags, err = linkTags(ctx, tx, id, p.TagSet()); err != nil {
			return nil, err
		}
	} else {
		byID, err := loadTags(ctx, tx, []int64{id})
		if err != nil {
			return nil, err
		}
		b.Tags = byID[id]
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	if b.Tags == nil {
		b.Tags = []domain.Tag{}
	}
	return b, nil
}

// DeleteBookmark removes the row; bookmark_tags rows cascade.
func (s *Store) DeleteBookmark(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, deleteBookmarkSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete bookmark %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete bookmark %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *Store) GetBookmark(ctx context.Context, id int64) (*domain.Bookmark, error) {
	b, err := scanBookmark(s.db.QueryRowContext(ctx, selectBookmarkSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Bookmark not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark %d: %w", id, err)
	}
	if err := s.attachTags(ctx, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) ListBookmarks(ctx context.Context, f domain.ListFilter) ([]*domain.Bookmark, error) {
	f = f.Normalize()
	return s.queryBookmarks(ctx, listBookmarksSQL, f.Category, f.Skip, f.Limit)
}

func (s *Store) SearchBookmarks(ctx context.Context, query string, limit int) ([]*domain.Bookmark, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Bookmark{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	return s.queryBookmarks(ctx, searchBookmarksSQL, query, limit)
}

// BookmarksByIDs returns the bookmarks in the order of ids, skipping missing ones.
func (s *Store) BookmarksByIDs(ctx context.Context, ids []int64) ([]*domain.Bookmark, error) {
	if len(ids) == 0 {
		return []*domain.Bookmark{}, nil
	}
	found, err := s.queryBookmarks(ctx, bookmarksByIDsSQL, int64Array(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Bookmark, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	out := make([]*domain.Bookmark, 0, len(found))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, categoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) MaxPosition(ctx context.Context, category *string) (float64, bool, error) {
	var max sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, maxPositionSQL, category).Scan(&max); err != nil {
		return 0, false, fmt.Errorf("max position: %w", err)
	}
	return max.Float64, max.Valid, nil
}

func (s *Store) queryBookmarks(ctx context.Context, query string, args ...any) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	if err := s.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachTags(ctx context.Context, list []*domain.Bookmark) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	byID, err := loadTags(ctx, s.db, ids)
	if err != nil {
		return err
	}
	for _, b := range list {
		b.Tags = byID[b.ID]
		if b.Tags == nil {
			b.Tags = []domain.Tag{}
		}
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execQuerier interface {
	querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadTags(ctx context.Context, q querier, ids []int64) (map[int64][]domain.Tag, error) {
	rows, err := q.QueryContext(ctx, tagsForBookmarksSQL, int64Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Tag, len(ids))
	for rows.Next() {
		var bookmarkID int64
		var t domain.Tag
		if err := rows.Scan(&bookmarkID, &t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out[bookmarkID] = append(out[bookmarkID], t)
	}
	return out, rows.Err()
}

// linkTags upserts each tag by name and links it to the bookmark.
func linkTags(ctx context.Context, tx execQuerier, bookmarkID int64, names []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		t := domain.Tag{Name: name}
		if err := tx.QueryRowContext(ctx, upsertTagSQL, name).Scan(&t.ID); err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, linkTagSQL, bookmarkID, t.ID); err != nil {
			return nil, fmt.Errorf("link tag %q: %w", name, err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (*domain.Bookmark, error) {
	var (
		b           domain.Bookmark
		description sql.NullString
		category    sql.NullString
	)
	if err := row.Scan(&b.ID, &b.URL, &b.Title, &description, &category, &b.Position, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		b.Description = &description.String
	}
	if category.Valid {
		b.Category = &category.String
	}
	b.Tags = []domain.Tag{}
	return &b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// int64Array renders ids as a Postgres array literal, cast to bigint[] in SQL.
func int64Array(ids []int64) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	sb.WriteByte('}')
	return sb.String()
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
