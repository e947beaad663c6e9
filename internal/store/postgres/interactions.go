package postgres

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// AppendInteractions writes one log row per id in a single statement.
func (s *Store) AppendInteractions(ctx context.Context, kind domain.InteractionKind, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, appendInteractionsSQL, int64Array(ids), string(kind)); err != nil {
		return fmt.Errorf("append %s interactions: %w", kind, err)
	}
	return nil
}

func (s *Store) Interactions(ctx context.Context, bookmarkID int64) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, interactionsSQL, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Interaction, 0)
	for rows.Next() {
		var in domain.Interaction
		var kind string
		if err := rows.Scan(&in.ID, &in.BookmarkID, &kind, &in.Timestamp); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Kind = domain.InteractionKind(kind)
		out = append(out, in)
	}
	return out, rows.Err()
}

// Analytics aggregates in SQL; the result has the same shape as
// domain.ProjectAnalytics.
func (s *Store) Analytics(ctx context.Context, recent int) (domain.Analytics, error) {
	out := domain.Analytics{
		CategoryCounts: make(map[string]int),
		TagCounts:      make(map[string]int),
		RecentActions:  []domain.RecentAction{},
	}

	if err := s.countInto(ctx, categoryCountsSQL, out.CategoryCounts); err != nil {
		return out, fmt.Errorf("category counts: %w", err)
	}
	if err := s.countInto(ctx, tagCountsSQL, out.TagCounts); err != nil {
		return out, fmt.Errorf("tag counts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, recentActionsSQL, recent)
	if err != nil {
		return out, fmt.Errorf("recent actions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ra domain.RecentAction
		var kind string
		if err := rows.Scan(&ra.BookmarkID, &ra.Title, &kind, &ra.Timestamp); err != nil {
			return out, fmt.Errorf("scan recent action: %w", err)
		}
		ra.Action = domain.InteractionKind(kind)
		out.RecentActions = append(out.RecentActions, ra)
	}
	return out, rows.Err()
}

func (s *Store) countInto(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] += n
	}
	return rows.Err()
}
