package ordering

import (
	"context"
	"fmt"
	"slices"

	"github.com/MrSnakeDoc/bookmarkd/internal/keylock"
)

// FirstPosition is assigned to the first bookmark of an empty category.
const FirstPosition = 1.0

// MaxPositioner reports the highest position in a category. ok is false when
// the category holds no bookmarks. A nil category is its own group.
type MaxPositioner interface {
	MaxPosition(ctx context.Context, category *string) (max float64, ok bool, err error)
}

// Engine assigns and moves positions. All writers to a category go through the
// same per-category section, so read-max-then-insert can't interleave with
// another append or a reorder into that category. Categories never block each
// other.
type Engine struct {
	positions MaxPositioner
	locks     *keylock.Map
}

func New(positions MaxPositioner) *Engine {
	return &Engine{positions: positions, locks: keylock.New()}
}

// Append computes the next position for category and calls persist with it
// while still holding the category section. The position is only consumed if
// persist succeeds.
func (e *Engine) Append(ctx context.Context, category *string, persist func(ctx context.Context, position float64) error) error {
	unlock := e.locks.Lock(categoryKey(category))
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	pos, err := e.nextPositionLocked(ctx, category)
	if err != nil {
		return err
	}
	return persist(ctx, pos)
}

// NextPosition returns max+1 for category, or FirstPosition when it is empty.
// It is only a hint; use Append to reserve a position.
func (e *Engine) NextPosition(ctx context.Context, category *string) (float64, error) {
	unlock := e.locks.Lock(categoryKey(category))
	defer unlock()
	return e.nextPositionLocked(ctx, category)
}

// SetPosition runs apply holding the sections of both the category the
// bookmark leaves and the one it lands in. The write is unconditional: the
// last writer wins.
func (e *Engine) SetPosition(ctx context.Context, from, to *string, apply func(ctx context.Context) error) error {
	return e.Hold(ctx, []*string{from, to}, apply)
}

// Hold runs apply inside the sections of every given category at once.
// Sections are taken in key order so two holders never wait on each other.
func (e *Engine) Hold(ctx context.Context, categories []*string, apply func(ctx context.Context) error) error {
	keys := make([]string, 0, len(categories))
	for _, c := range categories {
		keys = append(keys, categoryKey(c))
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	for _, k := range keys {
		unlock := e.locks.Lock(k)
		defer unlock()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return apply(ctx)
}

func (e *Engine) nextPositionLocked(ctx context.Context, category *string) (float64, error) {
	max, ok, err := e.positions.MaxPosition(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("read max position: %w", err)
	}
	if !ok {
		return FirstPosition, nil
	}
	return max + 1, nil
}

// categoryKey keeps the nil category apart from any real label.
func categoryKey(category *string) string {
	if category == nil {
		return "\x00nil"
	}
	return "c:" + *category
}
