package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
	"github.com/ivanyeors/ai-analytics-platform/internal/store"
)

// Engine applies reducers to the store.
//
// Thread-safety model:
//   - every reducer method is safe from any goroutine
//   - reducers are serialized by mu; each runs in one store transaction
//
// INVARIANTS (hold after every reducer call):
//   - every data point's category names a present category
//   - at most one category row per name
//   - at most one data point row per id
type Engine struct {
	mu     sync.Mutex
	store  *store.Store
	source Source
	clock  *Clock
	logger *slog.Logger
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the clock that caches the last committed seq.
// Use NewClockAt(store.LastSeq()) when reopening an existing database so
// Seq is meaningful before the first call.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over the given store and host source.
func New(s *store.Store, src Source, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		source: src,
		clock:  NewClock(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Seq returns the seq of the last committed reducer call.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// call carries per-invocation state through a reducer body.
type call struct {
	tables *store.Tables
	now    time.Time
}

// apply runs body as one atomic reducer call and logs it.
//
// The body's writes and the call log entry share a transaction. The seq is
// read from the log inside that transaction, so engines in different
// processes on one database file agree on it. A rolled back reducer leaves
// no gap in the log. The clock caches the last committed seq.
func (e *Engine) apply(ctx context.Context, reducer string, args map[string]any, body func(c *call) (any, error)) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.source.Now()

	var (
		seq    int64
		result any
	)
	err := e.store.Atomic(ctx, func(t *store.Tables) error {
		r, err := body(&call{tables: t, now: now})
		if err != nil {
			return err
		}
		if seq, err = t.NextSeq(); err != nil {
			return err
		}
		result = r
		return t.AppendCall(model.ReducerCall{
			Seq:      seq,
			Reducer:  reducer,
			Args:     args,
			Result:   r,
			CalledAt: now.UnixMicro(),
		})
	})
	if err != nil {
		e.logger.Error("reducer failed",
			"reducer", reducer,
			"error", err,
		)
		return nil, fmt.Errorf("%s: %w", reducer, err)
	}

	e.clock.Observe(seq)
	e.logger.Debug("reducer applied",
		"reducer", reducer,
		"seq", seq,
		"result", result,
	)
	return result, nil
}

// ensureCategory creates the named category with the auto-created
// description and DefaultColor if it does not exist. An existing row is left
// untouched. Every write that references a category goes through here first.
func (c *call) ensureCategory(name string) error {
	_, ok, err := c.tables.Categories().Get(name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return c.tables.Categories().Upsert(name, model.AutoDescription(name), model.DefaultColor)
}

// insertPoint ensures the category exists, then inserts a point with a fresh
// random id and the call's timestamp.
func (c *call) insertPoint(src Source, category string, value float64) (uint64, error) {
	if err := c.ensureCategory(category); err != nil {
		return 0, err
	}

	dp := model.DataPoint{
		ID:        src.RandomU64(),
		Timestamp: c.now,
		Category:  category,
		Value:     value,
	}
	if err := c.tables.DataPoints().Insert(dp); err != nil {
		return 0, err
	}
	return dp.ID, nil
}

// AddDataPoint inserts a data point and returns its generated id.
// An unknown category is auto-created first.
func (e *Engine) AddDataPoint(ctx context.Context, category string, value float64) (uint64, error) {
	if !finite(value) {
		return 0, fmt.Errorf("%s: %w", model.ReducerAddDataPoint, ErrNonFiniteValue)
	}
	category = model.NormalizeName(category)

	args := map[string]any{"category": category, "value": value}
	result, err := e.apply(ctx, model.ReducerAddDataPoint, args, func(c *call) (any, error) {
		id, err := c.insertPoint(e.source, category, value)
		if err != nil {
			return nil, err
		}
		return formatID(id), nil
	})
	if err != nil {
		return 0, err
	}
	return parseID(result.(string)), nil
}

// AddCategory creates the category or overwrites its description and color.
// Last write wins; identical repeated calls leave a single identical row.
func (e *Engine) AddCategory(ctx context.Context, name, description, color string) error {
	name = model.NormalizeName(name)

	args := map[string]any{"name": name, "description": description, "color": color}
	_, err := e.apply(ctx, model.ReducerAddCategory, args, func(c *call) (any, error) {
		return nil, c.tables.Categories().Upsert(name, description, color)
	})
	return err
}

// UpdateDataPoint changes the category and/or value of an existing point.
//
// A nil argument leaves that field unchanged. An unknown category is
// auto-created before the point is moved to it. Returns false, leaving the
// tables unchanged, if id does not exist. The call is logged either way.
func (e *Engine) UpdateDataPoint(ctx context.Context, id uint64, category *string, value *float64) (bool, error) {
	if value != nil && !finite(*value) {
		return false, fmt.Errorf("%s: %w", model.ReducerUpdateDataPoint, ErrNonFiniteValue)
	}
	if category != nil {
		normalized := model.NormalizeName(*category)
		category = &normalized
	}

	args := map[string]any{"id": formatID(id), "category": optional(category), "value": optional(value)}
	result, err := e.apply(ctx, model.ReducerUpdateDataPoint, args, func(c *call) (any, error) {
		_, ok, err := c.tables.DataPoints().Get(id)
		if err != nil || !ok {
			return false, err
		}

		if category != nil {
			if err := c.ensureCategory(*category); err != nil {
				return nil, err
			}
		}

		return c.tables.DataPoints().Update(id, func(dp model.DataPoint) model.DataPoint {
			if category != nil {
				dp.Category = *category
			}
			if value != nil {
				dp.Value = *value
			}
			return dp
		})
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// DeleteDataPoint removes a point and reports whether it existed.
func (e *Engine) DeleteDataPoint(ctx context.Context, id uint64) (bool, error) {
	args := map[string]any{"id": formatID(id)}
	result, err := e.apply(ctx, model.ReducerDeleteDataPoint, args, func(c *call) (any, error) {
		return c.tables.DataPoints().Delete(id)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// DeleteCategory removes a category after resolving its data points.
//
// With reassignTo set, every point in the category is moved to reassignTo
// (auto-created if unknown). With reassignTo nil, every point in the category
// is deleted. The category row is deleted last, in the same transaction.
//
// Returns false, leaving the tables unchanged, if the category does not exist.
// Returns ErrSelfReassign if reassignTo names the category being deleted.
func (e *Engine) DeleteCategory(ctx context.Context, name string, reassignTo *string) (bool, error) {
	name = model.NormalizeName(name)
	if reassignTo != nil {
		normalized := model.NormalizeName(*reassignTo)
		reassignTo = &normalized
	}

	args := map[string]any{"name": name, "reassign_to": optional(reassignTo)}
	result, err := e.apply(ctx, model.ReducerDeleteCategory, args, func(c *call) (any, error) {
		_, ok, err := c.tables.Categories().Get(name)
		if err != nil || !ok {
			return false, err
		}
		if reassignTo != nil && *reassignTo == name {
			return nil, ErrSelfReassign
		}

		// Traverse first, mutate afterwards.
		points, err := c.tables.DataPoints().ByCategory(name)
		if err != nil {
			return nil, err
		}

		if reassignTo != nil {
			if err := c.ensureCategory(*reassignTo); err != nil {
				return nil, err
			}
			target := *reassignTo
			for _, dp := range points {
				if _, err := c.tables.DataPoints().Update(dp.ID, func(p model.DataPoint) model.DataPoint {
					p.Category = target
					return p
				}); err != nil {
					return nil, err
				}
			}
		} else {
			for _, dp := range points {
				if _, err := c.tables.DataPoints().Delete(dp.ID); err != nil {
					return nil, err
				}
			}
		}

		e.logger.Debug("category cascade resolved",
			"category", name,
			"reassigned", reassignTo != nil,
			"affected", len(points),
		)

		return c.tables.Categories().Delete(name)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// formatID renders an id for the call log. Ids are logged as decimal strings
// because JSON numbers lose precision above 2^53.
func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// parseID reverses formatID for values produced by this package.
func parseID(s string) uint64 {
	id, _ := strconv.ParseUint(s, 10, 64)
	return id
}

// optional converts a nil pointer to an untyped nil for logging.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
