package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
	"github.com/ivanyeors/ai-analytics-platform/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, src Source) (*Engine, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	return New(s, src, WithLogger(quietLogger())), s
}

// tableState is a snapshot of both tables keyed for assertions.
type tableState struct {
	categories map[string]model.Category
	points     map[uint64]model.DataPoint
	catList    []model.Category
	pointList  []model.DataPoint
}

func snapshot(t *testing.T, s *store.Store) tableState {
	t.Helper()
	cats, points, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	return newTableState(cats, points)
}

func newTableState(cats []model.Category, points []model.DataPoint) tableState {
	st := tableState{
		categories: make(map[string]model.Category, len(cats)),
		points:     make(map[uint64]model.DataPoint, len(points)),
		catList:    cats,
		pointList:  points,
	}
	for _, c := range cats {
		st.categories[c.Name] = c
	}
	for _, p := range points {
		st.points[p.ID] = p
	}
	return st
}

// invariantViolation returns a description of the first broken invariant,
// or "" if referential integrity and key uniqueness both hold.
func invariantViolation(st tableState) string {
	if len(st.categories) != len(st.catList) {
		return "duplicate category name"
	}
	if len(st.points) != len(st.pointList) {
		return "duplicate data point id"
	}
	for _, p := range st.pointList {
		if _, ok := st.categories[p.Category]; !ok {
			return "data point " + formatID(p.ID) + " references missing category " + p.Category
		}
	}
	return ""
}

func requireInvariants(t *testing.T, s *store.Store) tableState {
	t.Helper()
	st := snapshot(t, s)
	require.Empty(t, invariantViolation(st))
	return st
}

func ptr[T any](v T) *T {
	return &v
}
