package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_UnknownTable(t *testing.T) {
	_, err := Build(Request{Table: "Orders"})
	require.ErrorIs(t, err, ErrUnknownTable)
}

func TestBuild_UnknownColumn(t *testing.T) {
	_, err := Build(Request{Table: "DataPoint", Filters: map[string]any{"colour": "red"}})
	require.ErrorIs(t, err, ErrUnknownColumn)
	assert.Contains(t, err.Error(), "DataPoint.colour")
}

func TestBuild_StorageColumnNamesAreNotPublic(t *testing.T) {
	// Only public column names are accepted, matched case-sensitively.
	_, err := Build(Request{Table: "Category", Filters: map[string]any{"Name": "Revenue"}})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBuild_NegativePaging(t *testing.T) {
	_, err := Build(Request{Table: "Category", Limit: -1})
	require.ErrorIs(t, err, ErrInvalidPaging)

	_, err = Build(Request{Table: "Category", Offset: -3})
	require.ErrorIs(t, err, ErrInvalidPaging)
}

func TestBuild_FiltersSortedByColumn(t *testing.T) {
	sel, err := Build(Request{
		Table:   "DataPoint",
		Filters: map[string]any{"value": 2.5, "category": "Users", "id": "7"},
	})
	require.NoError(t, err)

	and, ok := sel.Filter.(And)
	require.True(t, ok)
	require.Len(t, and.Predicates, 3)
	assert.Equal(t, Equals{Column: "category", Value: "Users"}, and.Predicates[0])
	assert.Equal(t, Equals{Column: "id", Value: int64(7)}, and.Predicates[1])
	assert.Equal(t, Equals{Column: "value", Value: 2.5}, and.Predicates[2])
}

func TestCompile_NoFilter(t *testing.T) {
	sel, err := Build(Request{Table: "Category"})
	require.NoError(t, err)

	sql, params, err := Compile(sel)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT name, description, color FROM categories WHERE 1 = 1 ORDER BY name COLLATE BINARY ASC",
		sql)
	assert.Empty(t, params)
}

func TestCompile_ParameterisedFilters(t *testing.T) {
	sel, err := Build(Request{
		Table:   "DataPoint",
		Filters: map[string]any{"category": "Robert'); DROP TABLE data_points;--"},
	})
	require.NoError(t, err)

	sql, params, err := Compile(sel)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, timestamp, category, value FROM data_points WHERE category = ? ORDER BY id ASC",
		sql)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"Robert'); DROP TABLE data_points;--"}, params)
}

func TestCompile_Paging(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantSuffix string
		wantParams []any
	}{
		{"none", 0, 0, "ORDER BY id ASC", nil},
		{"limit", 5, 0, "ORDER BY id ASC LIMIT ?", []any{5}},
		{"offset only", 0, 2, "ORDER BY id ASC LIMIT -1 OFFSET ?", []any{2}},
		{"both", 5, 2, "ORDER BY id ASC LIMIT ? OFFSET ?", []any{5, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Build(Request{Table: "DataPoint", Limit: tt.limit, Offset: tt.offset})
			require.NoError(t, err)

			sql, params, err := Compile(sel)
			require.NoError(t, err)
			assert.True(t, len(sql) > len(tt.wantSuffix) && sql[len(sql)-len(tt.wantSuffix):] == tt.wantSuffix,
				"sql %q should end with %q", sql, tt.wantSuffix)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompile_NilTable(t *testing.T) {
	_, _, err := Compile(Select{})
	require.Error(t, err)
}

func TestCompile_NestedAnd(t *testing.T) {
	tbl, err := Lookup("DataPoint")
	require.NoError(t, err)

	sql, params, err := Compile(Select{
		Table: tbl,
		Filter: And{Predicates: []Predicate{
			Equals{Column: "category", Value: "Users"},
			And{},
			And{Predicates: []Predicate{Equals{Column: "value", Value: 1.0}}},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE category = ? AND 1 = 1 AND value = ? ORDER BY")
	assert.Equal(t, []any{"Users", 1.0}, params)
}

func TestCoerce(t *testing.T) {
	id := Column{Name: "id", Type: TypeU64}
	value := Column{Name: "value", Type: TypeF64}
	ts := Column{Name: "timestamp", Type: TypeTimestamp}
	name := Column{Name: "name", Type: TypeString, normalize: true}
	color := Column{Name: "color", Type: TypeString}

	tests := []struct {
		name    string
		col     Column
		in      any
		want    any
		wantErr bool
	}{
		{"u64 from string", id, "42", int64(42), false},
		{"u64 high bit from string", id, "18446744073709551615", int64(-1), false},
		{"u64 from integral float", id, float64(9), int64(9), false},
		{"u64 rejects fraction", id, 1.5, nil, true},
		{"u64 rejects negative", id, -1, nil, true},
		{"u64 rejects garbage", id, "abc", nil, true},
		{"f64 from string", value, "12.25", 12.25, false},
		{"f64 from int", value, 3, 3.0, false},
		{"f64 rejects bool", value, true, nil, true},
		{"timestamp from RFC3339", ts, "2026-01-01T00:00:01Z", int64(1767225601000000), false},
		{"timestamp rejects garbage", ts, "yesterday", nil, true},
		{"string", name, "Revenue", "Revenue", false},
		{"string rejects number", name, 12, nil, true},
		{"name normalized to NFC", name, "Cafe\u0301", "Caf\u00e9", false},
		{"color kept verbatim", color, "Cafe\u0301", "Cafe\u0301", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.col, tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
