package harness

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
	"github.com/ivanyeors/ai-analytics-platform/internal/query"
	"github.com/ivanyeors/ai-analytics-platform/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string              // Assertion type for categorization
	Expected string              // Human-readable expected outcome
	Actual   string              // Human-readable actual outcome
	Log      []model.ReducerCall // Call log for context, if relevant
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Log) > 0 {
		fmt.Fprintf(&buf, "\nCall log:\n")
		for _, call := range e.Log {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", call.Seq, call.Reducer, call.Args)
		}
	}

	return buf.String()
}

// assertLogContains checks that the log has a call of the reducer whose
// arguments match (subset semantics).
func assertLogContains(log []model.ReducerCall, a Assertion) error {
	for _, call := range log {
		if call.Reducer == a.Reducer && matchArgs(call.Args, a.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertLogContains,
		Expected: fmt.Sprintf("reducer %s with args %v", a.Reducer, a.Args),
		Actual:   "not found in call log",
		Log:      log,
	}
}

// assertLogOrder checks that the first occurrence of each reducer appears in
// the given order. Intervening calls are allowed.
func assertLogOrder(log []model.ReducerCall, a Assertion) error {
	positions := make(map[string]int)
	for i, call := range log {
		if _, seen := positions[call.Reducer]; !seen {
			positions[call.Reducer] = i + 1 // 1-indexed for readability
		}
	}

	for _, reducer := range a.Reducers {
		if positions[reducer] == 0 {
			return &AssertionError{
				Type:     AssertLogOrder,
				Expected: fmt.Sprintf("all reducers present: %v", a.Reducers),
				Actual:   fmt.Sprintf("missing reducer: %s", reducer),
				Log:      log,
			}
		}
	}

	for i := 1; i < len(a.Reducers); i++ {
		prev, curr := a.Reducers[i-1], a.Reducers[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertLogOrder,
				Expected: fmt.Sprintf("reducers in order: %v", a.Reducers),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Log: log,
			}
		}
	}

	return nil
}

// assertLogCount checks that the reducer was logged exactly Count times.
func assertLogCount(log []model.ReducerCall, a Assertion) error {
	count := 0
	for _, call := range log {
		if call.Reducer == a.Reducer {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d calls of %s", a.Count, a.Reducer),
			Actual:   fmt.Sprintf("%d calls", count),
			Log:      log,
		}
	}
	return nil
}

// assertFinalState requires exactly one row of the table to match Where and
// checks Expect against it (subset semantics). Rows are read through the
// query package, so table and column names are checked against the catalog.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	rows, err := query.Run(ctx, st, query.Request{Table: a.Table, Filters: a.Where})
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	whereDesc := formatWhereClause(a.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", a.Table, whereDesc),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(rows)),
		}
	}

	row := rows[0]
	for _, key := range sortedKeys(a.Expect) {
		expected := a.Expect[key]
		actual, exists := row[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %s", key, a.Table),
			}
		}
		if !valuesEqual(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected, expected),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actual, actual),
			}
		}
	}
	return nil
}

// assertRowCount checks how many rows of the table match Where.
func assertRowCount(ctx context.Context, st *store.Store, a Assertion) error {
	rows, err := query.Run(ctx, st, query.Request{Table: a.Table, Filters: a.Where})
	if err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(rows) != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s where %s", a.Count, a.Table, formatWhereClause(a.Where)),
			Actual:   fmt.Sprintf("%d rows", len(rows)),
		}
	}
	return nil
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists || !valuesEqual(expectedVal, actualVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares a scenario value (as decoded from YAML) with a value
// produced by the engine, the call log or the query package.
//
// Numbers compare by value regardless of Go type, so a YAML int matches a
// uint64 id or a float64 value. Ids may also be written as decimal strings,
// which is how the call log records them. A string matches a time.Time if it
// parses as the same RFC 3339 instant.
func valuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if e, ok := asUint(expected); ok {
		if a, ok := asUint(actual); ok {
			return e == a
		}
	}
	if e, ok := asFloat(expected); ok {
		if a, ok := asFloat(actual); ok {
			return e == a
		}
	}
	if ts, ok := actual.(time.Time); ok {
		if s, ok := expected.(string); ok {
			parsed, err := time.Parse(time.RFC3339Nano, s)
			return err == nil && parsed.Equal(ts)
		}
	}

	return reflect.DeepEqual(expected, actual)
}

// asUint returns v as a uint64 if it is a non-negative integral number or a
// decimal string.
func asUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case float64:
		if n >= 0 && n == math.Trunc(n) && n < math.MaxUint64 {
			return uint64(n), true
		}
	case string:
		if id, err := strconv.ParseUint(n, 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}

// asFloat returns v as a float64 if it is numeric.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for table assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLogContains:
			err = assertLogContains(result.Log, assertion)
		case AssertLogOrder:
			err = assertLogOrder(result.Log, assertion)
		case AssertLogCount:
			err = assertLogCount(result.Log, assertion)
		case AssertFinalState, AssertRowCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			} else {
				err = assertRowCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
