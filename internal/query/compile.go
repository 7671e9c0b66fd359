package query

import (
	"fmt"
	"sort"
	"strings"
)

// Build validates a Request against the catalog and lowers it to a Select.
//
// Filters are AND-combined in column name order so that the same request
// always compiles to the same SQL.
func Build(req Request) (Select, error) {
	t, err := Lookup(req.Table)
	if err != nil {
		return Select{}, err
	}
	if req.Limit < 0 || req.Offset < 0 {
		return Select{}, fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidPaging, req.Limit, req.Offset)
	}

	names := make([]string, 0, len(req.Filters))
	for name := range req.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	and := And{}
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return Select{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, name)
		}
		v, err := coerce(col, req.Filters[name])
		if err != nil {
			return Select{}, err
		}
		and.Predicates = append(and.Predicates, Equals{Column: name, Value: v})
	}

	return Select{Table: t, Filter: and, Limit: req.Limit, Offset: req.Offset}, nil
}

// Compile converts a Select to parameterised SQL for SQLite.
//
// Every query ends in ORDER BY on the primary key. Values only ever appear
// in the returned params.
func Compile(q Select) (string, []any, error) {
	if q.Table == nil {
		return "", nil, fmt.Errorf("compile: select has no table")
	}

	cols := make([]string, len(q.Table.Columns))
	for i, c := range q.Table.Columns {
		cols[i] = c.column
	}

	where, params, err := compilePredicate(q.Table, q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s ORDER BY %s ASC",
		strings.Join(cols, ", "), q.Table.relation, where, orderKey(q.Table))

	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	case q.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
		b.WriteString(" LIMIT -1")
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET ?")
		params = append(params, q.Offset)
	}

	return b.String(), params, nil
}

// orderKey returns the stable sort key for a table.
// Text keys use COLLATE BINARY so ordering does not depend on locale.
func orderKey(t *Table) string {
	col, _ := t.Column(t.key)
	if col.Type == TypeString {
		return col.column + " COLLATE BINARY"
	}
	return col.column
}

// compilePredicate emits a WHERE fragment. A nil predicate or an empty And
// compiles to "1 = 1".
func compilePredicate(t *Table, p Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case Equals:
		col, ok := t.Column(pred.Column)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, pred.Column)
		}
		return col.column + " = ?", []any{pred.Value}, nil
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, subParams, err := compilePredicate(t, sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}
