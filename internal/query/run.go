package query

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier executes read-only SQL. *store.Store satisfies it.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Run executes a read request and returns rows keyed by public column name.
// Returns an empty slice (not nil) when nothing matches.
func Run(ctx context.Context, q Querier, req Request) ([]Row, error) {
	sel, err := Build(req)
	if err != nil {
		return nil, err
	}
	query, params, err := Compile(sel)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sel.Table.Name, err)
	}
	defer rows.Close()

	cols := sel.Table.Columns
	out := []Row{}
	for rows.Next() {
		raw := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("query %s: scan: %w", sel.Table.Name, err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			v, err := decode(col, raw[i])
			if err != nil {
				return nil, fmt.Errorf("query %s: %w", sel.Table.Name, err)
			}
			row[col.Name] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", sel.Table.Name, err)
	}
	return out, nil
}
