package query

// Predicate is a filter condition over catalog columns.
//
// This is a sealed interface - only types in this package implement it.
// The marker method prevents external implementations and keeps type
// switches in the compiler exhaustive.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose column equals Value.
// Column is a public column name; Value is already in storage encoding.
type Equals struct {
	Column string
	Value  any
}

func (Equals) predicateNode() {}

// And matches rows satisfying every predicate. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Select reads rows from one catalog table.
//
// Semantics:
//
//	SELECT <all columns> FROM <table> WHERE <filter>
//	ORDER BY <primary key> LIMIT <limit> OFFSET <offset>
//
// A Limit of zero means no limit.
type Select struct {
	Table  *Table
	Filter Predicate
	Limit  int
	Offset int
}

// Request is the caller-facing form of a read.
type Request struct {
	Table   string         `json:"table"`
	Filters map[string]any `json:"filters,omitempty"`
	Limit   int            `json:"limit,omitempty"`
	Offset  int            `json:"offset,omitempty"`
}

// Row is one result row keyed by public column name.
type Row map[string]any
