// Package query provides the read-only surface over the analytics tables.
//
// It exposes the table catalog (Tables, Schema) and filtered, paged reads
// (Run). Reads never go through the engine and never write.
//
// ARCHITECTURE:
//
//	[Request] → [Select IR] → [SQL compiler] → [store.Query]
//
// A Request names a public table ("Category", "DataPoint") and equality
// filters over its public columns. It is validated against the catalog and
// lowered to a Select, whose predicates are a sealed set (Equals, And). The
// compiler maps public names to storage columns and emits parameterised SQL.
//
// GUARANTEES:
//   - Values are always bound as parameters, never interpolated
//   - Every query has an ORDER BY on the table's primary key
//   - Unknown tables and columns are rejected before any SQL is built
//   - Filter values are coerced to the column's storage encoding, so a
//     DataPoint id or timestamp filter matches what the store wrote
package query
