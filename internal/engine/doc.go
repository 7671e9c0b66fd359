// Package engine implements the analytics reducer engine.
//
// The engine is the only writer to the category and data point tables. Every
// external mutation enters through one of its reducers:
//
//   - AddDataPoint: insert a measurement, auto-creating its category
//   - AddCategory: upsert a category
//   - UpdateDataPoint: change category and/or value of a point
//   - DeleteDataPoint: remove a point
//   - DeleteCategory: remove a category, reassigning or deleting its points
//   - GenerateSampleData: seed sample categories and random points
//
// ARCHITECTURE:
//
// Single-Writer Reducers:
// Each reducer holds the engine mutex and runs inside one store transaction.
// Its effects, plus one entry in the reducer call log, commit together or
// not at all. Concurrent callers are serialized; readers never see a
// half-applied reducer.
//
// Referential Integrity:
// Before any write references a category name, ensureCategory creates the
// row if absent using the auto-created description and DefaultColor. This
// helper is the single place that convention lives. DeleteCategory resolves
// every dependent point before deleting the category row.
//
// Host Services:
// Ids, sample randomness and timestamps come from a Source. Each reducer
// call reads the time once; every row written by that call shares it.
//
// Logical Clock:
// Reducer call log entries are stamped with a monotonic seq from Clock.
// The seq is only consumed when the reducer commits.
package engine
