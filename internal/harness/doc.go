// Package harness runs reducer conformance scenarios.
//
// A scenario is a YAML file that scripts the engine's random draws, calls
// reducers by name, and asserts on the reducer call log and the final
// tables. Every call goes through the real engine and store, so a passing
// scenario demonstrates actual reducer behaviour.
//
// # Scenario Format
//
//	name: delete_category_reassign
//	description: "Deleting a category moves its points to the target"
//	randoms: [101, 102]        # or seed: 42
//	setup:
//	  - call: add_data_point
//	    args: { category: Old, value: 1 }
//	flow:
//	  - call: delete_category
//	    args: { name: Old, reassign_to: New }
//	    expect:
//	      result: true
//	assertions:
//	  - type: log_count
//	    reducer: delete_category
//	    count: 1
//	  - type: final_state
//	    table: DataPoint
//	    where: { id: 101 }
//	    expect: { category: New }
//
// # Assertion Types
//
//   - log_contains: a logged call of a reducer with matching args exists
//   - log_order: reducers first appear in the log in the specified order
//   - log_count: a reducer was logged exactly N times
//   - final_state: exactly one row matches, with the expected values
//   - row_count: exactly N rows of a table match
//
// Table assertions use public table and column names and are read through
// the query package.
//
// # Deterministic Testing
//
// The harness uses:
//   - Scripted random values (randoms) or a seeded sequence (seed)
//   - testutil.SteppingClock starting at testutil.Epoch, one second per call
//   - In-memory SQLite database (isolated per run)
//
// This ensures identical logs and tables across runs for golden file
// comparison.
package harness
