package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivanyeors/ai-analytics-platform/internal/engine"
)

// Scenario is a reducer conformance scenario.
// It runs a sequence of reducer calls against a fresh database with a
// deterministic source, then asserts on the call log and the final tables.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Randoms are the values returned by the source's random draws, in order.
	// A scenario that draws more values than listed fails.
	Randoms []uint64 `yaml:"randoms,omitempty"`

	// Seed selects an endless deterministic random sequence instead of
	// Randoms. Mutually exclusive with Randoms.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Setup contains reducer calls that establish initial state.
	// Every setup call must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the reducer calls under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the call log and final state.
	// Supported types: log_contains, log_order, log_count, final_state, row_count
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one reducer call.
type Step struct {
	// Call is the reducer name (e.g., "add_data_point").
	Call string `yaml:"call"`

	// Args are the reducer arguments, decoded by engine.Call.
	Args map[string]any `yaml:"args"`

	// Expect validates the outcome. If nil, the call must succeed and its
	// result is not checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Result is the expected return value (an id or a bool). If omitted,
	// the result is not checked.
	Result any `yaml:"result,omitempty"`

	// Error, if set, is a substring the call's error must contain.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the call log or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "log_contains": a logged call of Reducer with matching args exists
	// - "log_order": Reducers appear in this order in the log
	// - "log_count": Reducer was logged exactly Count times
	// - "final_state": exactly one row of Table matches Where, and it has Expect's values
	// - "row_count": exactly Count rows of Table match Where
	Type string `yaml:"type"`

	// Reducer is the reducer name (log_contains, log_count).
	Reducer string `yaml:"reducer,omitempty"`

	// Args are the expected logged arguments (log_contains).
	// Subset match - only specified fields are validated.
	Args map[string]any `yaml:"args,omitempty"`

	// Reducers is the expected reducer order (log_order).
	Reducers []string `yaml:"reducers,omitempty"`

	// Table is a public table name, "Category" or "DataPoint" (final_state, row_count).
	Table string `yaml:"table,omitempty"`

	// Where holds equality filters on public columns (final_state, row_count).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect holds expected column values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of log entries or rows (log_count, row_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLogContains = "log_contains"
	AssertLogOrder    = "log_order"
	AssertLogCount    = "log_count"
	AssertFinalState  = "final_state"
	AssertRowCount    = "row_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Seed != nil && len(s.Randoms) > 0 {
		return fmt.Errorf("randoms and seed are mutually exclusive")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	known := make(map[string]bool)
	for _, name := range engine.Reducers() {
		known[name] = true
	}

	for i, step := range s.Setup {
		if err := validateStep(known, step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(known, step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(known map[string]bool, step Step) error {
	if step.Call == "" {
		return fmt.Errorf("call is required")
	}
	if !known[step.Call] {
		return fmt.Errorf("unknown reducer %q", step.Call)
	}
	if step.Args == nil {
		return fmt.Errorf("args is required (use empty map if no args)")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLogContains:
		if a.Reducer == "" {
			return fmt.Errorf("assertions[%d]: reducer is required for log_contains", index)
		}
	case AssertLogOrder:
		if len(a.Reducers) == 0 {
			return fmt.Errorf("assertions[%d]: reducers list is required for log_order", index)
		}
	case AssertLogCount:
		if a.Reducer == "" {
			return fmt.Errorf("assertions[%d]: reducer is required for log_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
