package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRun_Fixtures(t *testing.T) {
	for _, path := range []string{
		"testdata/scenarios/delete_category_reassign.yaml",
		"testdata/scenarios/sample_data.yaml",
		"testdata/scenarios/cascade.yaml",
	} {
		t.Run(path, func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Steps, len(s.Flow))
		})
	}
}

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"delete_category_reassign", "sample_data"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/cascade.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_StepOutcomes(t *testing.T) {
	result, err := Run(mustParse(t, `
name: outcomes
description: results and errors are recorded per step
randoms: [9]
flow:
  - call: add_data_point
    args: { category: A, value: 1 }
    expect: { result: 9 }
  - call: delete_category
    args: { name: A, reassign_to: A }
    expect: { error: cannot reassign }
  - call: delete_data_point
    args: { id: 10 }
assertions:
  - type: log_count
    reducer: delete_data_point
    count: 1
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Steps, 3)
	assert.Equal(t, uint64(9), result.Steps[0].Result)
	assert.Empty(t, result.Steps[0].Error)
	assert.Nil(t, result.Steps[1].Result)
	assert.Contains(t, result.Steps[1].Error, "cannot reassign")
	assert.Equal(t, false, result.Steps[2].Result)

	// The failed call is not logged.
	require.Len(t, result.Log, 2)
	assert.Equal(t, "add_data_point", result.Log[0].Reducer)
	assert.Equal(t, "delete_data_point", result.Log[1].Reducer)
}

func TestRun_FailedExpectations(t *testing.T) {
	result, err := Run(mustParse(t, `
name: failing
description: every mismatch is reported
randoms: [1, 2]
flow:
  - call: add_data_point
    args: { category: A, value: 1 }
    expect: { result: 99 }
  - call: delete_data_point
    args: { id: 1 }
    expect: { error: boom }
  - call: add_data_point
    args: { category: A }
assertions:
  - type: log_count
    reducer: add_data_point
    count: 2
  - type: final_state
    table: DataPoint
    where: { id: 1 }
    expect: { value: 1 }
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)

	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "flow[0] add_data_point: expected result 99")
	assert.Contains(t, result.Errors[1], `flow[1] delete_data_point: expected error containing "boom"`)
	assert.Contains(t, result.Errors[2], "flow[2] add_data_point: unexpected error")
	assert.Contains(t, result.Errors[3], "Assertion failed: log_count")
	// flow[1] deleted the point.
	assert.Contains(t, result.Errors[4], "Assertion failed: final_state")
	assert.Contains(t, result.Errors[4], "row not found")
}

func TestRun_ExhaustedRandoms(t *testing.T) {
	result, err := Run(mustParse(t, `
name: exhausted
description: drawing past the scripted randoms fails the step, not the run
randoms: [1]
flow:
  - call: generate_sample_data
    args: { num_points: 1 }
    expect: { error: exhausted }
assertions:
  - type: row_count
    table: DataPoint
    count: 0
  - type: row_count
    table: Category
    count: 0
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Log)
}

func TestRun_SetupFailureAborts(t *testing.T) {
	_, err := Run(mustParse(t, `
name: bad_setup
description: setup must succeed
setup:
  - call: add_data_point
    args: { category: A }
flow:
  - call: add_category
    args: { name: A, description: d, color: c }
assertions:
  - type: log_count
    reducer: add_category
    count: 1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup step 0 (add_data_point)")
}
