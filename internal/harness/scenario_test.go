package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: one call
flow:
  - call: add_category
    args: { name: A, description: d, color: "#000000" }
assertions:
  - type: row_count
    table: Category
    count: 1
`

func TestLoadScenario_Fixtures(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.Flow)
		})
	}
}

func TestLoadScenario_DecodesFields(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/delete_category_reassign.yaml")
	require.NoError(t, err)

	assert.Equal(t, "delete_category_reassign", s.Name)
	assert.Equal(t, []uint64{101, 102, 103}, s.Randoms)
	assert.Nil(t, s.Seed)
	require.Len(t, s.Setup, 4)
	assert.Equal(t, "add_category", s.Setup[0].Call)
	require.Len(t, s.Flow, 3)
	require.NotNil(t, s.Flow[0].Expect)
	assert.Equal(t, true, s.Flow[0].Expect.Result)
	assert.Equal(t, "cannot reassign", s.Flow[2].Expect.Error)
}

func TestParseScenario_HighBitRandoms(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: big
description: ids above int64
randoms: [18446744073709551615]
flow:
  - call: add_data_point
    args: { category: A, value: 1 }
assertions:
  - type: log_count
    reducer: add_data_point
    count: 1
`))
	require.NoError(t, err)
	assert.Equal(t, []uint64{18446744073709551615}, s.Randoms)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    minimalScenario + "assertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name: "missing name",
			yaml: `
description: x
flow: [{call: add_category, args: {}}]
assertions: [{type: log_count, reducer: add_category}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: x
flow: [{call: add_category, args: {}}]
assertions: [{type: log_count, reducer: add_category}]
`,
			wantErr: "description is required",
		},
		{
			name: "empty flow",
			yaml: `
name: x
description: x
flow: []
assertions: [{type: log_count, reducer: add_category}]
`,
			wantErr: "flow list is required",
		},
		{
			name: "no assertions",
			yaml: `
name: x
description: x
flow: [{call: add_category, args: {}}]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "seed and randoms",
			yaml: `
name: x
description: x
seed: 1
randoms: [1]
flow: [{call: add_category, args: {}}]
assertions: [{type: log_count, reducer: add_category}]
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "unknown reducer",
			yaml: `
name: x
description: x
flow: [{call: drop_table, args: {}}]
assertions: [{type: log_count, reducer: add_category}]
`,
			wantErr: `flow[0]: unknown reducer "drop_table"`,
		},
		{
			name: "missing args",
			yaml: `
name: x
description: x
flow: [{call: add_category}]
assertions: [{type: log_count, reducer: add_category}]
`,
			wantErr: "flow[0]: args is required",
		},
		{
			name: "expect in setup",
			yaml: `
name: x
description: x
setup: [{call: add_category, args: {}, expect: {result: true}}]
flow: [{call: add_category, args: {}}]
assertions: [{type: log_count, reducer: add_category}]
`,
			wantErr: "setup[0]: expect is not allowed",
		},
		{
			name: "unknown assertion type",
			yaml: `
name: x
description: x
flow: [{call: add_category, args: {}}]
assertions: [{type: trace_contains}]
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "final_state without expect",
			yaml: `
name: x
description: x
flow: [{call: add_category, args: {}}]
assertions: [{type: final_state, table: Category}]
`,
			wantErr: "expect is required for final_state",
		},
		{
			name: "log_order without reducers",
			yaml: `
name: x
description: x
flow: [{call: add_category, args: {}}]
assertions: [{type: log_order}]
`,
			wantErr: "reducers list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
