package harness

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(scenario.Steps))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_and_read.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_TraceFields(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_and_read.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Trace, 6)

	ctor := result.Trace[0]
	assert.Equal(t, "instantiate", ctor.Kind)
	assert.Equal(t, "call-0001", ctor.ID)
	assert.Equal(t, int64(1), ctor.Seq)

	add := result.Trace[2]
	assert.Equal(t, "tx", add.Kind)
	assert.Equal(t, "0x4b050ea9", add.Selector)
	assert.Equal(t, "call-0002", add.ID)
	assert.Equal(t, int64(2), add.Seq)
	assert.Equal(t, 2, add.Writes)

	query := result.Trace[3]
	assert.Equal(t, "query", query.Kind)
	assert.Empty(t, query.ID, "queries are not journaled")
	assert.Equal(t, int64(2), query.Seq)
	assert.Len(t, result.StateDigest, 64)
}

func TestRun_FailedExpectation(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong
description: expectations that do not hold
steps:
  - constructor: default
  - message: get_integers
    expect:
      value: [1, 2, 3, 4]
  - message: get_array
    args: { text: x }
    expect:
      error: DECODE_FAILED
  - message: handle_req
    tx: true
    expect:
      writes: 3
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "step 2 (get_integers): expected value [1,2,3,4]")
	assert.Contains(t, result.Errors[1], "expected error DECODE_FAILED, got success")
	assert.Contains(t, result.Errors[2], "expected 3 writes, got 0")
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: no_ctor
description: calls without a constructor fail
steps:
  - message: get_user
    args: { idx: 0 }
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error NOT_INSTANTIATED")
	assert.Equal(t, "NOT_INSTANTIATED", result.Trace[0].Error)
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad_assertions
description: assertions that do not hold
steps:
  - constructor: default
assertions:
  - users_num: 2
  - user:
      id: 0
      value: { active: true, name: x, role: User, age: 1, salary: 1, favorite_numbers: [] }
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "users_num = 0, expected 2")
	assert.Contains(t, result.Errors[1], "user 0 is not stored")
}

func TestRun_BadCaller(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad_caller
description: caller that is neither a dev account nor hex
steps:
  - constructor: default
    caller: "0xzz"
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]: caller")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps:\n  - constructor: default\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps:\n  - constructor: default\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "message and constructor",
			yaml:    "name: n\ndescription: d\nsteps:\n  - constructor: default\n    message: add\n",
			wantErr: "exactly one of message and constructor",
		},
		{
			name:    "args and input",
			yaml:    "name: n\ndescription: d\nsteps:\n  - message: get_user\n    args: { idx: 0 }\n    input: \"00000000\"\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "constructor with tx",
			yaml:    "name: n\ndescription: d\nsteps:\n  - constructor: default\n    tx: true\n",
			wantErr: "constructor steps take no args",
		},
		{
			name:    "error with value",
			yaml:    "name: n\ndescription: d\nsteps:\n  - message: get_array\n    expect: { error: X, value: [] }\n",
			wantErr: "error excludes value",
		},
		{
			name:    "empty assertion",
			yaml:    "name: n\ndescription: d\nsteps:\n  - constructor: default\nassertions:\n  - {}\n",
			wantErr: "exactly one of users_num and user",
		},
		{
			name:    "user value and absent",
			yaml:    "name: n\ndescription: d\nsteps:\n  - constructor: default\nassertions:\n  - user: { id: 0, absent: true, value: { name: x } }\n",
			wantErr: "exactly one of value and absent",
		},
		{
			name:    "unknown key",
			yaml:    "name: n\ndescription: d\nsteps:\n  - constructor: default\nassertion: []\n",
			wantErr: "failed to parse YAML",
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

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestTraceDigest(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/edge_cases.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := TraceDigest(first)
	require.NoError(t, err)
	b, err := TraceDigest(second)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)

	other, err := LoadScenario("testdata/scenarios/add_and_read.yaml")
	require.NoError(t, err)
	result, err := Run(other)
	require.NoError(t, err)
	c, err := TraceDigest(result)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
