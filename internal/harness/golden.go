package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/advcases/internal/ir"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// Snapshot renders a result as canonical JSON: the scenario name, the trace
// and the final state digest. Two runs of a scenario give identical bytes.
func Snapshot(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(ir.Object{
		"scenario":     ir.String(name),
		"trace":        traceIR(result.Trace),
		"state_digest": ir.String(result.StateDigest),
	})
}

// TraceDigest hashes the trace alone, so two scenarios that drive the
// contract through the same calls can be compared.
func TraceDigest(result *Result) (string, error) {
	return ir.Digest(ir.DomainTrace, traceIR(result.Trace))
}

func traceIR(events []TraceEvent) ir.Array {
	trace := make(ir.Array, len(events))
	for i, ev := range events {
		trace[i] = ev.ToIR()
	}
	return trace
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
