package harness

import (
	"context"
	"fmt"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/engine"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
	"github.com/roach88/advcases/internal/store"
	"github.com/roach88/advcases/internal/testutil"
)

// DefaultCaller is the account steps run as when they name none.
const DefaultCaller = "alice"

// Harness runs one scenario against a live engine.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	registry *dispatch.Registry
}

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh in-memory database, a clock starting at 0 and
// call ids call-0001, call-0002, ..., so two runs produce identical traces.
// The returned error reports harness failures; failed expectations are
// recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	reg := dispatch.NewRegistry()
	eng := engine.New(st, reg, testutil.NewSequentialIDs("call"),
		engine.WithClock(testutil.NewDeterministicClock()))

	runCtx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		_ = eng.Run(runCtx)
		close(stopped)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	h := &Harness{store: st, engine: eng, registry: reg}
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	cells, err := st.Cells(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.StateDigest = storage.StateDigest(cells)

	state, err := eng.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to decode final state: %w", err)
	}
	for _, msg := range EvaluateAssertions(state, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	callerName := step.Caller
	if callerName == "" {
		callerName = DefaultCaller
	}
	caller, err := abi.ParseAccountID(callerName)
	if err != nil {
		return fmt.Errorf("caller: %w", err)
	}

	event := TraceEvent{Step: n, Message: step.Message}
	var receipt *engine.Receipt

	switch {
	case step.Constructor != "":
		event.Kind = string(ir.CallInstantiate)
		event.Message = step.Constructor
		receipt, err = h.engine.Instantiate(ctx, caller, step.Constructor)

	default:
		kind := ir.CallQuery
		if step.Tx {
			kind = ir.CallTransact
		}
		event.Kind = string(kind)

		var input []byte
		input, err = h.input(step)
		if err == nil {
			receipt, err = h.engine.Submit(ctx, engine.Request{
				Kind:    kind,
				Caller:  caller,
				Message: step.Message,
				Input:   input,
			})
		}
	}

	if err != nil {
		code := engine.ErrorCode(err)
		if code == "" {
			return err
		}
		event.Error = code
	} else {
		event.Message = receipt.Call.Message
		event.Selector = receipt.Call.Selector
		event.ID = receipt.Call.ID
		event.Seq = receipt.Call.Seq
		event.Writes = receipt.Call.Writes
		event.Output = engine.Hex(receipt.Call.Output)
		if event.Value, err = receipt.Value(); err != nil {
			return fmt.Errorf("render output: %w", err)
		}
	}

	result.Trace = append(result.Trace, event)
	for _, msg := range checkExpect(n, step.Expect, event) {
		result.AddError(msg)
	}
	return nil
}

// input builds the SCALE argument bytes for a message step.
func (h *Harness) input(step Step) ([]byte, error) {
	if step.Input != "" {
		b, err := engine.ParseHex(step.Input)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		return b, nil
	}

	m, err := h.registry.Lookup(step.Message)
	if err != nil {
		return nil, err
	}
	args := ir.Object{}
	if step.Args != nil {
		v, err := ir.FromAny(step.Args)
		if err != nil {
			return nil, fmt.Errorf("args: %w", err)
		}
		args = v.(ir.Object)
	}
	return m.EncodeArgs(args)
}
