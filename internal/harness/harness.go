package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ivanyeors/ai-analytics-platform/internal/engine"
	"github.com/ivanyeors/ai-analytics-platform/internal/store"
	"github.com/ivanyeors/ai-analytics-platform/internal/testutil"
)

// Harness runs one scenario against a private store and engine.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Random
// draws come from the scenario's randoms (or seed) and wall time from a
// testutil.SteppingClock starting at testutil.Epoch, so a scenario always
// produces the same log and tables.
//
// Execution flow:
//  1. Create fresh in-memory database and engine
//  2. Execute setup steps (each must succeed)
//  3. Execute flow steps, checking expect clauses
//  4. Capture the call log and final tables
//  5. Evaluate assertions
//
// A returned error means the scenario could not run; failed expectations
// are reported through Result.Pass and Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext is Run with a context and logger. A nil logger discards logs.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	var src *testutil.FixedSource
	if scenario.Seed != nil {
		src = testutil.NewSeededSource(*scenario.Seed)
	} else {
		src = testutil.NewFixedSource(scenario.Randoms...)
	}

	h := &Harness{
		store:  st,
		engine: engine.New(st, src, engine.WithLogger(logger)),
		logger: logger,
	}

	result := NewResult()

	for i, step := range scenario.Setup {
		if _, err := h.call(ctx, step); err != nil {
			return nil, fmt.Errorf("setup step %d (%s): %w", i, step.Call, err)
		}
	}

	for i, step := range scenario.Flow {
		h.executeStep(ctx, i, step, result)
	}

	if result.Log, err = st.ReadReducerCalls(ctx, 0, 0); err != nil {
		return nil, fmt.Errorf("read call log: %w", err)
	}
	if result.Categories, result.DataPoints, err = st.Snapshot(ctx); err != nil {
		return nil, fmt.Errorf("read final state: %w", err)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one flow step and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	got, err := h.call(ctx, step)

	outcome := StepOutcome{Step: i, Call: step.Call, Result: got}
	if err != nil {
		outcome.Result = nil
		outcome.Error = err.Error()
	}
	result.Steps = append(result.Steps, outcome)

	h.logger.Debug("flow step completed",
		"step", i,
		"reducer", step.Call,
		"result", outcome.Result,
		"error", outcome.Error,
	)

	expect := step.Expect
	switch {
	case expect != nil && expect.Error != "":
		if err == nil {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected error containing %q, got result %v", i, step.Call, expect.Error, got))
		} else if !strings.Contains(err.Error(), expect.Error) {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected error containing %q, got %q", i, step.Call, expect.Error, err.Error()))
		}
	case err != nil:
		result.AddError(fmt.Sprintf("flow[%d] %s: unexpected error: %v", i, step.Call, err))
	case expect != nil && expect.Result != nil:
		if !valuesEqual(expect.Result, got) {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected result %v (type %T), got %v (type %T)",
				i, step.Call, expect.Result, expect.Result, got, got))
		}
	}
}

// call invokes the step's reducer. A source that runs out of scripted
// random values panics; that is reported as an error.
func (h *Harness) call(ctx context.Context, step Step) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%s: %v", step.Call, r)
		}
	}()
	return h.engine.Call(ctx, step.Call, step.Args)
}
