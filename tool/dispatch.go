package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/lookatitude/beluga-ai/core"
	"github.com/lookatitude/beluga-ai/o11y"
	"github.com/lookatitude/beluga-ai/schema"
)

// AsyncResult is delivered on the channel returned by an Entry's
// AsyncHandler, letting a handler do its work on its own goroutine and
// report back once ready. The dispatcher awaits a synchronous Handler and an
// AsyncHandler uniformly.
type AsyncResult struct {
	Result *Result
	Err    error
}

// Entry is spec §3's ToolDefinition.function: the live, invocable side of a
// tool catalogue entry, paired with the static schema.ToolDefinition sent to
// the model. Exactly one of Handler or AsyncHandler should be set.
type Entry struct {
	Definition schema.ToolDefinition

	// Handler executes the tool synchronously from the dispatcher's point of
	// view (it may still do blocking I/O; the dispatcher just calls it and
	// waits for the return).
	Handler func(ctx context.Context, args map[string]any) (*Result, error)

	// AsyncHandler executes the tool on its own goroutine and reports its
	// outcome on the returned channel, modeling spec §3's "handler result
	// may be ... an awaitable channel".
	AsyncHandler func(ctx context.Context, args map[string]any) <-chan AsyncResult

	// TransitionCB, when set, is invoked with the parsed arguments after a
	// successful call; its presence makes the dispatcher suppress run-llm
	// re-invocation per §4.8 ("run-llm?: handler has no transition-cb").
	TransitionCB func(args map[string]any)

	// TransitionTo names (or computes from args) a state to move the owning
	// conversation to after this tool runs. Optional.
	TransitionTo func(args map[string]any) string
}

// Catalogue is the set of invocable tools known to a dispatcher, keyed by
// name. It is distinct from Registry: Registry tracks the generic Tool
// interface for arbitrary callers; Catalogue tracks the richer §3
// ToolDefinition.function shape (handler, transition hooks) the dispatcher
// needs.
type Catalogue map[string]Entry

// FromRegistry adapts every tool in r into a Catalogue whose handlers call
// Tool.Execute directly and carry no transition hooks.
func FromRegistry(r *Registry) Catalogue {
	cat := make(Catalogue, len(r.tools))
	for _, t := range r.All() {
		t := t
		cat[t.Name()] = Entry{
			Definition: ToDefinition(t),
			Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
				return t.Execute(ctx, args)
			},
		}
	}
	return cat
}

// Definitions returns the model-facing schema.ToolDefinition for every
// entry, suitable for LLMContext.Tools.
func (c Catalogue) Definitions() []schema.ToolDefinition {
	defs := make([]schema.ToolDefinition, 0, len(c))
	for _, e := range c {
		defs = append(defs, e.Definition)
	}
	return defs
}

// DispatchOutcome is the result of running a single tool call: the
// tool-result message to append to the context, plus the properties the
// aggregator needs to decide whether to re-invoke the LLM (spec §4.5's
// llm-tool-call-result handling).
type DispatchOutcome struct {
	Request    schema.ToolCall
	Result     *Result
	RunLLM     bool
	OnUpdate   func()
	ErrKind    core.ErrorCode // zero value unless the call failed in a classified way
}

// Dispatch executes a single tool call against cat and builds its
// DispatchOutcome, implementing spec §4.8:
//  1. look up the tool by name;
//  2. parse arguments as JSON (raw string on parse failure);
//  3. invoke the handler, awaiting either a synchronous or channel result;
//  4. emit "Tool not found" text if no entry matches.
func Dispatch(ctx context.Context, cat Catalogue, call schema.ToolCall) DispatchOutcome {
	ctx, span := o11y.StartSpan(ctx, "simulflow.tool.dispatch", o11y.Attrs{"simulflow.tool.name": call.Name})
	defer span.End()

	entry, ok := cat[call.Name]
	if !ok {
		span.SetAttributes(o11y.Attrs{"simulflow.tool.found": false})
		return DispatchOutcome{
			Request: call,
			Result:  TextResult("Tool not found"),
			RunLLM:  true,
			ErrKind: core.ErrToolNotFound,
		}
	}
	span.SetAttributes(o11y.Attrs{"simulflow.tool.found": true})

	args, parseErr := parseArguments(call.Arguments)
	if parseErr != nil {
		o11y.FromContext(ctx).Warn(ctx, "tool arguments did not parse as JSON, passing raw string",
			"tool", call.Name, "error", parseErr)
		args = map[string]any{"_raw": call.Arguments}
	}

	result, err := invoke(ctx, entry, args)
	if err != nil {
		o11y.FromContext(ctx).Error(ctx, "tool handler error", "tool", call.Name, "error", err)
		span.SetAttributes(o11y.Attrs{"simulflow.tool.success": false})
		return DispatchOutcome{
			Request: call,
			Result:  ErrorResult(err),
			RunLLM:  true,
			ErrKind: core.ErrToolHandlerError,
		}
	}
	span.SetAttributes(o11y.Attrs{"simulflow.tool.success": true})

	outcome := DispatchOutcome{
		Request: call,
		Result:  result,
		RunLLM:  entry.TransitionCB == nil,
	}
	if entry.TransitionCB != nil {
		cb := entry.TransitionCB
		outcome.OnUpdate = func() { cb(args) }
	}
	return outcome
}

func invoke(ctx context.Context, entry Entry, args map[string]any) (*Result, error) {
	switch {
	case entry.AsyncHandler != nil:
		select {
		case res := <-entry.AsyncHandler(ctx, args):
			return res.Result, res.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	case entry.Handler != nil:
		return entry.Handler(ctx, args)
	default:
		return nil, fmt.Errorf("tool entry has no handler")
	}
}

func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// Request is what the aggregator's init-owned worker writes onto the
// tool-write channel to ask the dispatcher to run a call.
type Request struct {
	Call schema.ToolCall
}

// Dispatcher runs as a dedicated worker attached to the aggregator's init
// (spec §4.8): it consumes Request values from In, runs them against Cat
// with bounded concurrency, and produces DispatchOutcome values on Out.
type Dispatcher struct {
	Cat         Catalogue
	In          <-chan Request
	Out         chan<- DispatchOutcome
	Concurrency int64
}

// Run drains In until it is closed or ctx is cancelled, dispatching each
// request with at most Concurrency calls in flight at once (via
// golang.org/x/sync/semaphore), and closes Out once every in-flight call has
// reported its outcome.
func (d *Dispatcher) Run(ctx context.Context) {
	n := d.Concurrency
	if n <= 0 {
		n = 4
	}
	sem := semaphore.NewWeighted(n)

	var wg sync.WaitGroup
loop:
	for {
		select {
		case req, ok := <-d.In:
			if !ok {
				break loop
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				break loop
			}
			wg.Add(1)
			go func(req Request) {
				defer wg.Done()
				defer sem.Release(1)
				out := Dispatch(ctx, d.Cat, req.Call)
				select {
				case d.Out <- out:
				case <-ctx.Done():
				}
			}(req)
		case <-ctx.Done():
			break loop
		}
	}
	wg.Wait()
	close(d.Out)
}
