package proc

import (
	"context"

	"github.com/lookatitude/beluga-ai/internal/hookutil"
)

// Hooks provides optional callback functions invoked around a processor's
// lifecycle. All fields are optional; nil hooks are skipped. Hooks are
// composable via ComposeHooks and installed on a Processor with WithHooks.
type Hooks struct {
	// BeforeTransform is called before a processor's Transform runs.
	// Returning an error skips Transform for this frame (nothing is
	// emitted) and passes the error to OnError, if set.
	BeforeTransform func(ctx context.Context, node, port string, f any) error

	// AfterTransform is called after Transform completes, with the
	// frames it emitted.
	AfterTransform func(ctx context.Context, node, port string, emitted []Emitted)

	// OnTransition is called after each Transition call with its phase and
	// error. Init does not invoke it.
	OnTransition func(ctx context.Context, node string, phase Phase, err error)

	// OnError is called when Init or Transition returns an error, or when
	// BeforeTransform rejects a frame. For Init and Transition the returned
	// error replaces the original and returning nil suppresses it; for a
	// rejected frame the return value is ignored. Transform panics are
	// recovered by the runtime and do not reach OnError.
	OnError func(ctx context.Context, node string, err error) error
}

// ComposeHooks merges multiple Hooks into one. Callbacks run in the order
// the hooks were provided; for BeforeTransform and OnError, the first
// non-nil error short-circuits.
func ComposeHooks(hooks ...Hooks) Hooks {
	h := append([]Hooks{}, hooks...)
	return Hooks{
		BeforeTransform: hookutil.ComposeError3(h, func(x Hooks) func(context.Context, string, string, any) error {
			return x.BeforeTransform
		}),
		AfterTransform: hookutil.ComposeVoid3(h, func(x Hooks) func(context.Context, string, string, []Emitted) {
			return x.AfterTransform
		}),
		OnTransition: hookutil.ComposeVoid3(h, func(x Hooks) func(context.Context, string, Phase, error) {
			return x.OnTransition
		}),
		OnError: hookutil.ComposeErrorPassthrough1(h, func(x Hooks) func(context.Context, string, error) error {
			return x.OnError
		}),
	}
}
