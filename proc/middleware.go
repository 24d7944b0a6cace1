package proc

import (
	"context"

	"github.com/lookatitude/beluga-ai/frame"
)

// Middleware wraps a Processor to add cross-cutting behaviour (logging,
// metrics, tracing) without the wrapped Processor knowing. Middlewares
// compose via ApplyMiddleware: the first middleware in the list is the
// outermost wrapper.
type Middleware func(Processor) Processor

// ApplyMiddleware wraps p with the given middlewares in reverse order so
// the first middleware in the list is the outermost (first to execute).
func ApplyMiddleware(p Processor, mws ...Middleware) Processor {
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i](p)
	}
	return p
}

// WithHooks returns a Middleware invoking h around every Init/Transition/
// Transform call on the wrapped Processor.
func WithHooks(node string, h Hooks) Middleware {
	return func(p Processor) Processor {
		return &hookedProcessor{node: node, inner: p, hooks: h}
	}
}

type hookedProcessor struct {
	node  string
	inner Processor
	hooks Hooks
}

func (hp *hookedProcessor) Describe() Descriptor { return hp.inner.Describe() }

func (hp *hookedProcessor) Init(params map[string]any, injected Injected) (State, error) {
	state, err := hp.inner.Init(params, injected)
	if err != nil && hp.hooks.OnError != nil {
		err = hp.hooks.OnError(context.Background(), hp.node, err)
	}
	return state, err
}

func (hp *hookedProcessor) Transition(ctx context.Context, state State, phase Phase) (State, error) {
	state, err := hp.inner.Transition(ctx, state, phase)
	if hp.hooks.OnTransition != nil {
		hp.hooks.OnTransition(ctx, hp.node, phase, err)
	}
	if err != nil && hp.hooks.OnError != nil {
		err = hp.hooks.OnError(ctx, hp.node, err)
	}
	return state, err
}

func (hp *hookedProcessor) Transform(ctx context.Context, state State, port string, f frame.Frame) (State, []Emitted) {
	if hp.hooks.BeforeTransform != nil {
		if err := hp.hooks.BeforeTransform(ctx, hp.node, port, f); err != nil {
			if hp.hooks.OnError != nil {
				hp.hooks.OnError(ctx, hp.node, err)
			}
			return state, nil
		}
	}
	newState, emitted := hp.inner.Transform(ctx, state, port, f)
	if hp.hooks.AfterTransform != nil {
		hp.hooks.AfterTransform(ctx, hp.node, port, emitted)
	}
	return newState, emitted
}
