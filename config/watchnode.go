package config

import (
	"context"

	"github.com/lookatitude/beluga-ai/core"
	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/o11y"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/resilience"
)

// WatchNode is a proc.Processor wrapping a Watcher: when the backing config
// file changes, it emits a system-config-change frame carrying the raw new
// content, reusing the frame type spec §3 already defines for this purpose
// (spec SPEC_FULL §C.2).
type WatchNode struct {
	Watcher Watcher
}

func (w *WatchNode) Describe() proc.Descriptor {
	return proc.Descriptor{Outs: []string{proc.PortOut, proc.PortSysOut}, Workload: "config-watch"}
}

func (w *WatchNode) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	if injected.Send != nil {
		go func() {
			ctx := context.Background()
			_, err := resilience.Retry(ctx, resilience.RetryPolicy{MaxAttempts: 5}, func(ctx context.Context) (struct{}, error) {
				err := w.Watcher.Watch(ctx, func(newConfig any) {
					data, _ := newConfig.([]byte)
					injected.Send(proc.PortSysOut, frame.New(frame.TypeSystemConfigChange, map[string]any{
						"config/raw": data,
					}))
				})
				if err != nil {
					err = core.NewError("config.watch", core.ErrExternal, "watcher failed", err)
				}
				return struct{}{}, err
			})
			if err != nil {
				o11y.FromContext(ctx).Error(ctx, "config watcher exhausted retries", "error", err)
			}
		}()
	}
	return proc.State{}, nil
}

func (w *WatchNode) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	if phase == proc.PhaseStop {
		_ = w.Watcher.Close()
	}
	return state, nil
}

func (w *WatchNode) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	return state, nil
}
