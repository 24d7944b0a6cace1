package proc

import (
	"context"

	"github.com/lookatitude/beluga-ai/frame"
)

// Router is the single stateless system-frame router every graph
// auto-wires (spec §4.2): one sys-in, one sys-out, forwarding only
// SYSTEM_FRAMES and dropping anything else that reaches it.
type Router struct{}

// NewRouter returns the Router processor. It carries no state of its own.
func NewRouter() *Router { return &Router{} }

func (r *Router) Describe() Descriptor {
	return Descriptor{
		Ins:      []string{PortSysIn},
		Outs:     []string{PortSysOut},
		Workload: "router",
	}
}

func (r *Router) Init(params map[string]any, injected Injected) (State, error) {
	return State{}, nil
}

func (r *Router) Transition(ctx context.Context, state State, phase Phase) (State, error) {
	return state, nil
}

func (r *Router) Transform(ctx context.Context, state State, port string, f frame.Frame) (State, []Emitted) {
	if port != PortSysIn || !f.Type.IsSystemFrame() {
		return state, nil
	}
	return state, []Emitted{{Port: PortSysOut, Frame: f}}
}

// WireSysPlane returns the edges the runtime must add to connect every
// processor's sys-out to the router's sys-in and the router's sys-out back
// to every processor's sys-in, auto-wired purely from descriptor
// introspection (spec §4.2).
func WireSysPlane(nodeNames []string) []Edge {
	const routerName = "$sys-router"
	edges := make([]Edge, 0, len(nodeNames)*2)
	for _, name := range nodeNames {
		edges = append(edges,
			Edge{FromNode: name, FromPort: PortSysOut, ToNode: routerName, ToPort: PortSysIn},
			Edge{FromNode: routerName, FromPort: PortSysOut, ToNode: name, ToPort: PortSysIn},
		)
	}
	return edges
}
