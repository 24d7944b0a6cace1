package proc

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/o11y"
)

// Edge connects one node's named output port to another node's named input
// port. A port may appear as the source of several edges (broadcast) or the
// destination of several (fan-in); delivery order across distinct edges
// into the same inbox is unspecified, matching spec §5's "order across
// different ports of same processor is unspecified".
type Edge struct {
	FromNode, FromPort string
	ToNode, ToPort     string
}

// Node binds a Processor instance to a name and its Init parameters.
type Node struct {
	Name   string
	Proc   Processor
	Params map[string]any

	// Hooks, if non-zero, is installed around this node's Init/Transition/
	// Transform calls via WithHooks (e.g. for per-node metrics or audit
	// logging without changing the processor itself).
	Hooks Hooks

	// Middlewares wraps Proc; the first entry is the outermost wrapper.
	// Hooks, when set, is applied innermost, directly around Proc.
	Middlewares []Middleware
}

// Graph is a processor topology ready to be built into a running Runtime.
// BufferSize bounds every edge's channel, providing the backpressure spec
// §5 requires; zero defaults to 16.
type Graph struct {
	Nodes      []Node
	Edges      []Edge
	BufferSize int

	// SchemaChecking enables per-frame payload validation against each
	// frame type's registered schema before it reaches Transform
	// (simulflow.frame.schema-checking, spec §6). A mismatch is reported as
	// a system-error frame instead of being delivered.
	SchemaChecking bool
}

// AutoWireSysPlane appends the router node and the sys-plane edges every
// processor needs (spec §4.2), returning a new Graph. Call this once after
// assembling data-plane edges, before Build.
func (g Graph) AutoWireSysPlane() Graph {
	names := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		names = append(names, n.Name)
	}
	g.Nodes = append(g.Nodes, Node{Name: "$sys-router", Proc: NewRouter()})
	g.Edges = append(g.Edges, WireSysPlane(names)...)
	return g
}

type portFrame struct {
	port string
	f    frame.Frame
}

type nodeRT struct {
	name   string
	proc   Processor
	params map[string]any
	inbox  chan portFrame
	outs   map[string]chan frame.Frame
}

// Runtime is a built, runnable Graph.
type Runtime struct {
	nodes          map[string]*nodeRT
	bufferSize     int
	schemaChecking bool
}

// Build wires every edge's channels and forwarder goroutines-to-be, without
// starting any node. Call Run to actually drive the graph.
func (g Graph) Build() (*Runtime, error) {
	buf := g.BufferSize
	if buf <= 0 {
		buf = 16
	}
	rt := &Runtime{nodes: make(map[string]*nodeRT, len(g.Nodes)), bufferSize: buf, schemaChecking: g.SchemaChecking}

	for _, n := range g.Nodes {
		p := n.Proc
		mws := n.Middlewares
		if n.Hooks.BeforeTransform != nil || n.Hooks.AfterTransform != nil || n.Hooks.OnTransition != nil || n.Hooks.OnError != nil {
			mws = append(append([]Middleware{}, mws...), WithHooks(n.Name, n.Hooks))
		}
		if len(mws) > 0 {
			p = ApplyMiddleware(p, mws...)
		}

		desc := p.Describe()
		nr := &nodeRT{
			name:   n.Name,
			proc:   p,
			params: n.Params,
			inbox:  make(chan portFrame, buf),
			outs:   make(map[string]chan frame.Frame, len(desc.Outs)),
		}
		for _, port := range desc.Outs {
			nr.outs[port] = make(chan frame.Frame, buf)
		}
		rt.nodes[n.Name] = nr
	}

	for _, e := range g.Edges {
		from, ok := rt.nodes[e.FromNode]
		if !ok {
			return nil, fmt.Errorf("proc: edge references unknown node %q", e.FromNode)
		}
		to, ok := rt.nodes[e.ToNode]
		if !ok {
			return nil, fmt.Errorf("proc: edge references unknown node %q", e.ToNode)
		}
		srcCh, ok := from.outs[e.FromPort]
		if !ok {
			return nil, fmt.Errorf("proc: node %q has no out port %q", e.FromNode, e.FromPort)
		}
		go forward(srcCh, to.inbox, e.ToPort)
	}

	return rt, nil
}

func forward(src chan frame.Frame, dst chan portFrame, toPort string) {
	for f := range src {
		dst <- portFrame{port: toPort, f: f}
	}
}

// Run starts every node and blocks until they have all exited: either
// because ctx was cancelled (triggering a stop transition on every node) or
// because a node's Init or start transition failed, which cancels the
// others (Transform returns no error). Run closes no channel
// the caller didn't give it; each node closes only the out channels it
// owns, per spec §5's shared-resource policy.
func (rt *Runtime) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, nr := range rt.nodes {
		nr := nr
		g.Go(func() error { return rt.runNode(ctx, nr) })
	}
	return g.Wait()
}

func (rt *Runtime) runNode(ctx context.Context, nr *nodeRT) error {
	log := o11y.FromContext(ctx).With("processor", nr.name)

	done := make(chan struct{})
	injected := Injected{
		Now:  time.Now,
		Done: done,
		Send: func(port string, f frame.Frame) {
			ch, ok := nr.outs[port]
			if !ok {
				log.Warn(ctx, "worker sent on undeclared port, dropping", "port", port)
				return
			}
			select {
			case ch <- f:
			case <-ctx.Done():
			case <-done:
			}
		},
		SelfFeed: func(port string, f frame.Frame) {
			select {
			case nr.inbox <- portFrame{port: port, f: f}:
			case <-ctx.Done():
			case <-done:
			}
		},
	}

	state, err := nr.proc.Init(nr.params, injected)
	if err != nil {
		return fmt.Errorf("proc: %s: init: %w", nr.name, err)
	}

	state, err = nr.proc.Transition(ctx, state, PhaseStart)
	if err != nil {
		return fmt.Errorf("proc: %s: transition(start): %w", nr.name, err)
	}

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
		state, err = nr.proc.Transition(ctx, state, PhaseStop)
		if err != nil {
			log.Error(ctx, "transition(stop) failed", "error", err)
		}
		for _, ch := range nr.outs {
			close(ch)
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case pf, ok := <-nr.inbox:
			if !ok {
				stop()
				return nil
			}
			state = rt.transformOne(ctx, log, nr, state, pf)
		}
	}
}

func (rt *Runtime) transformOne(ctx context.Context, log *o11y.Logger, nr *nodeRT, state State, pf portFrame) (result State) {
	result = state
	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "transform panicked, processor kept alive", "recover", r, "port", pf.port)
			rt.emitSysError(ctx, log, nr, fmt.Errorf("proc: %s: transform panicked: %v", nr.name, r))
		}
	}()

	if rt.schemaChecking {
		if err := frame.ValidatePayload(pf.f); err != nil {
			log.Warn(ctx, "dropping frame failing schema check", "port", pf.port, "error", err)
			rt.emitSysError(ctx, log, nr, err)
			return result
		}
	}

	newState, emitted := nr.proc.Transform(ctx, state, pf.port, pf.f)
	result = newState
	for _, e := range emitted {
		ch, ok := nr.outs[e.Port]
		if !ok {
			log.Warn(ctx, "transform emitted on undeclared port, dropping", "port", e.Port)
			continue
		}
		select {
		case ch <- e.Frame:
		case <-ctx.Done():
			return result
		}
	}
	return result
}

// emitSysError delivers a system-error frame on the node's sys-out port, if
// it declared one, for a failure that would otherwise only be logged.
func (rt *Runtime) emitSysError(ctx context.Context, log *o11y.Logger, nr *nodeRT, cause error) {
	ch, ok := nr.outs[PortSysOut]
	if !ok {
		return
	}
	select {
	case ch <- frame.New(frame.TypeSystemError, cause):
	case <-ctx.Done():
	default:
		log.Warn(ctx, "sys-out full, dropping system-error frame", "error", cause)
	}
}
