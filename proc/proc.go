// Package proc defines the processor contract every simulflow graph node
// implements (spec §4.1): a four-arity Describe/Init/Transition/Transform
// shape plus the runtime that wires processors into a graph of bounded,
// backpressured channels and drives their lifecycle.
package proc

import (
	"context"
	"time"

	"github.com/lookatitude/beluga-ai/frame"
)

// Phase names a lifecycle transition a processor's Transition function may
// receive.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseStop  Phase = "stop"
)

// ParamSpec documents one Init parameter. The runtime does not enforce
// Required or apply Default; each Init reads and defaults its own params.
type ParamSpec struct {
	Name     string
	Required bool
	Default  any
}

// Descriptor is a processor's arity-0 contract: its port names, its
// Init parameters, and an opaque workload tag used for scheduling hints.
type Descriptor struct {
	Ins      []string
	Outs     []string
	Params   []ParamSpec
	Workload string
}

// HasSysPorts reports whether d declares the conventional system-plane
// ports every graph-connected processor is expected to expose.
func (d Descriptor) HasSysPorts() bool {
	return containsString(d.Ins, PortSysIn) && containsString(d.Outs, PortSysOut)
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Conventional port names. Every processor participating in the system
// plane declares PortSysIn/PortSysOut in addition to its data ports.
const (
	PortIn     = "in"
	PortOut    = "out"
	PortSysIn  = "sys-in"
	PortSysOut = "sys-out"
)

// State is a processor's opaque, per-instance data, reassigned wholesale on
// every Transition/Transform call (spec §3's "Processor state = opaque
// map").
type State map[string]any

// Emitted pairs an output frame with the port it must be sent on.
type Emitted struct {
	Port  string
	Frame frame.Frame
}

// Out builds an Emitted routed by frame.Route: data frames to "out",
// SYSTEM_FRAMES to "sys-out". Most Transform implementations should use
// this instead of naming the port directly.
func Out(f frame.Frame) Emitted {
	return Emitted{Port: string(frame.Route(f)), Frame: f}
}

// OutPort builds an Emitted routed to an explicit named port, for
// processors with ports beyond the conventional in/out/sys-in/sys-out pair
// (e.g. the tool dispatcher's tool-write/tool-read ports).
func OutPort(port string, f frame.Frame) Emitted {
	return Emitted{Port: port, Frame: f}
}

// Processor is the full arity-1..3 contract (spec §4.1). Describe is
// stateless and may be called before Init. Init validates params and
// produces the first State. Transition moves State through PhaseStart and
// PhaseStop; it must be idempotent on PhaseStop and is called exactly once
// per phase per processor instance over its lifetime. Transform is called
// once per inbound frame on a named port, serialized by the runtime: no
// two Transform calls for the same processor instance ever run
// concurrently, and every frame a single Transform call emits is delivered
// in order before the next inbound frame is processed.
//
// Init additionally receives Injected, the runtime's own in-ports,
// out-ports, close-callback, and clock (spec §3: "Processor state = opaque
// map + injected in-ports/out-ports/close-callback/now"). A processor that
// needs an init-owned worker — one that suspends, waits on a timer, or
// drives a dedicated goroutine pool like the tool dispatcher — stashes
// Injected.Send in its State and has the worker call it directly; Transform
// itself must never suspend.
type Processor interface {
	Describe() Descriptor
	Init(params map[string]any, injected Injected) (State, error)
	Transition(ctx context.Context, state State, phase Phase) (State, error)
	Transform(ctx context.Context, state State, port string, f frame.Frame) (State, []Emitted)
}

// Injected is the runtime machinery a processor's Init needs to hand to its
// own init-owned workers.
type Injected struct {
	// Send delivers f on the named out port, blocking (subject to ctx/Done)
	// if the port's channel is full — the same backpressure Transform's
	// return-value emission path uses.
	Send func(port string, f frame.Frame)
	// SelfFeed delivers f back onto this processor's own inbox as if it had
	// arrived on the named in port, for an init-owned worker whose result
	// (e.g. the tool dispatcher's outcome) must be "treated like any other
	// input" (spec §4.8) rather than routed through a graph edge.
	SelfFeed func(port string, f frame.Frame)
	// Now returns the current time; injected so processors (the pacer, the
	// VAD reset timer) are testable with a fake clock.
	Now func() time.Time
	// Done is closed when the processor is stopped. Workers select on it to
	// exit instead of leaking past Transition(stop).
	Done <-chan struct{}
}
