package proc

import (
	"context"
	"errors"
	"testing"

	"github.com/lookatitude/beluga-ai/frame"
)

func TestComposeHooks_Empty(t *testing.T) {
	h := ComposeHooks()
	if h.BeforeTransform != nil || h.AfterTransform != nil || h.OnTransition != nil || h.OnError != nil {
		t.Errorf("ComposeHooks() with no inputs should produce all-nil hooks, got %+v", h)
	}
}

func TestComposeHooks_BeforeTransform_ShortCircuitsOnFirstError(t *testing.T) {
	var called []string
	sentinel := errors.New("nope")
	h1 := Hooks{BeforeTransform: func(ctx context.Context, node, port string, f any) error {
		called = append(called, "h1")
		return sentinel
	}}
	h2 := Hooks{BeforeTransform: func(ctx context.Context, node, port string, f any) error {
		called = append(called, "h2")
		return nil
	}}

	composed := ComposeHooks(h1, h2)
	err := composed.BeforeTransform(context.Background(), "node", PortIn, nil)
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
	if len(called) != 1 || called[0] != "h1" {
		t.Errorf("expected only h1 to run, got %v", called)
	}
}

func TestComposeHooks_BeforeTransform_RunsAllWhenNoError(t *testing.T) {
	var called []string
	h1 := Hooks{BeforeTransform: func(ctx context.Context, node, port string, f any) error {
		called = append(called, "h1")
		return nil
	}}
	h2 := Hooks{BeforeTransform: func(ctx context.Context, node, port string, f any) error {
		called = append(called, "h2")
		return nil
	}}

	composed := ComposeHooks(h1, h2)
	if err := composed.BeforeTransform(context.Background(), "node", PortIn, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(called) != 2 {
		t.Errorf("expected both hooks to run, got %v", called)
	}
}

func TestComposeHooks_AfterTransform_RunsAll(t *testing.T) {
	var called []string
	h1 := Hooks{AfterTransform: func(ctx context.Context, node, port string, emitted []Emitted) { called = append(called, "h1") }}
	h2 := Hooks{AfterTransform: func(ctx context.Context, node, port string, emitted []Emitted) { called = append(called, "h2") }}

	composed := ComposeHooks(h1, h2)
	composed.AfterTransform(context.Background(), "node", PortOut, []Emitted{Out(frame.New(frame.TypeSpeakFrame, "x"))})
	if len(called) != 2 || called[0] != "h1" || called[1] != "h2" {
		t.Errorf("expected h1 then h2, got %v", called)
	}
}

func TestComposeHooks_OnTransition_RunsAll(t *testing.T) {
	var phases []Phase
	h1 := Hooks{OnTransition: func(ctx context.Context, node string, phase Phase, err error) { phases = append(phases, phase) }}
	h2 := Hooks{OnTransition: func(ctx context.Context, node string, phase Phase, err error) { phases = append(phases, phase) }}

	composed := ComposeHooks(h1, h2)
	composed.OnTransition(context.Background(), "node", PhaseStop, nil)
	if len(phases) != 2 || phases[0] != PhaseStop || phases[1] != PhaseStop {
		t.Errorf("expected both OnTransition hooks to run with PhaseStop, got %v", phases)
	}
}

func TestComposeHooks_OnError_FirstReplacementShortCircuits(t *testing.T) {
	original := errors.New("original")
	replaced := errors.New("replaced")
	h1 := Hooks{OnError: func(ctx context.Context, node string, err error) error {
		if !errors.Is(err, original) {
			t.Errorf("h1 saw %v, want %v", err, original)
		}
		return replaced
	}}
	h2Called := false
	h2 := Hooks{OnError: func(ctx context.Context, node string, err error) error {
		h2Called = true
		return nil
	}}

	composed := ComposeHooks(h1, h2)
	got := composed.OnError(context.Background(), "node", original)
	if !errors.Is(got, replaced) {
		t.Errorf("final OnError result = %v, want %v", got, replaced)
	}
	if h2Called {
		t.Errorf("h2 should not run once h1 replaced the error")
	}
}

func TestComposeHooks_OnError_PassthroughWhenAllNil(t *testing.T) {
	original := errors.New("original")
	h1 := Hooks{OnError: func(ctx context.Context, node string, err error) error { return nil }}
	h2 := Hooks{OnError: func(ctx context.Context, node string, err error) error { return nil }}

	composed := ComposeHooks(h1, h2)
	got := composed.OnError(context.Background(), "node", original)
	if !errors.Is(got, original) {
		t.Errorf("final OnError result = %v, want original %v passed through", got, original)
	}
}
