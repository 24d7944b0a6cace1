package activity

import (
	"context"
	"testing"
	"time"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newMonitor(t *testing.T, clock *fakeClock, maxPings int, phrases []string) (*Monitor, proc.State) {
	t.Helper()
	m := New()
	state, err := m.Init(map[string]any{
		"timeout-ms":   1000,
		"max-pings":    maxPings,
		"ping-phrases": phrases,
		"end-phrase":   "bye",
	}, proc.Injected{Now: clock.now})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return m, state
}

func TestMonitor_Describe(t *testing.T) {
	m := New()
	d := m.Describe()
	if !d.HasSysPorts() {
		t.Errorf("Describe() should declare sys-in/sys-out ports")
	}
	found := false
	for _, p := range d.Params {
		if p.Name == "ping-phrases" && p.Required {
			found = true
		}
	}
	if !found {
		t.Errorf("Describe() should require ping-phrases")
	}
}

func TestMonitor_Init_Defaults(t *testing.T) {
	m := New()
	state, err := m.Init(map[string]any{"ping-phrases": []string{"hi?"}}, proc.Injected{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	st := state["s"].(*activityState)
	if st.maxPings != 3 {
		t.Errorf("maxPings = %d, want default 3", st.maxPings)
	}
	if st.timeout != 10*time.Second {
		t.Errorf("timeout = %v, want default 10s", st.timeout)
	}
	if st.endPhrase == "" {
		t.Errorf("expected a default end phrase")
	}
}

func TestMonitor_SilenceBeforeTimeout_NoPing(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m, state := newMonitor(t, clock, 3, []string{"hi?"})

	clock.advance(500 * time.Millisecond)
	_, emitted := m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeTimerTick, nil))
	if len(emitted) != 0 {
		t.Errorf("expected no ping before the timeout elapses, got %+v", emitted)
	}
}

func TestMonitor_SilenceAfterTimeout_EmitsPing(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m, state := newMonitor(t, clock, 3, []string{"hi?"})

	clock.advance(1500 * time.Millisecond)
	_, emitted := m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeTimerTick, nil))
	if len(emitted) != 1 || emitted[0].Frame.Type != frame.TypeSpeakFrame {
		t.Fatalf("expected a speak-frame ping, got %+v", emitted)
	}
	if emitted[0].Frame.Data.(string) != "hi?" {
		t.Errorf("ping text = %q, want %q", emitted[0].Frame.Data, "hi?")
	}
}

func TestMonitor_UserSpeechResetsTimer(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m, state := newMonitor(t, clock, 3, []string{"hi?"})

	clock.advance(900 * time.Millisecond)
	state, _ = m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeUserSpeechStart, nil))
	state, _ = m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeUserSpeechStop, nil))

	clock.advance(900 * time.Millisecond)
	_, emitted := m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeTimerTick, nil))
	if len(emitted) != 0 {
		t.Errorf("user speech should reset the silence timer, got %+v", emitted)
	}
}

func TestMonitor_BotSpeaking_SuppressesPing(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m, state := newMonitor(t, clock, 3, []string{"hi?"})

	state, _ = m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeBotSpeechStart, nil))
	clock.advance(2 * time.Second)
	_, emitted := m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeTimerTick, nil))
	if len(emitted) != 0 {
		t.Errorf("should not ping while the bot is speaking, got %+v", emitted)
	}
}

func TestMonitor_ExhaustsMaxPingsThenEndsCall(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m, state := newMonitor(t, clock, 2, []string{"hi?"})

	clock.advance(1500 * time.Millisecond)
	state, emitted := m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeTimerTick, nil))
	if len(emitted) != 1 || emitted[0].Frame.Data.(string) != "hi?" {
		t.Fatalf("first tick: expected a ping, got %+v", emitted)
	}

	clock.advance(1500 * time.Millisecond)
	_, emitted = m.Transform(context.Background(), state, proc.PortSysIn, frame.New(frame.TypeTimerTick, nil))
	if len(emitted) != 1 || emitted[0].Frame.Data.(string) != "bye" {
		t.Fatalf("second tick with max-pings=2: expected the end phrase, got %+v", emitted)
	}
}
