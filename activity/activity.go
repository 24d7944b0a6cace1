// Package activity implements the activity monitor (spec §4.10): it watches
// user/bot speech events and, once neither side has spoken for timeout-ms,
// nudges the conversation with a ping phrase, eventually ending the call
// after max-pings are exhausted.
package activity

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
)

type activityState struct {
	userSpeaking bool
	botSpeaking  bool
	pingCount    int
	maxPings     int
	pingPhrases  []string
	endPhrase    string
	timeout      time.Duration
	lastActivity time.Time
	now          func() time.Time
}

// Monitor is the activity-monitor Processor.
type Monitor struct{}

func New() *Monitor { return &Monitor{} }

func (m *Monitor) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn},
		Outs: []string{proc.PortOut, proc.PortSysOut},
		Params: []proc.ParamSpec{
			{Name: "timeout-ms", Required: false, Default: 10000},
			{Name: "max-pings", Required: false, Default: 3},
			{Name: "ping-phrases", Required: true},
			{Name: "end-phrase", Required: false, Default: "I haven't heard from you, goodbye."},
		},
		Workload: "activity",
	}
}

func (m *Monitor) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	timeoutMS := 10000
	if v, ok := params["timeout-ms"].(int); ok && v > 0 {
		timeoutMS = v
	}
	maxPings := 3
	if v, ok := params["max-pings"].(int); ok && v > 0 {
		maxPings = v
	}
	phrases, _ := params["ping-phrases"].([]string)
	if len(phrases) == 0 {
		phrases = []string{"Are you still there?"}
	}
	endPhrase, _ := params["end-phrase"].(string)
	if endPhrase == "" {
		endPhrase = "I haven't heard from you, goodbye."
	}

	now := injected.Now
	if now == nil {
		now = time.Now
	}

	st := &activityState{
		maxPings:     maxPings,
		pingPhrases:  phrases,
		endPhrase:    endPhrase,
		timeout:      time.Duration(timeoutMS) * time.Millisecond,
		lastActivity: now(),
		now:          now,
	}

	if injected.SelfFeed != nil {
		go runTimer(injected.Done, injected.SelfFeed, st.timeout/4)
	}

	return proc.State{"s": st}, nil
}

func (m *Monitor) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (m *Monitor) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*activityState)

	switch f.Type {
	case frame.TypeUserSpeechStart:
		st.userSpeaking = true
		st.lastActivity = st.now()
	case frame.TypeUserSpeechStop:
		st.userSpeaking = false
		st.lastActivity = st.now()
	case frame.TypeBotSpeechStart:
		st.botSpeaking = true
		st.lastActivity = st.now()
	case frame.TypeBotSpeechStop:
		st.botSpeaking = false
		st.lastActivity = st.now()
	case frame.TypeTimerTick:
		return state, m.onTick(st)
	}
	return state, nil
}

func (m *Monitor) onTick(st *activityState) []proc.Emitted {
	if st.userSpeaking || st.botSpeaking {
		return nil
	}
	if st.now().Sub(st.lastActivity) < st.timeout {
		return nil
	}

	st.lastActivity = st.now()
	if st.pingCount+1 < st.maxPings {
		st.pingCount++
		phrase := st.pingPhrases[rand.IntN(len(st.pingPhrases))]
		return []proc.Emitted{proc.Out(frame.New(frame.TypeSpeakFrame, phrase))}
	}

	st.pingCount = 0
	return []proc.Emitted{proc.Out(frame.New(frame.TypeSpeakFrame, st.endPhrase))}
}

func runTimer(done <-chan struct{}, selfFeed func(port string, f frame.Frame), interval time.Duration) {
	if interval <= 0 {
		interval = 1 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			selfFeed(proc.PortIn, frame.New(frame.TypeTimerTick, nil))
		case <-done:
			return
		}
	}
}
