// Package mute implements the mute filter (spec §4.11): it watches
// bot-speech and tool-call activity and emits mute-input-start/stop on the
// sys-plane according to a configurable set of strategies.
package mute

import (
	"context"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
)

// Strategy names the condition under which input muting engages.
type Strategy string

const (
	// StrategyFirstSpeech mutes only around the bot's first utterance.
	StrategyFirstSpeech Strategy = "first-speech"
	// StrategyBotSpeech mutes around every bot utterance.
	StrategyBotSpeech Strategy = "bot-speech"
	// StrategyToolCall mutes while a tool call is in flight.
	StrategyToolCall Strategy = "tool-call"
)

type muteState struct {
	strategies        map[Strategy]bool
	muted             bool
	firstSpeechMarked bool
}

func hasStrategy(m map[Strategy]bool, s Strategy) bool { return m[s] }

// Filter is the mute-filter Processor.
type Filter struct{}

func New() *Filter { return &Filter{} }

func (f *Filter) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn},
		Outs: []string{proc.PortOut, proc.PortSysOut},
		Params: []proc.ParamSpec{
			{Name: "strategies", Required: true},
		},
		Workload: "mute",
	}
}

func (f *Filter) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	strategies := map[Strategy]bool{}
	if raw, ok := params["strategies"].([]Strategy); ok {
		for _, s := range raw {
			strategies[s] = true
		}
	} else if raw, ok := params["strategies"].([]string); ok {
		for _, s := range raw {
			strategies[Strategy(s)] = true
		}
	}
	return proc.State{"s": &muteState{strategies: strategies}}, nil
}

func (f *Filter) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (f *Filter) Transform(ctx context.Context, state proc.State, port string, fr frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*muteState)

	switch fr.Type {
	case frame.TypeBotSpeechStart:
		return state, f.onBotSpeechStart(st)
	case frame.TypeBotSpeechStop:
		return state, f.onBotSpeechStop(st)
	case frame.TypeLLMToolCallRequest:
		if hasStrategy(st.strategies, StrategyToolCall) && !st.muted {
			st.muted = true
			return state, []proc.Emitted{proc.OutPort(proc.PortSysOut, frame.New(frame.TypeMuteInputStart, nil))}
		}
	case frame.TypeLLMToolCallResult:
		if hasStrategy(st.strategies, StrategyToolCall) && st.muted {
			st.muted = false
			return state, []proc.Emitted{proc.OutPort(proc.PortSysOut, frame.New(frame.TypeMuteInputStop, nil))}
		}
	}
	return state, nil
}

func (f *Filter) onBotSpeechStart(st *muteState) []proc.Emitted {
	wantsFirst := hasStrategy(st.strategies, StrategyFirstSpeech) && !st.firstSpeechMarked
	wantsEvery := hasStrategy(st.strategies, StrategyBotSpeech)
	if !wantsFirst && !wantsEvery {
		return nil
	}
	if st.muted {
		return nil
	}
	st.muted = true
	if hasStrategy(st.strategies, StrategyFirstSpeech) {
		st.firstSpeechMarked = true
	}
	return []proc.Emitted{proc.OutPort(proc.PortSysOut, frame.New(frame.TypeMuteInputStart, nil))}
}

func (f *Filter) onBotSpeechStop(st *muteState) []proc.Emitted {
	if !st.muted {
		return nil
	}
	st.muted = false
	return []proc.Emitted{proc.OutPort(proc.PortSysOut, frame.New(frame.TypeMuteInputStop, nil))}
}
