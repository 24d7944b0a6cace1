// Package transport implements the input-side transport processor (spec
// §4.4): it gates raw inbound audio on a mute flag, runs the rest through
// voice-activity detection, and surfaces barge-in as a control-interrupt
// system frame when the pipeline supports interruption.
package transport

import (
	"context"
	"fmt"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/vad"
)

// AudioPayload is the §3 payload shape for audio-input-raw /
// audio-output-raw frames.
type AudioPayload struct {
	Audio      []byte
	SampleRate int
}

func init() {
	frame.RegisterPayload(frame.TypeAudioInputRaw, AudioPayload{})
	frame.RegisterPayload(frame.TypeAudioOutputRaw, AudioPayload{})
	frame.RegisterPayload(frame.TypeAudioTTSRaw, AudioPayload{})
	frame.RegisterPayload(frame.TypeTranscription, "")
	frame.RegisterPayload(frame.TypeTranscriptionInterim, "")
	frame.RegisterPayload(frame.TypeSpeakFrame, "")
}

type inputState struct {
	muted      bool
	wrapper    *vad.Wrapper
	sampleRate int
	interrupt  bool
}

// Input is the input-transport Processor.
type Input struct{}

// NewInput returns the input-transport Processor.
func NewInput() *Input { return &Input{} }

func (p *Input) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn},
		Outs: []string{proc.PortOut, proc.PortSysOut},
		Params: []proc.ParamSpec{
			{Name: "sample-rate", Required: false, Default: 16000},
			{Name: "min-confidence", Required: false, Default: float32(0.5)},
			{Name: "min-speech-ms", Required: false, Default: 200},
			{Name: "min-silence-ms", Required: false, Default: 400},
			{Name: "analyzer", Required: false},
			{Name: "supports-interruption", Required: false, Default: false},
		},
		Workload: "vad",
	}
}

func (p *Input) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	sampleRate := intParam(params, "sample-rate", 16000)

	analyzer, _ := params["analyzer"].(vad.Analyzer)
	if analyzer == nil {
		analyzer = &vad.EnergyAnalyzer{}
	}

	minConfidence := float32(0.5)
	if v, ok := params["min-confidence"].(float32); ok {
		minConfidence = v
	}

	framesPerSec := float64(sampleRate) / float64(vad.FramesRequired(sampleRate))
	minSpeechMS := intParam(params, "min-speech-ms", 200)
	minSilenceMS := intParam(params, "min-silence-ms", 400)

	vadParams := vad.Params{
		StartFrames: vad.StartFramesFromMS(minSpeechMS, framesPerSec),
		StopFrames:  vad.StartFramesFromMS(minSilenceMS, framesPerSec),
	}

	st := &inputState{
		wrapper:    vad.NewWrapper(analyzer, sampleRate, minConfidence, vadParams),
		sampleRate: sampleRate,
		interrupt:  boolParam(params, "supports-interruption", false),
	}
	return proc.State{"s": st}, nil
}

func (p *Input) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (p *Input) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*inputState)

	switch {
	case port == proc.PortSysIn && f.Type == frame.TypeMuteInputStart:
		st.muted = true
		return state, nil
	case port == proc.PortSysIn && f.Type == frame.TypeMuteInputStop:
		st.muted = false
		return state, nil
	case port == proc.PortSysIn && f.Type == frame.TypeBotInterrupt:
		if !st.interrupt {
			return state, nil
		}
		return state, []proc.Emitted{proc.Out(frame.New(frame.TypeControlInterruptStart, nil))}
	case port == proc.PortSysIn:
		return state, nil
	}

	if port != proc.PortIn || f.Type != frame.TypeAudioInputRaw {
		return state, nil
	}
	if st.muted {
		return state, nil
	}

	payload, ok := f.Data.(AudioPayload)
	if !ok {
		return state, nil
	}

	var emitted []proc.Emitted
	events, err := st.wrapper.Feed(payload.Audio)
	if err != nil {
		emitted = append(emitted, proc.Out(frame.New(frame.TypeSystemError, fmt.Errorf("vad: %w", err))))
	}
	for _, ev := range events {
		emitted = append(emitted, speechFrames(ev, st.interrupt)...)
	}
	emitted = append(emitted, proc.Out(f))
	return state, emitted
}

func speechFrames(ev vad.Event, supportsInterruption bool) []proc.Emitted {
	switch ev {
	case vad.EventSpeechStart:
		out := []proc.Emitted{
			proc.Out(frame.New(frame.TypeUserSpeechStart, nil)),
			proc.Out(frame.New(frame.TypeVADUserSpeechStart, nil)),
		}
		if supportsInterruption {
			out = append(out, proc.Out(frame.New(frame.TypeControlInterruptStart, nil)))
		}
		return out
	case vad.EventSpeechStop:
		return []proc.Emitted{
			proc.Out(frame.New(frame.TypeUserSpeechStop, nil)),
			proc.Out(frame.New(frame.TypeVADUserSpeechStop, nil)),
		}
	default:
		return nil
	}
}

func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func boolParam(params map[string]any, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
