package sentence

import (
	"context"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
)

type splitState struct {
	buffer      string
	interrupted bool
}

// Splitter is the sentence-splitter Processor (spec §4.7): it accumulates
// llm-text-chunk fragments and emits a speak-frame whenever the buffer
// reaches a real sentence boundary, retaining the remainder. A
// control-interrupt-start drops the buffer and ignores further chunks
// until control-interrupt-stop.
type Splitter struct{}

func New() *Splitter { return &Splitter{} }

func (s *Splitter) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:      []string{proc.PortIn, proc.PortSysIn},
		Outs:     []string{proc.PortOut, proc.PortSysOut},
		Workload: "splitter",
	}
}

func (s *Splitter) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	return proc.State{"s": &splitState{}}, nil
}

func (s *Splitter) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (s *Splitter) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*splitState)

	switch {
	case port == proc.PortSysIn && f.Type == frame.TypeControlInterruptStart:
		st.buffer = ""
		st.interrupted = true
		return state, nil
	case port == proc.PortSysIn && f.Type == frame.TypeControlInterruptStop:
		st.interrupted = false
		return state, nil
	case port == proc.PortSysIn:
		return state, nil
	}

	if f.Type != frame.TypeLLMTextChunk {
		return state, nil
	}
	if st.interrupted {
		return state, nil
	}

	delta, _ := f.Data.(string)
	st.buffer += delta

	var emitted []proc.Emitted
	for {
		idx := FindBoundary(st.buffer)
		if idx < 0 {
			break
		}
		runes := []rune(st.buffer)
		sentence := string(runes[:idx+1])
		st.buffer = string(runes[idx+1:])
		emitted = append(emitted, proc.Out(frame.New(frame.TypeSpeakFrame, sentence)))
	}
	return state, emitted
}
