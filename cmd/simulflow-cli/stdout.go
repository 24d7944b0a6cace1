package main

import (
	"context"
	"fmt"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
)

// stdoutOutput renders llm-text-chunk/speak-frame output to the terminal
// (spec §6's text transport). It records in state["responding"] whether a
// full response is currently streaming, but prints every frame as it
// arrives regardless of that flag, and stdin reading is not paused while a
// response streams.
type stdoutOutput struct{}

func newStdoutOutput() *stdoutOutput { return &stdoutOutput{} }

func (s *stdoutOutput) Describe() proc.Descriptor {
	return proc.Descriptor{Ins: []string{proc.PortIn, proc.PortSysIn}, Workload: "stdout"}
}

func (s *stdoutOutput) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	return proc.State{"responding": false}, nil
}

func (s *stdoutOutput) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (s *stdoutOutput) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	switch f.Type {
	case frame.TypeLLMFullResponseStart:
		state["responding"] = true
		fmt.Print("assistant: ")
	case frame.TypeLLMTextChunk:
		if text, ok := f.Data.(string); ok {
			fmt.Print(text)
		}
	case frame.TypeLLMFullResponseEnd:
		state["responding"] = false
		fmt.Println()
	case frame.TypeSpeakFrame:
		if text, ok := f.Data.(string); ok {
			fmt.Println("speak:", text)
		}
	}
	return state, nil
}
