// Package assistant implements the assistant-response assembler (spec
// §4.6): it accumulates a streaming LLM response's text and/or tool-call
// fragments and, once the stream ends, emits a single context-append frame
// carrying the finished assistant message.
package assistant

import (
	"context"

	"github.com/lookatitude/beluga-ai/aggregator"
	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/schema"
)

type assembleState struct {
	contentAggregation string
	functionName       string
	functionArguments  string
	toolCallID         string
}

func (s *assembleState) reset() {
	*s = assembleState{}
}

// Assembler is the assistant-response-assembler Processor.
type Assembler struct{}

func New() *Assembler { return &Assembler{} }

func (a *Assembler) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:      []string{proc.PortIn, proc.PortSysIn},
		Outs:     []string{proc.PortOut, proc.PortSysOut},
		Workload: "assembler",
	}
}

func (a *Assembler) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	return proc.State{"s": &assembleState{}}, nil
}

func (a *Assembler) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (a *Assembler) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*assembleState)

	switch f.Type {
	case frame.TypeLLMFullResponseStart:
		st.reset()
		return state, nil

	case frame.TypeLLMTextChunk:
		delta, _ := f.Data.(string)
		st.contentAggregation += delta
		return state, nil

	case frame.TypeLLMToolCallChunk:
		chunk, ok := f.Data.(schema.ToolCall)
		if !ok {
			return state, nil
		}
		if st.functionName == "" && chunk.Name != "" {
			st.functionName = chunk.Name
		}
		if st.toolCallID == "" && chunk.ID != "" {
			st.toolCallID = chunk.ID
		}
		st.functionArguments += chunk.Arguments
		return state, nil

	case frame.TypeLLMFullResponseEnd:
		return state, a.finish(st)

	default:
		return state, nil
	}
}

func (a *Assembler) finish(st *assembleState) []proc.Emitted {
	var msg *schema.AIMessage
	if st.functionName != "" {
		msg = &schema.AIMessage{ToolCalls: []schema.ToolCall{{
			ID:        st.toolCallID,
			Name:      st.functionName,
			Arguments: st.functionArguments,
		}}}
	} else {
		msg = schema.NewAIMessage(st.contentAggregation)
	}

	payload := aggregator.MessagesAppendPayload{
		Messages: []schema.Message{msg},
		RunLLM:   false,
		ToolCall: st.functionName != "",
	}
	st.reset()
	return []proc.Emitted{proc.Out(frame.New(frame.TypeLLMContextMessagesAppend, payload))}
}
