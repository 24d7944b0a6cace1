// Package aggregator implements the user-turn aggregator (spec §4.5): it
// accumulates transcription fragments between user-speech-start/stop,
// decides when an utterance is complete across several interleavings of
// interim/final transcription and speech-boundary events, and merges the
// finished utterance into the running LLM context. It also owns the
// tool-call dispatcher as an init-owned worker (spec §4.8) and applies
// every other context-mutating frame (llm-context-messages-append,
// llm-tool-call-result, scenario-context-update, speak-frame).
package aggregator

import (
	"context"
	"strings"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/schema"
	"github.com/lookatitude/beluga-ai/tool"
)

const (
	PortToolWrite = "tool-write"
	PortToolRead  = "tool-read"
)

func init() {
	frame.RegisterPayload(frame.TypeLLMContext, schema.LLMContext{})
	frame.RegisterPayload(frame.TypeLLMContextMessagesAppend, MessagesAppendPayload{})
	frame.RegisterPayload(frame.TypeScenarioContextUpdate, ScenarioUpdatePayload{})
}

// MessagesAppendPayload is the §3 payload for llm-context-messages-append.
type MessagesAppendPayload struct {
	Messages []schema.Message
	RunLLM   bool
	ToolCall bool
}

// ScenarioUpdatePayload is the §3/§4.5 payload for scenario-context-update.
type ScenarioUpdatePayload struct {
	Tools    []schema.ToolDefinition
	Messages []schema.Message
	RunLLM   bool
}

type aggState struct {
	aggregation string
	aggregating bool
	seenStart   bool
	seenEnd     bool
	seenInterim bool
	ctx         schema.LLMContext

	toolReq chan tool.Request
	toolRes chan tool.DispatchOutcome
}

// Aggregator is the user-turn aggregator Processor.
type Aggregator struct{}

func New() *Aggregator { return &Aggregator{} }

func (a *Aggregator) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn, PortToolRead},
		Outs: []string{proc.PortOut, proc.PortSysOut, PortToolWrite},
		Params: []proc.ParamSpec{
			{Name: "initial-context", Required: false},
			{Name: "catalogue", Required: false},
			{Name: "tool-concurrency", Required: false, Default: 4},
		},
		Workload: "aggregator",
	}
}

func (a *Aggregator) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	initial, _ := params["initial-context"].(schema.LLMContext)

	cat, _ := params["catalogue"].(tool.Catalogue)
	concurrency, _ := params["tool-concurrency"].(int)
	if concurrency <= 0 {
		concurrency = 4
	}

	st := &aggState{
		ctx:     initial,
		toolReq: make(chan tool.Request, 16),
		toolRes: make(chan tool.DispatchOutcome, 16),
	}

	if cat != nil {
		d := &tool.Dispatcher{Cat: cat, In: st.toolReq, Out: st.toolRes, Concurrency: int64(concurrency)}
		go d.Run(context.Background())
		go func() {
			for outcome := range st.toolRes {
				injected.SelfFeed(PortToolRead, frame.New(frame.TypeLLMToolCallResult, outcome))
			}
		}()
	}

	return proc.State{"s": st}, nil
}

func (a *Aggregator) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	if phase == proc.PhaseStop {
		st := state["s"].(*aggState)
		close(st.toolReq)
	}
	return state, nil
}

func (a *Aggregator) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*aggState)

	switch f.Type {
	case frame.TypeUserSpeechStart:
		// Do not clear aggregation: some upstream VADs emit repeated starts.
		st.aggregating = true
		st.seenStart = true
		st.seenEnd = false
		st.seenInterim = false
		return state, nil

	case frame.TypeUserSpeechStop:
		st.seenEnd = true
		return state, a.maybeFinalize(st)

	case frame.TypeTranscriptionInterim:
		st.seenInterim = true
		return state, nil

	case frame.TypeTranscription:
		text, _ := f.Data.(string)
		if st.aggregation == "" {
			st.aggregation = text
		} else {
			st.aggregation = st.aggregation + " " + text
		}
		st.seenInterim = false
		return state, a.maybeFinalize(st)

	case frame.TypeLLMToolCallResult:
		return state, a.handleToolResult(st, f)

	case frame.TypeLLMContextMessagesAppend:
		return state, a.handleMessagesAppend(st, f)

	case frame.TypeScenarioContextUpdate:
		return state, a.handleScenarioUpdate(st, f)

	case frame.TypeSpeakFrame:
		text, _ := f.Data.(string)
		st.ctx = schema.ConcatMessage(st.ctx, schema.RoleAI, text)
		return state, nil

	case frame.TypeSystemConfigChange:
		return state, a.handleConfigChange(st, f)

	default:
		return state, nil
	}
}

func (a *Aggregator) maybeFinalize(st *aggState) []proc.Emitted {
	trimmed := strings.TrimSpace(st.aggregation)
	if !st.seenEnd || st.seenInterim || trimmed == "" {
		return nil
	}
	st.ctx = schema.ConcatMessage(st.ctx, schema.RoleHuman, trimmed)
	st.aggregation = ""
	st.aggregating = false
	st.seenStart = false
	st.seenEnd = false
	st.seenInterim = false
	return []proc.Emitted{proc.Out(frame.New(frame.TypeLLMContext, st.ctx.Clone()))}
}

func (a *Aggregator) handleToolResult(st *aggState, f frame.Frame) []proc.Emitted {
	outcome, ok := f.Data.(tool.DispatchOutcome)
	if !ok {
		return nil
	}
	st.ctx.Messages = append(st.ctx.Messages, schema.NewToolMessage(outcome.Request.ID, outcome.Result.Text()))

	var emitted []proc.Emitted
	if outcome.RunLLM {
		emitted = append(emitted, proc.Out(frame.New(frame.TypeLLMContext, st.ctx.Clone())))
	}
	if outcome.OnUpdate != nil {
		outcome.OnUpdate()
	}
	return emitted
}

func (a *Aggregator) handleMessagesAppend(st *aggState, f frame.Frame) []proc.Emitted {
	payload, ok := f.Data.(MessagesAppendPayload)
	if !ok {
		return nil
	}
	st.ctx.Messages = append(st.ctx.Messages, payload.Messages...)

	var emitted []proc.Emitted
	if payload.RunLLM {
		emitted = append(emitted, proc.Out(frame.New(frame.TypeLLMContext, st.ctx.Clone())))
	}
	if payload.ToolCall {
		if call := lastToolCall(payload.Messages); call != nil {
			select {
			case st.toolReq <- tool.Request{Call: *call}:
			default:
			}
		}
	}
	return emitted
}

func (a *Aggregator) handleScenarioUpdate(st *aggState, f frame.Frame) []proc.Emitted {
	payload, ok := f.Data.(ScenarioUpdatePayload)
	if !ok {
		return nil
	}
	st.ctx.Tools = payload.Tools
	st.ctx.Messages = append(st.ctx.Messages, payload.Messages...)

	if payload.RunLLM {
		return []proc.Emitted{proc.Out(frame.New(frame.TypeLLMContext, st.ctx.Clone()))}
	}
	return nil
}

func (a *Aggregator) handleConfigChange(st *aggState, f frame.Frame) []proc.Emitted {
	cfg, ok := f.Data.(map[string]any)
	if !ok {
		return nil
	}
	if tools, ok := cfg["llm/tools"].([]schema.ToolDefinition); ok {
		st.ctx.Tools = tools
	}
	return nil
}

func lastToolCall(messages []schema.Message) *schema.ToolCall {
	for i := len(messages) - 1; i >= 0; i-- {
		if ai, ok := messages[i].(*schema.AIMessage); ok && len(ai.ToolCalls) > 0 {
			return &ai.ToolCalls[0]
		}
	}
	return nil
}
