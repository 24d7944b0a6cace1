package llm

import (
	"context"
	"time"

	"github.com/lookatitude/beluga-ai/command"
	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/internal/llmwire"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/schema"
)

// Service is the proc.Processor collaborator that turns an llm-context
// frame into a streamed model call (spec §6's LLM wire contract). With a
// "url" param it issues an sse-request command carrying the
// OpenAI-compatible request body over the command layer; with a
// "chat-model" param (a ChatModel, e.g. for tests or an in-process
// provider) it calls Stream directly instead. Either path turns its result
// into llm-text-chunk/llm-tool-call-chunk frames bracketed by
// llm-full-response-start/end.
type Service struct{}

func NewService() *Service { return &Service{} }

type serviceState struct {
	model     string
	url       string
	headers   map[string]string
	timeout   time.Duration
	executor  *command.Executor
	reads     chan command.Chunk
	started   bool
	chatModel ChatModel
	genOpts   []GenerateOption
	selfFeed  func(port string, f frame.Frame)
	done      <-chan struct{}
}

func (s *Service) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn},
		Outs: []string{proc.PortOut, proc.PortSysOut},
		Params: []proc.ParamSpec{
			{Name: "model", Required: true},
			{Name: "url", Required: false},
			{Name: "headers", Required: false},
			{Name: "timeout", Required: false, Default: 60 * time.Second},
			{Name: "chat-model", Required: false},
			{Name: "generate-options", Required: false},
		},
		Workload: "llm-service",
	}
}

func (s *Service) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	model, _ := params["model"].(string)
	url, _ := params["url"].(string)
	headers, _ := params["headers"].(map[string]string)
	timeout := 60 * time.Second
	if v, ok := params["timeout"].(time.Duration); ok && v > 0 {
		timeout = v
	}
	chatModel, _ := params["chat-model"].(ChatModel)
	genOpts, _ := params["generate-options"].([]GenerateOption)

	reads := make(chan command.Chunk, 16)
	st := &serviceState{
		model:     model,
		url:       url,
		headers:   headers,
		timeout:   timeout,
		executor:  command.NewExecutor(reads),
		reads:     reads,
		chatModel: chatModel,
		genOpts:   genOpts,
		selfFeed:  injected.SelfFeed,
		done:      injected.Done,
	}

	if injected.SelfFeed != nil {
		go runReader(injected.Done, reads, injected.SelfFeed)
	}

	return proc.State{"s": st}, nil
}

func (s *Service) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (s *Service) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	if port == proc.PortSysIn {
		return state, nil
	}
	if f.Type != frame.TypeLLMContext {
		return state, nil
	}
	st := state["s"].(*serviceState)
	llmCtx, ok := f.Data.(schema.LLMContext)
	if !ok {
		return state, nil
	}

	if st.chatModel != nil {
		go streamChatModel(ctx, st, llmCtx)
		return state, nil
	}

	body, err := llmwire.BuildRequest(st.model, llmCtx)
	if err != nil {
		return state, []proc.Emitted{proc.OutPort(proc.PortSysOut, frame.New(frame.TypeSystemError, err.Error()))}
	}

	cmd := command.Command{
		Kind: command.KindSSERequest,
		ID:   f.ID,
		Data: command.SSERequestData{
			URL:     st.url,
			Method:  "POST",
			Headers: st.headers,
			Body:    body,
			Timeout: st.timeout,
		},
	}
	go st.executor.Run(ctx, cmd)

	return state, nil
}

// streamChatModel drives an in-process ChatModel directly instead of the
// command/HTTP path, for a model client that is a live Go value (tests, an
// embedded provider) rather than a network collaborator.
func streamChatModel(ctx context.Context, st *serviceState, llmCtx schema.LLMContext) {
	model := st.chatModel
	if len(llmCtx.Tools) > 0 {
		model = model.BindTools(llmCtx.Tools)
	}

	sent := false
	for chunk, err := range model.Stream(ctx, llmCtx.Messages, st.genOpts...) {
		select {
		case <-st.done:
			return
		default:
		}
		if err != nil {
			st.selfFeed(proc.PortSysOut, frame.New(frame.TypeSystemError, err.Error()))
			return
		}
		if !sent {
			sent = true
			st.selfFeed(proc.PortOut, frame.New(frame.TypeLLMFullResponseStart, nil))
		}
		if chunk.Delta != "" {
			st.selfFeed(proc.PortOut, frame.New(frame.TypeLLMTextChunk, chunk.Delta))
		}
		for _, tc := range chunk.ToolCalls {
			st.selfFeed(proc.PortOut, frame.New(frame.TypeLLMToolCallChunk, tc))
		}
	}
	if sent {
		st.selfFeed(proc.PortOut, frame.New(frame.TypeLLMFullResponseEnd, nil))
	}
}

func runReader(done <-chan struct{}, reads <-chan command.Chunk, selfFeed func(port string, f frame.Frame)) {
	started := map[string]bool{}
	for {
		select {
		case chunk, ok := <-reads:
			if !ok {
				return
			}
			handleChunk(started, chunk, selfFeed)
		case <-done:
			return
		}
	}
}

func handleChunk(started map[string]bool, chunk command.Chunk, selfFeed func(port string, f frame.Frame)) {
	if chunk.Err != nil {
		selfFeed(proc.PortSysOut, frame.New(frame.TypeSystemError, chunk.Err.Error()))
		delete(started, chunk.RequestID)
		return
	}
	if chunk.Done {
		if started[chunk.RequestID] {
			selfFeed(proc.PortOut, frame.New(frame.TypeLLMFullResponseEnd, nil))
		}
		delete(started, chunk.RequestID)
		return
	}

	decoded, ok, err := llmwire.DecodeLine(chunk.Data)
	if err != nil || !ok {
		return
	}

	if !started[chunk.RequestID] {
		started[chunk.RequestID] = true
		selfFeed(proc.PortOut, frame.New(frame.TypeLLMFullResponseStart, nil))
	}

	if decoded.Delta != "" {
		selfFeed(proc.PortOut, frame.New(frame.TypeLLMTextChunk, decoded.Delta))
	}
	for _, tc := range decoded.ToolCalls {
		selfFeed(proc.PortOut, frame.New(frame.TypeLLMToolCallChunk, tc))
	}
}
