// Command simulflow-twilio runs a Twilio Media Streams webhook server: each
// inbound call's WebSocket is upgraded and wired into its own voice-agent
// Graph (transport.WSGateway + VAD + aggregator + assistant + mute filter +
// activity monitor + sentence + llm.Service + pacer), using codec/twilio to
// speak Twilio's mu-law wire format (spec §6) and config.PipelineConfig to
// parametrize VAD/pacer/activity/mute/LLM settings (spec SPEC_FULL §A.3).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lookatitude/beluga-ai/activity"
	"github.com/lookatitude/beluga-ai/aggregator"
	"github.com/lookatitude/beluga-ai/assistant"
	"github.com/lookatitude/beluga-ai/codec/twilio"
	"github.com/lookatitude/beluga-ai/config"
	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/internal/httputil"
	"github.com/lookatitude/beluga-ai/llm"
	"github.com/lookatitude/beluga-ai/mute"
	"github.com/lookatitude/beluga-ai/o11y"
	"github.com/lookatitude/beluga-ai/pacer"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/sentence"
	"github.com/lookatitude/beluga-ai/transport"
)

func main() {
	_ = godotenv.Load()

	if err := config.LoadConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "config: continuing with defaults:", err)
	}
	pipelineCfg, err := config.LoadPipelineConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config: continuing with pipeline defaults:", err)
	}

	logger := o11y.NewLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = o11y.WithLogger(ctx, logger)

	shutdown, err := o11y.Bootstrap(ctx, "simulflow-twilio")
	if err != nil {
		logger.Warn(ctx, "observability bootstrap failed, continuing without it", "err", err)
	} else {
		defer shutdown(context.Background())
	}

	addr := os.Getenv("SIMULFLOW_TWILIO_ADDR")
	if addr == "" {
		addr = ":8088"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/media-stream", func(w http.ResponseWriter, r *http.Request) {
		callCtx := o11y.WithLogger(r.Context(), logger)
		err := transport.Serve(callCtx, w, r, func(callCtx context.Context, conn transport.WSConn) {
			runCall(callCtx, conn, pipelineCfg)
		})
		if err != nil {
			logger.Error(callCtx, "media-stream upgrade failed", "err", err)
		}
	})

	var lifecycle httputil.ServerLifecycle
	logger.Info(ctx, "twilio webhook server listening", "addr", addr)
	if err := lifecycle.Serve(ctx, addr, mux, 0, 0, 0, "simulflow-twilio"); err != nil && ctx.Err() == nil {
		logger.Error(ctx, "server exited", "err", err)
		os.Exit(1)
	}
}

// runCall builds and runs one per-call Graph, parametrized by cfg (spec
// SPEC_FULL §A.3's pipeline config: VAD, pacer, activity-monitor, mute and
// LLM settings). It blocks until the call's WebSocket closes or ctx is
// cancelled.
func runCall(ctx context.Context, conn transport.WSConn, cfg config.PipelineConfig) {
	log := o11y.FromContext(ctx)
	codec := twilio.New("", "")

	model := cfg.LLM.Model
	if model == "" {
		model = os.Getenv("SIMULFLOW_LLM_MODEL")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	apiURL := cfg.LLM.URL
	if apiURL == "" {
		apiURL = os.Getenv("SIMULFLOW_LLM_URL")
	}
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/chat/completions"
	}
	headers := map[string]string{}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		headers["Authorization"] = "Bearer " + key
	}

	muteStrategies := cfg.Mute.Strategies
	if len(muteStrategies) == 0 {
		muteStrategies = []string{string(mute.StrategyBotSpeech), string(mute.StrategyToolCall)}
	}

	openLine := func() (pacer.Line, error) {
		return wsLine{conn: conn}, nil
	}

	// Speech-to-text and text-to-speech are external collaborator boundaries
	// the spec leaves unspecified (unlike the LLM wire contract in §6, which
	// it does specify) - a real deployment plugs a transcription service in
	// ahead of the aggregator and a synthesis service behind the sentence
	// splitter. Absent those, this entrypoint wires two honest halves: an
	// audio round trip through VAD and the pacer (proving the barge-in and
	// real-time-pacing machinery against live Twilio audio), and a text/LLM
	// chat path whose speak-frame output is logged rather than synthesized.
	graph := proc.Graph{
		BufferSize:     64,
		SchemaChecking: cfg.SchemaChecking,
		Nodes: []proc.Node{
			{Name: "gateway", Proc: transport.NewWSGateway(), Params: map[string]any{"conn": conn, "codec": codec}},
			{Name: "input", Proc: transport.NewInput(), Params: map[string]any{"sample-rate": cfg.VAD.SampleRate, "supports-interruption": true}},
			{Name: "aggregator", Proc: aggregator.New()},
			{
				Name:   "llm",
				Proc:   llm.NewService(),
				Params: map[string]any{"model": model, "url": apiURL, "headers": headers, "timeout": cfg.LLM.Timeout},
				Hooks: proc.Hooks{
					OnTransition: func(ctx context.Context, node string, phase proc.Phase, err error) {
						if err != nil {
							log.Error(ctx, "llm node transition failed", "phase", phase, "err", err)
						}
					},
				},
			},
			{Name: "assistant", Proc: assistant.New()},
			{Name: "mute", Proc: mute.New(), Params: map[string]any{"strategies": muteStrategies}},
			{
				Name: "activity",
				Proc: activity.New(),
				Params: map[string]any{
					"timeout-ms":   cfg.Activity.TimeoutMS,
					"max-pings":    cfg.Activity.MaxPings,
					"ping-phrases": cfg.Activity.PingPhrases,
					"end-phrase":   cfg.Activity.EndPhrase,
				},
			},
			{Name: "sentence", Proc: sentence.New()},
			{Name: "speaklog", Proc: newSpeakLogger()},
			{Name: "echo", Proc: newAudioEcho()},
			{Name: "splitter", Proc: pacer.NewChunkSplitter()},
			{Name: "pacer", Proc: pacer.New(), Params: map[string]any{"network-sink": cfg.Pacer.NetworkSink, "open-line": openLine}},
		},
		Edges: []proc.Edge{
			{FromNode: "gateway", FromPort: proc.PortOut, ToNode: "input", ToPort: proc.PortIn},

			// Audio round trip: VAD observes caller audio, the unchanged
			// frame is echoed back out through the pacer so the call stays
			// live while an STT/TTS collaborator isn't present.
			{FromNode: "input", FromPort: proc.PortOut, ToNode: "echo", ToPort: proc.PortIn},
			{FromNode: "echo", FromPort: proc.PortOut, ToNode: "splitter", ToPort: proc.PortIn},
			{FromNode: "splitter", FromPort: proc.PortOut, ToNode: "pacer", ToPort: proc.PortIn},
			{FromNode: "pacer", FromPort: proc.PortOut, ToNode: "gateway", ToPort: proc.PortIn},

			// Text/LLM chat path, driven by whatever transcription frames a
			// collaborator injects onto input's out port alongside the audio.
			{FromNode: "input", FromPort: proc.PortOut, ToNode: "aggregator", ToPort: proc.PortIn},
			{FromNode: "aggregator", FromPort: proc.PortOut, ToNode: "llm", ToPort: proc.PortIn},
			{FromNode: "llm", FromPort: proc.PortOut, ToNode: "assistant", ToPort: proc.PortIn},
			{FromNode: "llm", FromPort: proc.PortOut, ToNode: "aggregator", ToPort: proc.PortIn},
			{FromNode: "assistant", FromPort: proc.PortOut, ToNode: "aggregator", ToPort: proc.PortIn},
			{FromNode: "assistant", FromPort: proc.PortOut, ToNode: "sentence", ToPort: proc.PortIn},
			{FromNode: "sentence", FromPort: proc.PortOut, ToNode: "speaklog", ToPort: proc.PortIn},

			// The activity monitor's own ping/goodbye phrases (emitted when
			// neither side has spoken for cfg.Activity.TimeoutMS) go straight
			// to the stand-in TTS collaborator, same as sentence's output.
			{FromNode: "activity", FromPort: proc.PortOut, ToNode: "speaklog", ToPort: proc.PortIn},
		},
	}.AutoWireSysPlane()

	rt, err := graph.Build()
	if err != nil {
		log.Error(ctx, "build call graph", "err", err)
		return
	}
	if err := rt.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error(ctx, "call graph exited", "err", err)
	}
}

// wsLine adapts a transport.WSConn to pacer.Line: the pacer already
// serializes audio-output-raw frames to wire bytes via the codec installed
// on system-config-change (spec §4.9), so writing here is a plain text
// WebSocket frame.
type wsLine struct {
	conn transport.WSConn
}

func (l wsLine) Write(data []byte) error {
	return l.conn.WriteMessage(1, data)
}

// speakLogger stands in for a text-to-speech collaborator, logging
// speak-frame text instead of synthesizing audio.
type speakLogger struct{}

func newSpeakLogger() *speakLogger { return &speakLogger{} }

func (s *speakLogger) Describe() proc.Descriptor {
	return proc.Descriptor{Ins: []string{proc.PortIn, proc.PortSysIn}, Workload: "speak-logger"}
}

func (s *speakLogger) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	return proc.State{}, nil
}

func (s *speakLogger) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (s *speakLogger) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	if f.Type == frame.TypeSpeakFrame {
		text, _ := f.Data.(string)
		o11y.FromContext(ctx).Info(ctx, "speak-frame", "text", text)
	}
	return state, nil
}

// audioEcho relabels audio-input-raw frames as audio-output-raw, standing in
// for a TTS collaborator so the call stays live without one (see runCall).
type audioEcho struct{}

func newAudioEcho() *audioEcho { return &audioEcho{} }

func (e *audioEcho) Describe() proc.Descriptor {
	return proc.Descriptor{Ins: []string{proc.PortIn, proc.PortSysIn}, Outs: []string{proc.PortOut}, Workload: "audio-echo"}
}

func (e *audioEcho) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	return proc.State{}, nil
}

func (e *audioEcho) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (e *audioEcho) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	if port != proc.PortIn || f.Type != frame.TypeAudioInputRaw {
		return state, nil
	}
	payload, ok := f.Data.(transport.AudioPayload)
	if !ok {
		return state, nil
	}
	return state, []proc.Emitted{proc.Out(frame.New(frame.TypeAudioOutputRaw, payload))}
}
