package pacer

import (
	"context"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/transport"
)

// ChunkSplitter divides audio-output-raw frames into byte-exact
// chunk-size pieces ahead of the pacer, so the pacer's sending-interval
// throttles fixed-size chunks (spec §4.9). The last piece of each input
// frame may be shorter than a chunk.
type ChunkSplitter struct{}

func NewChunkSplitter() *ChunkSplitter { return &ChunkSplitter{} }

type splitState struct {
	chunkBytes int
	buf        []byte
	sampleRate int
}

func (s *ChunkSplitter) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn},
		Outs: []string{proc.PortOut, proc.PortSysOut},
		Params: []proc.ParamSpec{
			{Name: "sample-rate", Required: false, Default: 16000},
			{Name: "sample-size-bits", Required: false, Default: 16},
			{Name: "channels", Required: false, Default: 1},
			{Name: "chunk-duration-ms", Required: false, Default: 20},
		},
		Workload: "pacer-splitter",
	}
}

func (s *ChunkSplitter) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	sampleRate := intOr(params["sample-rate"], 16000)
	sampleBits := intOr(params["sample-size-bits"], 16)
	channels := intOr(params["channels"], 1)
	chunkMS := intOr(params["chunk-duration-ms"], 20)

	chunkBytes := sampleRate * (sampleBits / 8) * channels * chunkMS / 1000
	if chunkBytes <= 0 {
		chunkBytes = 320
	}

	return proc.State{"s": &splitState{chunkBytes: chunkBytes, sampleRate: sampleRate}}, nil
}

func (s *ChunkSplitter) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (s *ChunkSplitter) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	if port == proc.PortSysIn {
		return state, nil
	}
	if f.Type != frame.TypeAudioOutputRaw {
		return state, nil
	}
	payload, ok := f.Data.(transport.AudioPayload)
	if !ok {
		return state, nil
	}

	st := state["s"].(*splitState)
	rate := payload.SampleRate
	if rate == 0 {
		rate = st.sampleRate
	}
	st.buf = append(st.buf, payload.Audio...)

	var emitted []proc.Emitted
	for len(st.buf) > 0 {
		n := st.chunkBytes
		if len(st.buf) < n {
			n = len(st.buf)
		}
		chunk := make([]byte, n)
		copy(chunk, st.buf[:n])
		st.buf = st.buf[n:]
		emitted = append(emitted, proc.Out(frame.New(frame.TypeAudioOutputRaw, transport.AudioPayload{Audio: chunk, SampleRate: rate})))
	}

	return state, emitted
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case int:
		if n > 0 {
			return n
		}
	case float64:
		if n > 0 {
			return int(n)
		}
	}
	return def
}
