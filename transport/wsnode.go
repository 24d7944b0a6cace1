package transport

import (
	"context"

	"github.com/lookatitude/beluga-ai/codec"
	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/o11y"
	"github.com/lookatitude/beluga-ai/proc"
)

// WSGateway is the network-transport Processor (spec §6's serializer
// contract put to work): it owns a single WSConn for the lifetime of one
// call and bridges it to the dataflow graph, decoding inbound wire messages
// into Frames with a codec.Deserializer and encoding outbound Frames back to
// wire bytes with a codec.Serializer. One instance serves one connection;
// a server adapter (e.g. a Twilio Media Streams webhook) constructs a fresh
// Graph per accepted connection.
type WSGateway struct{}

func NewWSGateway() *WSGateway { return &WSGateway{} }

type wsGatewayState struct {
	conn  WSConn
	codec codec.Codec
}

func (w *WSGateway) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn},
		Outs: []string{proc.PortOut, proc.PortSysOut},
		Params: []proc.ParamSpec{
			{Name: "conn", Required: true},
			{Name: "codec", Required: true},
		},
		Workload: "ws-gateway",
	}
}

func (w *WSGateway) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	conn, _ := params["conn"].(WSConn)
	c, _ := params["codec"].(codec.Codec)
	st := &wsGatewayState{conn: conn, codec: c}

	if conn != nil && injected.Send != nil {
		go w.readLoop(injected.Done, st, injected.Send)
	}
	return proc.State{"s": st}, nil
}

func (w *WSGateway) readLoop(done <-chan struct{}, st *wsGatewayState, send func(port string, f frame.Frame)) {
	for {
		select {
		case <-done:
			return
		default:
		}
		_, raw, err := st.conn.ReadMessage()
		if err != nil {
			return
		}
		f, err := st.codec.Deserialize(raw)
		if err != nil || !frame.IsFrame(f) {
			continue
		}
		port := proc.PortOut
		if f.Type == frame.TypeSystemConfigChange {
			port = proc.PortSysOut
		}
		send(port, f)
	}
}

func (w *WSGateway) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	if phase == proc.PhaseStop {
		st := state["s"].(*wsGatewayState)
		if st.conn != nil {
			_ = st.conn.Close()
		}
	}
	return state, nil
}

func (w *WSGateway) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*wsGatewayState)
	if st.conn == nil || st.codec == nil {
		return state, nil
	}

	raw, err := st.codec.Serialize(f)
	if err != nil {
		o11y.FromContext(ctx).Warn(ctx, "ws-gateway: serialize failed, dropping frame", "error", err, "type", f.Type)
		return state, nil
	}
	if raw == nil {
		return state, nil
	}
	if err := st.conn.WriteMessage(1, raw); err != nil {
		o11y.FromContext(ctx).Warn(ctx, "ws-gateway: write failed", "error", err)
	}
	return state, nil
}
