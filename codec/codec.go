// Package codec defines the frame serializer contract (spec §6): the
// boundary between simulflow's internal Frame representation and a
// transport's wire format. Concrete codecs (codec/twilio) implement it.
package codec

import "github.com/lookatitude/beluga-ai/frame"

// Serializer converts an outbound Frame to wire bytes, or nil if the frame
// type has nothing to send over this transport.
type Serializer interface {
	Serialize(f frame.Frame) ([]byte, error)
}

// Deserializer converts inbound wire bytes to a Frame, or the zero Frame
// (check with frame.IsFrame) if the wire message carries no frame-worthy
// payload.
type Deserializer interface {
	Deserialize(raw []byte) (frame.Frame, error)
}

// Codec is the full serialize/deserialize pair a transport installs, named
// FrameCodec in some of the spec's source material — one interface with two
// methods (spec §9's resolution of the FrameCodec/FrameSerializer/
// FrameDeserializer naming ambiguity).
type Codec interface {
	Serializer
	Deserializer
}
