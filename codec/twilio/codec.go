// Package twilio implements the built-in Twilio Media Streams codec (spec
// §6): mu-law/PCM16 conversion plus the {event:"media"/"start"/"stop"} JSON
// envelope Twilio's WebSocket transport speaks.
package twilio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/transport"
)

const (
	wireSampleRate = 8000
	pcmSampleRate  = 16000
)

type wireMessage struct {
	Event     string     `json:"event"`
	StreamSid string     `json:"streamSid,omitempty"`
	Media     *wireMedia `json:"media,omitempty"`
	Start     *wireStart `json:"start,omitempty"`
}

type wireMedia struct {
	Payload string `json:"payload"`
}

type wireStart struct {
	StreamSid string `json:"streamSid"`
	CallSid   string `json:"callSid"`
}

// Codec is the Twilio Media Streams codec.Codec. ConvertAudio, when true,
// resamples and mu-law-encodes outbound audio to Twilio's 8kHz wire format;
// when false, Serialize assumes the caller already produced 8kHz mu-law
// bytes.
type Codec struct {
	StreamSid    string
	CallSid      string
	ConvertAudio bool
}

// New returns a Twilio Codec. streamSid/callSid may be empty and are
// populated by the first inbound "start" event.
func New(streamSid, callSid string) *Codec {
	return &Codec{StreamSid: streamSid, CallSid: callSid, ConvertAudio: true}
}

// Serialize implements codec.Serializer for audio-output-raw frames,
// returning nil for every other frame type (spec §6).
func (c *Codec) Serialize(f frame.Frame) ([]byte, error) {
	if f.Type != frame.TypeAudioOutputRaw {
		return nil, nil
	}
	payload, ok := f.Data.(transport.AudioPayload)
	if !ok {
		return nil, fmt.Errorf("twilio: audio-output-raw carried unexpected payload type %T", f.Data)
	}

	mulaw := payload.Audio
	if c.ConvertAudio {
		mulaw = PCM16ToMulaw(Resample(payload.Audio, payload.SampleRate, wireSampleRate))
	}

	msg := wireMessage{
		Event:     "media",
		StreamSid: c.StreamSid,
		Media:     &wireMedia{Payload: base64.StdEncoding.EncodeToString(mulaw)},
	}
	return json.Marshal(msg)
}

// Deserialize implements codec.Deserializer, turning Twilio's "media" and
// "start" events into audio-input-raw and system-config-change frames
// respectively (spec §6). Any other event yields the zero Frame.
func (c *Codec) Deserialize(raw []byte) (frame.Frame, error) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return frame.Frame{}, fmt.Errorf("twilio: decode wire message: %w", err)
	}

	switch msg.Event {
	case "media":
		if msg.Media == nil {
			return frame.Frame{}, fmt.Errorf("twilio: media event missing media payload")
		}
		mulaw, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
		if err != nil {
			return frame.Frame{}, fmt.Errorf("twilio: decode media payload: %w", err)
		}
		pcm := Resample(MulawToPCM16(mulaw), wireSampleRate, pcmSampleRate)
		return frame.New(frame.TypeAudioInputRaw, transport.AudioPayload{Audio: pcm, SampleRate: pcmSampleRate}), nil

	case "start":
		if msg.Start != nil {
			c.StreamSid = msg.Start.StreamSid
			c.CallSid = msg.Start.CallSid
		}
		return frame.New(frame.TypeSystemConfigChange, map[string]any{
			"twilio/stream-sid":    c.StreamSid,
			"twilio/call-sid":      c.CallSid,
			"transport/serializer": c,
		}), nil

	default:
		return frame.Frame{}, nil
	}
}
