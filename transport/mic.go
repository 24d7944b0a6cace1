//go:build mic

package transport

import (
	"context"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/lookatitude/beluga-ai/frame"
)

// Mic is a real local microphone/speaker collaborator (spec §1 calls
// device bindings out of scope for the core; this is the optional,
// concrete transport deployments wire in behind the "mic" build tag rather
// than a stub interface). It captures duplex PCM16 frames and exposes
// them as audio-input-raw, while Write plays audio-output-raw frames back
// out the default output device.
type Mic struct {
	sampleRate int

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu   sync.Mutex
	out  chan frame.Frame
	play chan []byte
}

// NewMic opens the default duplex audio device at sampleRate (PCM16,
// mono) and returns a Mic streaming captured audio on its output channel.
func NewMic(sampleRate int) (*Mic, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	m := &Mic{
		sampleRate: sampleRate,
		ctx:        mctx,
		out:        make(chan frame.Frame, 32),
		play:       make(chan []byte, 32),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)

	onRecvFrames := func(pOutputSample, pInputSample []byte, frameCount uint32) {
		captured := make([]byte, len(pInputSample))
		copy(captured, pInputSample)
		select {
		case m.out <- frame.New(frame.TypeAudioInputRaw, AudioPayload{Audio: captured, SampleRate: sampleRate}):
		default:
		}

		select {
		case chunk := <-m.play:
			n := copy(pOutputSample, chunk)
			if n < len(pOutputSample) {
				clear(pOutputSample[n:])
			}
		default:
			clear(pOutputSample)
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		mctx.Uninit()
		return nil, err
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, err
	}

	return m, nil
}

// Frames returns the channel of captured audio-input-raw frames.
func (m *Mic) Frames() <-chan frame.Frame { return m.out }

// Write enqueues PCM16 bytes for playback on the output device.
func (m *Mic) Write(ctx context.Context, pcm []byte) error {
	select {
	case m.play <- pcm:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops capture/playback and releases the device and context.
func (m *Mic) Close() error {
	m.device.Uninit()
	m.ctx.Uninit()
	close(m.out)
	return nil
}
