package main

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
)

// stdinInput treats each terminal line as a complete utterance: user-speech-
// start, the transcription, then user-speech-stop, matching the "S T E"
// pattern from spec §4.5's utterance table.
type stdinInput struct{}

func newStdinInput() *stdinInput { return &stdinInput{} }

func (s *stdinInput) Describe() proc.Descriptor {
	return proc.Descriptor{Outs: []string{proc.PortOut, proc.PortSysOut}, Workload: "stdin"}
}

func (s *stdinInput) Init(params map[string]any, injected proc.Injected) (proc.State, error) {
	if injected.SelfFeed != nil {
		go s.readLoop(injected.Done, injected.Send)
	}
	return proc.State{}, nil
}

func (s *stdinInput) readLoop(done <-chan struct{}, send func(port string, f frame.Frame)) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case <-done:
			return
		default:
		}
		send(proc.PortOut, frame.New(frame.TypeUserSpeechStart, nil))
		send(proc.PortOut, frame.New(frame.TypeTranscription, line))
		send(proc.PortOut, frame.New(frame.TypeUserSpeechStop, nil))
	}
}

func (s *stdinInput) Transition(ctx context.Context, state proc.State, phase proc.Phase) (proc.State, error) {
	return state, nil
}

func (s *stdinInput) Transform(ctx context.Context, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	return state, nil
}
