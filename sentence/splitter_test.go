package sentence

import (
	"context"
	"testing"

	"github.com/lookatitude/beluga-ai/frame"
	"github.com/lookatitude/beluga-ai/proc"
)

func newSplitter(t *testing.T) (*Splitter, proc.State) {
	t.Helper()
	s := New()
	state, err := s.Init(nil, proc.Injected{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return s, state
}

func feed(t *testing.T, s *Splitter, state proc.State, port string, f frame.Frame) (proc.State, []proc.Emitted) {
	t.Helper()
	return s.Transform(context.Background(), state, port, f)
}

// Scenario 6: "The U.S.A. is" and " a great" produce no speak-frame (the
// abbreviation and the incomplete sentence don't count as boundaries);
// " country!" completes the sentence and empties the buffer.
func TestSplitter_AbbreviationNotTreatedAsBoundary(t *testing.T) {
	s, state := newSplitter(t)

	state, emitted := feed(t, s, state, proc.PortIn, frame.New(frame.TypeLLMTextChunk, "The U.S.A. is"))
	if len(emitted) != 0 {
		t.Fatalf("expected no speak-frame after the first chunk, got %+v", emitted)
	}

	state, emitted = feed(t, s, state, proc.PortIn, frame.New(frame.TypeLLMTextChunk, " a great"))
	if len(emitted) != 0 {
		t.Fatalf("expected no speak-frame after the second chunk, got %+v", emitted)
	}

	state, emitted = feed(t, s, state, proc.PortIn, frame.New(frame.TypeLLMTextChunk, " country!"))
	if len(emitted) != 1 {
		t.Fatalf("expected exactly 1 speak-frame after the closing chunk, got %d: %+v", len(emitted), emitted)
	}
	if emitted[0].Frame.Type != frame.TypeSpeakFrame {
		t.Fatalf("expected a speak-frame, got %v", emitted[0].Frame.Type)
	}
	want := "The U.S.A. is a great country!"
	if got := emitted[0].Frame.Data.(string); got != want {
		t.Errorf("sentence = %q, want %q", got, want)
	}

	st := state["s"].(*splitState)
	if st.buffer != "" {
		t.Errorf("buffer = %q, want empty after emitting the sentence", st.buffer)
	}
}

func TestSplitter_MultipleSentencesInOneChunk(t *testing.T) {
	s, state := newSplitter(t)

	_, emitted := feed(t, s, state, proc.PortIn, frame.New(frame.TypeLLMTextChunk, "Hi! How are you? Fine."))
	if len(emitted) != 3 {
		t.Fatalf("expected 3 speak-frames, got %d: %+v", len(emitted), emitted)
	}
	want := []string{"Hi!", " How are you?", " Fine."}
	for i, w := range want {
		if got := emitted[i].Frame.Data.(string); got != w {
			t.Errorf("sentence[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestSplitter_ControlInterruptDropsBuffer(t *testing.T) {
	s, state := newSplitter(t)

	state, _ = feed(t, s, state, proc.PortIn, frame.New(frame.TypeLLMTextChunk, "partial sentence"))
	state, _ = feed(t, s, state, proc.PortSysIn, frame.New(frame.TypeControlInterruptStart, nil))

	st := state["s"].(*splitState)
	if st.buffer != "" {
		t.Fatalf("buffer = %q, want empty after interrupt", st.buffer)
	}

	state, emitted := feed(t, s, state, proc.PortIn, frame.New(frame.TypeLLMTextChunk, " more text."))
	if len(emitted) != 0 {
		t.Fatalf("expected chunks to be ignored while interrupted, got %+v", emitted)
	}

	state, _ = feed(t, s, state, proc.PortSysIn, frame.New(frame.TypeControlInterruptStop, nil))
	_, emitted = feed(t, s, state, proc.PortIn, frame.New(frame.TypeLLMTextChunk, "New sentence."))
	if len(emitted) != 1 {
		t.Fatalf("expected splitting to resume after interrupt-stop, got %+v", emitted)
	}
}
