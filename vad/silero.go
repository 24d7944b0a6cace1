package vad

import (
	"encoding/binary"
	"math"
	"time"
)

// resetStatesInterval mirrors Silero's own guidance: reset internal model
// state periodically to bound memory growth across a long session.
const resetStatesInterval = 5 * time.Second

// Analyzer is the pluggable inference boundary a Silero-style (or any
// other) VAD model implements: given exactly one analysis window of PCM16
// samples at sampleRate, return a speech confidence in [0, 1]. Implementors
// own their own internal model state; Reset clears it.
type Analyzer interface {
	Infer(samples []int16, sampleRate int) (confidence float32, err error)
	Reset()
}

// FramesRequired returns the number of PCM16 samples Silero expects per
// analysis window for sampleRate (512 @ 16kHz, 256 @ 8kHz).
func FramesRequired(sampleRate int) int {
	if sampleRate == 8000 {
		return 256
	}
	return 512
}

// Wrapper accumulates raw PCM16 byte chunks of arbitrary size into
// fixed-size analysis windows, runs them through an Analyzer, and feeds the
// result into the hysteresis State machine (spec §4.3's Silero-style
// wrapper paragraph).
type Wrapper struct {
	analyzer    Analyzer
	sampleRate  int
	minConf     float32
	params      Params
	state       State
	buf         []byte
	lastReset   time.Time
	now         func() time.Time
}

// NewWrapper builds a Wrapper. minConfidence is the threshold above which
// an analysis window counts as speaking for the hysteresis machine.
func NewWrapper(analyzer Analyzer, sampleRate int, minConfidence float32, params Params) *Wrapper {
	return &Wrapper{
		analyzer:   analyzer,
		sampleRate: sampleRate,
		minConf:    minConfidence,
		params:     params,
		state:      NewState(),
		lastReset:  time.Time{},
		now:        time.Now,
	}
}

// Feed appends raw little-endian PCM16 bytes and runs the hysteresis
// machine once per complete analysis window found in the accumulated
// buffer, returning every Event produced in arrival order. Leftover bytes
// shorter than one window are retained for the next call.
func (w *Wrapper) Feed(pcm []byte) ([]Event, error) {
	w.buf = append(w.buf, pcm...)

	windowBytes := FramesRequired(w.sampleRate) * 2
	var events []Event

	for len(w.buf) >= windowBytes {
		chunk := w.buf[:windowBytes]
		w.buf = w.buf[windowBytes:]

		if w.lastReset.IsZero() {
			w.lastReset = w.now()
		} else if w.now().Sub(w.lastReset) >= resetStatesInterval {
			w.analyzer.Reset()
			w.lastReset = w.now()
		}

		samples := bytesToInt16(chunk)
		confidence, err := w.analyzer.Infer(samples, w.sampleRate)
		if err != nil {
			return events, err
		}

		var ev Event
		w.state, ev = Step(w.state, w.params, confidence >= w.minConf)
		if ev != EventNone {
			events = append(events, ev)
		}
	}
	return events, nil
}

func bytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return out
}

// EnergyAnalyzer is a simple, dependency-free Analyzer based on RMS energy,
// used as the default when no trained model is wired in (spec's domain
// stack explicitly leaves ONNX/whisper.cpp model inference unwired; any
// real deployment supplies its own Analyzer over cgo or a remote inference
// call and only needs to satisfy this two-method interface).
type EnergyAnalyzer struct {
	// Sensitivity scales the normalized RMS before clamping to [0, 1].
	// Higher values make the analyzer report higher confidence for the
	// same input energy.
	Sensitivity float32
}

func (a *EnergyAnalyzer) Infer(samples []int16, sampleRate int) (float32, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	var sumSq float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sumSq += v * v
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))

	sensitivity := a.Sensitivity
	if sensitivity <= 0 {
		sensitivity = 8.0
	}
	confidence := float32(rms) * sensitivity
	if confidence > 1 {
		confidence = 1
	}
	return confidence, nil
}

func (a *EnergyAnalyzer) Reset() {}
