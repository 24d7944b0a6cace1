// Package frame defines the typed, timestamped message envelope that flows
// through a simulflow graph (spec §3): a fixed taxonomy of control, audio,
// transcription, LLM, user, and bot frames, the distinguished SYSTEM_FRAMES
// subset that travels the system plane, and the predicates processors use to
// route frames correctly.
package frame

import (
	"time"

	"github.com/google/uuid"
)

// Type discriminates a Frame's payload contract. The zero value is not a
// valid Type; use one of the named constants.
type Type int

const (
	typeUnset Type = iota

	// System.
	TypeSystemStart
	TypeSystemStop
	TypeSystemConfigChange

	// Audio.
	TypeAudioInputRaw
	TypeAudioOutputRaw
	TypeAudioTTSRaw

	// Transcription.
	TypeTranscription
	TypeTranscriptionInterim

	// LLM context.
	TypeLLMContext
	TypeLLMContextMessagesAppend
	TypeLLMToolsReplace
	TypeScenarioContextUpdate

	// LLM output.
	TypeLLMTextChunk
	TypeLLMToolCallChunk
	TypeLLMToolCallRequest
	TypeLLMToolCallResult
	TypeLLMFullResponseStart
	TypeLLMFullResponseEnd
	TypeLLMTextSentence

	// User.
	TypeUserSpeechStart
	TypeUserSpeechStop
	TypeVADUserSpeechStart
	TypeVADUserSpeechStop

	// Bot.
	TypeBotSpeechStart
	TypeBotSpeechStop
	TypeBotInterrupt

	// Control.
	TypeControlInterruptStart
	TypeControlInterruptStop
	TypeMuteInputStart
	TypeMuteInputStop

	// Text.
	TypeSpeakFrame
	TypeTextInput

	// Runtime.
	TypeSystemError
	TypeTimerTick

	typeSentinelEnd
)

type typeInfo struct {
	name     string
	isSystem bool
}

// table is the single type table driving Type.String, IsSystemFrame, and
// this package's per-type constructors — the spec's "macro-generated frame
// constructors" collapsed into data plus small wrapper functions, since Go
// has no compile-time code generation facility this package depends on.
var table = [typeSentinelEnd]typeInfo{
	TypeSystemStart:              {"system-start", true},
	TypeSystemStop:               {"system-stop", true},
	TypeSystemConfigChange:       {"system-config-change", true},
	TypeAudioInputRaw:            {"audio-input-raw", false},
	TypeAudioOutputRaw:           {"audio-output-raw", false},
	TypeAudioTTSRaw:              {"audio-tts-raw", false},
	TypeTranscription:            {"transcription", false},
	TypeTranscriptionInterim:     {"transcription-interim", false},
	TypeLLMContext:               {"llm-context", false},
	TypeLLMContextMessagesAppend: {"llm-context-messages-append", false},
	TypeLLMToolsReplace:          {"llm-tools-replace", false},
	TypeScenarioContextUpdate:    {"scenario-context-update", false},
	TypeLLMTextChunk:             {"llm-text-chunk", false},
	TypeLLMToolCallChunk:         {"llm-tool-call-chunk", false},
	TypeLLMToolCallRequest:       {"llm-tool-call-request", false},
	TypeLLMToolCallResult:        {"llm-tool-call-result", false},
	TypeLLMFullResponseStart:     {"llm-full-response-start", false},
	TypeLLMFullResponseEnd:       {"llm-full-response-end", false},
	TypeLLMTextSentence:          {"llm-text-sentence", false},
	TypeUserSpeechStart:          {"user-speech-start", true},
	TypeUserSpeechStop:           {"user-speech-stop", true},
	TypeVADUserSpeechStart:       {"vad-user-speech-start", true},
	TypeVADUserSpeechStop:        {"vad-user-speech-stop", true},
	TypeBotSpeechStart:           {"bot-speech-start", true},
	TypeBotSpeechStop:            {"bot-speech-stop", true},
	TypeBotInterrupt:             {"bot-interrupt", true},
	TypeControlInterruptStart:    {"control-interrupt-start", true},
	TypeControlInterruptStop:     {"control-interrupt-stop", true},
	TypeMuteInputStart:           {"mute-input-start", true},
	TypeMuteInputStop:            {"mute-input-stop", true},
	TypeSpeakFrame:               {"speak-frame", false},
	TypeTextInput:                {"text-input", false},
	TypeSystemError:              {"system-error", false},
	TypeTimerTick:                {"timer-tick", false},
}

// String returns the frame type's wire name (e.g. "user-speech-start").
func (t Type) String() string {
	if t <= typeUnset || t >= typeSentinelEnd {
		return "unknown"
	}
	return table[t].name
}

// IsSystemFrame reports whether t belongs to SYSTEM_FRAMES and must
// traverse the system plane rather than the data plane.
func (t Type) IsSystemFrame() bool {
	if t <= typeUnset || t >= typeSentinelEnd {
		return false
	}
	return table[t].isSystem
}

// Frame is an immutable, typed, timestamped message envelope.
type Frame struct {
	Type Type
	Data any
	TS   time.Time
	ID   string
}

// New builds a Frame of type t carrying data, stamping the timestamp and a
// fresh correlation ID.
func New(t Type, data any) Frame {
	return Frame{Type: t, Data: data, TS: time.Now(), ID: uuid.NewString()}
}

// IsFrame reports whether f is well-formed: a known, non-zero Type and a
// non-zero timestamp.
func IsFrame(f Frame) bool {
	return f.Type > typeUnset && f.Type < typeSentinelEnd && !f.TS.IsZero()
}

// Port names a frame's destination plane.
type Port string

const (
	PortOut    Port = "out"
	PortSysOut Port = "sys-out"
)

// Route returns the port f must be emitted on: sys-out for SYSTEM_FRAMES,
// out otherwise (spec §8 invariant 2).
func Route(f Frame) Port {
	if f.Type.IsSystemFrame() {
		return PortSysOut
	}
	return PortOut
}

// ToMS converts t to Unix milliseconds.
func ToMS(t time.Time) int64 {
	return t.UnixMilli()
}

// ToDate converts Unix milliseconds back to a time.Time. ToDate(ToMS(t))
// truncates t to millisecond precision but never changes its instant
// modulo that precision (spec §8's timestamp round-trip law).
func ToDate(ms int64) time.Time {
	return time.UnixMilli(ms)
}
