// Package command implements the command layer (spec §4.12): pure-data
// command values a Transform returns instead of performing a side effect
// directly, executed by a dedicated, init-owned Executor.
package command

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lookatitude/beluga-ai/o11y"
	"github.com/lookatitude/beluga-ai/resilience"
)

func bodyReaderFor(body []byte) io.Reader {
	if body == nil {
		return nil
	}
	return bytes.NewReader(body)
}

// Kind discriminates a Command's payload shape.
type Kind string

const (
	// KindWriteAudio asks the real-time output pacer's audio line to write
	// Data at DelayUntil (spec §4.9).
	KindWriteAudio Kind = "write-audio"
	// KindSSERequest asks the executor to open a streaming HTTP request and
	// decode server-sent-event-style chunks back onto a read channel
	// (spec §6's LLM wire contract request emission).
	KindSSERequest Kind = "sse-request"
)

// Command is a side-effecting request emitted by a processor's Transform
// and carried out by an Executor, not by Transform itself.
type Command struct {
	Kind Kind
	ID   string
	Data any
}

// WriteAudioData is Command.Data for KindWriteAudio.
type WriteAudioData struct {
	Audio      []byte
	SampleRate int
	DelayUntil time.Time
}

// SSERequestData is Command.Data for KindSSERequest.
type SSERequestData struct {
	URL        string
	Method     string
	Headers    map[string]string
	Body       []byte
	Timeout    time.Duration
	BufferSize int
}

// Chunk is one decoded increment an SSE-request command streams back.
type Chunk struct {
	RequestID string
	Data      []byte
	Err       error
	Done      bool
}

// Executor runs Commands, reporting SSE chunks on a read channel (spec
// §4.12's "dedicated executor performing the side effect"; §6's sse-request
// contract).
type Executor struct {
	Client *http.Client
	Reads  chan<- Chunk

	// Breaker, if set, gates the outbound connect attempt (spec §7's
	// ExternalError handling): repeated connection failures to the same
	// collaborator trip it open so further commands fail fast instead of
	// each blocking through its own timeout.
	Breaker *resilience.CircuitBreaker
}

// NewExecutor builds an Executor posting decoded chunks to reads, guarding
// outbound connects with a circuit breaker.
func NewExecutor(reads chan<- Chunk) *Executor {
	return &Executor{
		Client:  http.DefaultClient,
		Reads:   reads,
		Breaker: resilience.NewCircuitBreaker(5, 30*time.Second),
	}
}

// Run executes cmd. Per-command timeouts are the executor's responsibility
// (spec §5): a timeout or transport error produces an error Chunk rather
// than propagating an exception.
func (e *Executor) Run(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case KindSSERequest:
		e.runSSE(ctx, cmd)
	default:
		o11y.FromContext(ctx).Warn(ctx, "executor received unknown command kind", "kind", cmd.Kind)
	}
}

func (e *Executor) runSSE(ctx context.Context, cmd Command) {
	data, ok := cmd.Data.(SSERequestData)
	if !ok {
		e.emit(Chunk{RequestID: cmd.ID, Err: fmt.Errorf("command: malformed sse-request data"), Done: true})
		return
	}

	if data.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, data.Timeout)
		defer cancel()
	}

	method := data.Method
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader = bodyReaderFor(data.Body)
	req, err := http.NewRequestWithContext(ctx, method, data.URL, bodyReader)
	if err != nil {
		e.emit(Chunk{RequestID: cmd.ID, Err: err, Done: true})
		return
	}
	for k, v := range data.Headers {
		req.Header.Set(k, v)
	}

	doRequest := func(ctx context.Context) (any, error) { return e.Client.Do(req) }
	var result any
	if e.Breaker != nil {
		result, err = e.Breaker.Execute(ctx, doRequest)
	} else {
		result, err = doRequest(ctx)
	}
	if err != nil {
		e.emit(Chunk{RequestID: cmd.ID, Err: err, Done: true})
		return
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	bufSize := data.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), bufSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		chunk := make([]byte, len(line))
		copy(chunk, line)
		select {
		case e.Reads <- Chunk{RequestID: cmd.ID, Data: chunk}:
		case <-ctx.Done():
			e.emit(Chunk{RequestID: cmd.ID, Err: ctx.Err(), Done: true})
			return
		}
	}
	if err := scanner.Err(); err != nil {
		e.emit(Chunk{RequestID: cmd.ID, Err: err, Done: true})
		return
	}
	e.emit(Chunk{RequestID: cmd.ID, Done: true})
}

func (e *Executor) emit(c Chunk) {
	e.Reads <- c
}
