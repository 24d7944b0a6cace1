package proc

import (
	"context"
	"sync"
	"time"

	"github.com/lookatitude/beluga-ai/core"
)

// Pipeline adapts a Graph to core.Lifecycle so a host process can register
// it with core.App alongside other components (spec SPEC_FULL §C.1).
type Pipeline struct {
	Graph Graph

	mu      sync.Mutex
	rt      *Runtime
	cancel  context.CancelFunc
	done    chan error
	healthy bool
	lastErr error
}

// Start builds the graph and runs it in the background. It returns once the
// graph has been built; Run continues until Stop is called or a fatal error
// occurs.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rt, err := p.Graph.Build()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.rt = rt
	p.cancel = cancel
	p.done = make(chan error, 1)
	p.healthy = true

	go func() {
		err := rt.Run(runCtx)
		p.mu.Lock()
		p.healthy = false
		p.lastErr = err
		p.mu.Unlock()
		p.done <- err
	}()
	return nil
}

// Stop cancels the running graph and waits for it to exit or ctx to expire.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports whether the pipeline's graph is still running.
func (p *Pipeline) Health() core.HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.healthy {
		return core.HealthStatus{Status: core.HealthHealthy, Timestamp: time.Now()}
	}
	msg := "pipeline not started"
	if p.lastErr != nil {
		msg = p.lastErr.Error()
	}
	return core.HealthStatus{Status: core.HealthUnhealthy, Message: msg, Timestamp: time.Now()}
}
