// Package tool implements the tool-call loop described in spec §4.8: a
// Registry of invocable Tools, and a Dispatcher that executes a tool-call
// request assembled by the assistant-response assembler and turns its
// outcome into a tool-result message for the context aggregator.
package tool

import (
	"context"

	"github.com/lookatitude/beluga-ai/schema"
)

// Tool is a single invocable function exposed to the model.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(ctx context.Context, input map[string]any) (*Result, error)
}

// Result is the outcome of executing a Tool.
type Result struct {
	Content []schema.ContentPart
	IsError bool
}

// TextResult builds a successful single-text-part Result.
func TextResult(text string) *Result {
	return &Result{Content: []schema.ContentPart{schema.TextPart{Text: text}}}
}

// ErrorResult builds a failed single-text-part Result carrying err's message.
func ErrorResult(err error) *Result {
	return &Result{Content: []schema.ContentPart{schema.TextPart{Text: err.Error()}}, IsError: true}
}

// Text concatenates every TextPart in the result's content.
func (r *Result) Text() string {
	var s string
	for _, p := range r.Content {
		if tp, ok := p.(schema.TextPart); ok {
			s += tp.Text
		}
	}
	return s
}

// ToDefinition builds the JSON-Schema-like description of t that is sent to
// the model (schema.LLMContext.Tools), derived from the live Tool.
func ToDefinition(t Tool) schema.ToolDefinition {
	return schema.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.InputSchema(),
	}
}
