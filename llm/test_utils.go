package llm

import (
	"context"
	"iter"

	"github.com/lookatitude/beluga-ai/schema"
)

// stubModel is a minimal ChatModel used by this package's own tests and by
// collaborators exercising the ChatModel contract without a live provider.
type stubModel struct {
	id         string
	generateFn func(ctx context.Context, msgs []schema.Message, opts ...GenerateOption) (*schema.AIMessage, error)
	streamFn   func(ctx context.Context, msgs []schema.Message, opts ...GenerateOption) iter.Seq2[schema.StreamChunk, error]
}

func (m *stubModel) Generate(ctx context.Context, msgs []schema.Message, opts ...GenerateOption) (*schema.AIMessage, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, msgs, opts...)
	}
	return &schema.AIMessage{
		Parts:   []schema.ContentPart{schema.TextPart{Text: "stub response"}},
		ModelID: m.id,
	}, nil
}

func (m *stubModel) Stream(ctx context.Context, msgs []schema.Message, opts ...GenerateOption) iter.Seq2[schema.StreamChunk, error] {
	if m.streamFn != nil {
		return m.streamFn(ctx, msgs, opts...)
	}
	return func(yield func(schema.StreamChunk, error) bool) {
		yield(schema.StreamChunk{Delta: "hello"}, nil)
	}
}

func (m *stubModel) BindTools(tools []schema.ToolDefinition) ChatModel {
	return m
}

func (m *stubModel) ModelID() string { return m.id }
