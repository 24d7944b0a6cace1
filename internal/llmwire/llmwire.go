// Package llmwire decodes the OpenAI-compatible chat-completions streaming
// wire format (spec §6's LLM wire contract) into schema.StreamChunk values,
// and builds the request body the command layer's sse-request executor
// posts. Decoding unmarshals directly into go-openai's wire types
// (openai.ChatCompletionStreamResponse) rather than going through its HTTP
// client, since the command layer already owns the HTTP/SSE mechanics
// (command.Executor.runSSE) — only the JSON shapes are reused.
package llmwire

import (
	"bytes"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lookatitude/beluga-ai/schema"
)

const doneMarker = "[DONE]"

// DecodeLine parses one SSE data line (with or without the leading "data: "
// prefix) into a StreamChunk. ok is false for the "[DONE]" sentinel or a
// blank line, which carry no chunk.
func DecodeLine(line []byte) (chunk schema.StreamChunk, ok bool, err error) {
	trimmed := bytes.TrimSpace(line)
	trimmed = bytes.TrimPrefix(trimmed, []byte("data:"))
	trimmed = bytes.TrimSpace(trimmed)
	if len(trimmed) == 0 || string(trimmed) == doneMarker {
		return schema.StreamChunk{}, false, nil
	}

	var wc openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(trimmed, &wc); err != nil {
		return schema.StreamChunk{}, false, err
	}
	if len(wc.Choices) == 0 {
		return schema.StreamChunk{}, false, nil
	}

	choice := wc.Choices[0]
	out := schema.StreamChunk{
		Delta:        choice.Delta.Content,
		ModelID:      wc.Model,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Delta.ToolCalls {
		if tc.Type != "" && tc.Type != openai.ToolTypeFunction {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if wc.Usage != nil {
		out.Usage = &schema.Usage{
			InputTokens:  wc.Usage.PromptTokens,
			OutputTokens: wc.Usage.CompletionTokens,
			TotalTokens:  wc.Usage.TotalTokens,
		}
	}
	return out, true, nil
}

func wireRoleFor(r schema.Role) string {
	switch r {
	case schema.RoleHuman:
		return openai.ChatMessageRoleUser
	case schema.RoleAI:
		return openai.ChatMessageRoleAssistant
	case schema.RoleTool:
		return openai.ChatMessageRoleTool
	case schema.RoleDeveloper:
		return openai.ChatMessageRoleDeveloper
	default:
		return openai.ChatMessageRoleSystem
	}
}

// BuildRequest renders an LLMContext into an OpenAI-compatible streaming
// chat-completions request body (spec §6: "request emission expressed as
// sse-request command"), using go-openai's request types so the shape tracks
// the SDK's own field names and JSON tags.
func BuildRequest(model string, ctx schema.LLMContext) ([]byte, error) {
	req := openai.ChatCompletionRequest{Model: model, Stream: true}
	for _, m := range ctx.Messages {
		msg := openai.ChatCompletionMessage{Role: wireRoleFor(m.GetRole()), Content: m.Text()}
		if tm, ok := m.(*schema.ToolMessage); ok {
			msg.ToolCallID = tm.ToolCallID
		}
		if am, ok := m.(*schema.AIMessage); ok {
			for _, tc := range am.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
		}
		req.Messages = append(req.Messages, msg)
	}
	for _, td := range ctx.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  td.InputSchema,
			},
		})
	}
	switch ctx.ToolChoice.Mode {
	case schema.ToolChoiceAuto:
		req.ToolChoice = "auto"
	case schema.ToolChoiceNone:
		req.ToolChoice = "none"
	case schema.ToolChoiceRequired:
		req.ToolChoice = "required"
	case schema.ToolChoiceFunction:
		req.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: ctx.ToolChoice.FunctionName},
		}
	}
	return json.Marshal(req)
}

// IsDoneLine reports whether line is the terminal "[DONE]" SSE marker.
func IsDoneLine(line []byte) bool {
	return strings.TrimSpace(string(bytes.TrimPrefix(bytes.TrimSpace(line), []byte("data:")))) == doneMarker
}
