package schema

// ToolChoiceMode names how the model should select from LLMContext.Tools.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
	// ToolChoiceFunction forces a specific named tool; FunctionName is set.
	ToolChoiceFunction ToolChoiceMode = "function"
)

// ToolChoice controls tool selection for an LLMContext. The zero value
// (empty Mode) means "unset" and a provider should fall back to its default.
type ToolChoice struct {
	Mode         ToolChoiceMode
	FunctionName string
}

// LLMContext is the ordered conversation plus tool catalogue sent to the
// model (spec §3). Messages is never empty when sent to a model; consecutive
// messages with the same role are merged by ConcatMessage rather than kept
// as separate entries.
type LLMContext struct {
	Messages   []Message
	Tools      []ToolDefinition
	ToolChoice ToolChoice
}

// Clone returns a shallow copy of c whose Messages and Tools slices are
// independently growable (appending to the clone never mutates c).
func (c LLMContext) Clone() LLMContext {
	out := LLMContext{ToolChoice: c.ToolChoice}
	if c.Messages != nil {
		out.Messages = append([]Message(nil), c.Messages...)
	}
	if c.Tools != nil {
		out.Tools = append([]ToolDefinition(nil), c.Tools...)
	}
	return out
}

// ConcatMessage implements the §4.5/§4.6 "concat-messages" merge rule:
// append a new message for (role, text) unless the context's last message
// already has that role, in which case replace the last message by joining
// its existing text with text using a single space.
//
// ConcatMessage is associative and idempotent under equal-role merging:
// concatenating ("r","a") then ("r","b") onto an empty context yields the
// same single message as concatenating ("r","a b") once.
func ConcatMessage(ctx LLMContext, role Role, text string) LLMContext {
	out := ctx.Clone()
	if n := len(out.Messages); n > 0 && out.Messages[n-1].GetRole() == role {
		merged := out.Messages[n-1].Text() + " " + text
		out.Messages[n-1] = WithText(out.Messages[n-1], merged)
		return out
	}
	out.Messages = append(out.Messages, NewMessageForRole(role, text))
	return out
}
