package schema

// Role identifies which party produced a message. Simulflow's LLM wire
// contract speaks of "user"/"assistant"; this package names the
// corresponding Go types Human/AI to match the teacher's chat-model
// vocabulary — RoleHuman is the wire "user" role, RoleAI is "assistant".
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleHuman     Role = "human"
	RoleAI        Role = "ai"
	RoleTool      Role = "tool"
)

// Message is a single turn in an LLMContext. Concrete types are tagged
// variants over Role: SystemMessage, DeveloperMessage, HumanMessage,
// AIMessage, ToolMessage.
type Message interface {
	GetRole() Role
	GetContent() []ContentPart
	GetMetadata() map[string]any
	// Text concatenates every TextPart in the message's content, joined by
	// newline. Non-text parts are ignored.
	Text() string
}

func textOf(parts []ContentPart) string {
	var out string
	first := true
	for _, p := range parts {
		tp, ok := p.(TextPart)
		if !ok {
			continue
		}
		if !first {
			out += "\n"
		}
		out += tp.Text
		first = false
	}
	return out
}

// SystemMessage carries top-of-context instructions.
type SystemMessage struct {
	Parts    []ContentPart
	Metadata map[string]any
}

func (m *SystemMessage) GetRole() Role                { return RoleSystem }
func (m *SystemMessage) GetContent() []ContentPart    { return m.Parts }
func (m *SystemMessage) GetMetadata() map[string]any  { return m.Metadata }
func (m *SystemMessage) Text() string                 { return textOf(m.Parts) }

// DeveloperMessage carries instructions from the integrating application,
// distinct from end-user-facing SystemMessage content.
type DeveloperMessage struct {
	Parts    []ContentPart
	Metadata map[string]any
}

func (m *DeveloperMessage) GetRole() Role               { return RoleDeveloper }
func (m *DeveloperMessage) GetContent() []ContentPart   { return m.Parts }
func (m *DeveloperMessage) GetMetadata() map[string]any { return m.Metadata }
func (m *DeveloperMessage) Text() string                { return textOf(m.Parts) }

// HumanMessage is a message from the end user (the LLM wire contract's
// "user" role).
type HumanMessage struct {
	Parts    []ContentPart
	Metadata map[string]any
}

func (m *HumanMessage) GetRole() Role               { return RoleHuman }
func (m *HumanMessage) GetContent() []ContentPart   { return m.Parts }
func (m *HumanMessage) GetMetadata() map[string]any { return m.Metadata }
func (m *HumanMessage) Text() string                { return textOf(m.Parts) }

// AIMessage is a model response (the LLM wire contract's "assistant" role).
// It may carry ToolCalls instead of, or alongside, text content.
type AIMessage struct {
	Parts     []ContentPart
	ToolCalls []ToolCall
	Usage     Usage
	ModelID   string
	Metadata  map[string]any
}

func (m *AIMessage) GetRole() Role               { return RoleAI }
func (m *AIMessage) GetContent() []ContentPart   { return m.Parts }
func (m *AIMessage) GetMetadata() map[string]any { return m.Metadata }
func (m *AIMessage) Text() string                { return textOf(m.Parts) }

// ToolMessage carries the result of executing a tool call, correlated to the
// originating ToolCall via ToolCallID.
type ToolMessage struct {
	ToolCallID string
	Parts      []ContentPart
	Metadata   map[string]any
}

func (m *ToolMessage) GetRole() Role               { return RoleTool }
func (m *ToolMessage) GetContent() []ContentPart   { return m.Parts }
func (m *ToolMessage) GetMetadata() map[string]any { return m.Metadata }
func (m *ToolMessage) Text() string                { return textOf(m.Parts) }

// NewSystemMessage builds a single-part text SystemMessage.
func NewSystemMessage(text string) *SystemMessage {
	return &SystemMessage{Parts: []ContentPart{TextPart{Text: text}}}
}

// NewDeveloperMessage builds a single-part text DeveloperMessage.
func NewDeveloperMessage(text string) *DeveloperMessage {
	return &DeveloperMessage{Parts: []ContentPart{TextPart{Text: text}}}
}

// NewHumanMessage builds a single-part text HumanMessage.
func NewHumanMessage(text string) *HumanMessage {
	return &HumanMessage{Parts: []ContentPart{TextPart{Text: text}}}
}

// NewAIMessage builds a single-part text AIMessage with no tool calls.
func NewAIMessage(text string) *AIMessage {
	return &AIMessage{Parts: []ContentPart{TextPart{Text: text}}}
}

// NewToolMessage builds a single-part text ToolMessage correlated to
// toolCallID.
func NewToolMessage(toolCallID, text string) *ToolMessage {
	return &ToolMessage{ToolCallID: toolCallID, Parts: []ContentPart{TextPart{Text: text}}}
}

// WithText returns a copy of msg whose content is replaced by a single
// TextPart carrying text, preserving role and metadata. Used by
// concat-messages (§4.5) to merge same-role messages by replacing the last
// message's content rather than appending a new message.
func WithText(msg Message, text string) Message {
	switch m := msg.(type) {
	case *SystemMessage:
		return &SystemMessage{Parts: []ContentPart{TextPart{Text: text}}, Metadata: m.Metadata}
	case *DeveloperMessage:
		return &DeveloperMessage{Parts: []ContentPart{TextPart{Text: text}}, Metadata: m.Metadata}
	case *HumanMessage:
		return &HumanMessage{Parts: []ContentPart{TextPart{Text: text}}, Metadata: m.Metadata}
	case *AIMessage:
		return &AIMessage{Parts: []ContentPart{TextPart{Text: text}}, ToolCalls: m.ToolCalls, Usage: m.Usage, ModelID: m.ModelID, Metadata: m.Metadata}
	case *ToolMessage:
		return &ToolMessage{ToolCallID: m.ToolCallID, Parts: []ContentPart{TextPart{Text: text}}, Metadata: m.Metadata}
	default:
		return NewHumanMessage(text)
	}
}

// NewMessageForRole constructs a new single-part text message for role,
// used by concat-messages (§4.5) when the context's last message does not
// already share role.
func NewMessageForRole(role Role, text string) Message {
	switch role {
	case RoleSystem:
		return NewSystemMessage(text)
	case RoleDeveloper:
		return NewDeveloperMessage(text)
	case RoleAI:
		return NewAIMessage(text)
	case RoleTool:
		return NewToolMessage("", text)
	default:
		return NewHumanMessage(text)
	}
}
