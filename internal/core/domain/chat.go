package domain

// ChatRole identifies who produced a transcript entry.
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
	ChatRoleTool  ChatRole = "tool"
)

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the outcome of one executed tool call, sent back to the model.
type ToolResult struct {
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatTurn is one entry of the conversation transcript sent to the model.
// Exactly one of Text, ToolCalls or ToolResults is populated, depending on Role.
type ChatTurn struct {
	Role        ChatRole     `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ChatRequest is the request shape at the generative model boundary.
type ChatRequest struct {
	SystemInstruction string            `json:"system_instruction"`
	Turns             []ChatTurn        `json:"turns"`
	Tools             []ToolDeclaration `json:"tools,omitempty"`
}

// ChatResponse is the model's reply: text plus zero or more tool-call requests.
type ChatResponse struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ChatResult is what the orchestrator returns to channel adapters.
type ChatResult struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
	ToolsUsed      int    `json:"tools_used"`
}
