package domain

import "encoding/json"

// FunctionType is the only definition type emitted to the protocol.
const FunctionType = "function"

// RoleTool is the role of every response record produced for a tool call.
const RoleTool = "tool"

// FunctionDefinition describes one callable operation to the protocol.
type FunctionDefinition struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function is the body of a FunctionDefinition.
type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a single call requested by the protocol peer.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its JSON-encoded argument object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is the assistant message that may carry tool calls.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ChatCompletion is the subset of a chat completion response the adapter reads.
type ChatCompletion struct {
	ID      string   `json:"id,omitempty"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// ToolMessage is the response record for one tool call.
type ToolMessage struct {
	Role       string `json:"role"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

// DecodeArguments parses the JSON argument string of a call.
// An empty string decodes to an empty object.
func (c FunctionCall) DecodeArguments() (map[string]any, error) {
	args := map[string]any{}
	if c.Arguments == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(c.Arguments), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
