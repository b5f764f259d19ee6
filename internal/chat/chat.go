// Package chat defines the inbound completion request shape the decision
// engine inspects. It mirrors the OpenAI chat completion layout closely
// enough that the dispatcher can decode requests once and hand them over.
package chat

import (
	"encoding/json"
	"strings"
)

// Response format types.
const (
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"
)

// WebSearchToolType marks the built-in web search tool.
const WebSearchToolType = "web_search"

// ImageURL is an image content part payload.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ContentPart is one element of a multi-part message content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ToolCallFunction carries an assistant tool invocation.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation on an assistant message.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// Message is one conversation turn. Content is either a plain string or
// a list of ContentPart.
type Message struct {
	Role       string     `json:"role"`
	Content    any        `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// UnmarshalJSON decodes content into a string or []ContentPart.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		*alias
		Content json.RawMessage `json:"content"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Content) == 0 || string(aux.Content) == "null" {
		m.Content = nil
		return nil
	}
	var text string
	if err := json.Unmarshal(aux.Content, &text); err == nil {
		m.Content = text
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(aux.Content, &parts); err != nil {
		return err
	}
	m.Content = parts
	return nil
}

// Parts returns the structured content parts, or nil for plain text.
func (m Message) Parts() []ContentPart {
	parts, _ := m.Content.([]ContentPart)
	return parts
}

// Text returns the plain string content, or "" for structured content.
func (m Message) Text() string {
	text, _ := m.Content.(string)
	return text
}

// ToolFunction describes a callable function tool.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool is one tool definition on the request.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function,omitempty"`
}

// IsWebSearch reports whether the tool is the built-in web search tool.
func (t Tool) IsWebSearch() bool {
	return strings.EqualFold(strings.TrimSpace(t.Type), WebSearchToolType) ||
		strings.HasPrefix(strings.ToLower(strings.TrimSpace(t.Type)), WebSearchToolType+"_")
}

// ResponseFormat requests structured output from the model.
type ResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema map[string]any `json:"json_schema,omitempty"`
}

// Request is the decoded completion request the engine decides on.
type Request struct {
	Model           string          `json:"model"`
	Provider        string          `json:"provider,omitempty"`
	Messages        []Message       `json:"messages"`
	Tools           []Tool          `json:"tools,omitempty"`
	ToolChoice      any             `json:"tool_choice,omitempty"`
	ResponseFormat  *ResponseFormat `json:"response_format,omitempty"`
	ReasoningEffort string          `json:"reasoning_effort,omitempty"`
	Reasoning       *bool           `json:"reasoning,omitempty"`
	MaxTokens       *int            `json:"max_tokens,omitempty"`
	Stream          bool            `json:"stream,omitempty"`
}

// HasImages reports whether any message carries an image content part.
func (r Request) HasImages() bool {
	for _, msg := range r.Messages {
		for _, part := range msg.Parts() {
			if part.Type == "image_url" && part.ImageURL != nil {
				return true
			}
		}
	}
	return false
}

// FunctionTools returns the request tools that are not web search.
func (r Request) FunctionTools() []Tool {
	out := make([]Tool, 0, len(r.Tools))
	for _, tool := range r.Tools {
		if tool.IsWebSearch() {
			continue
		}
		out = append(out, tool)
	}
	return out
}

// WebSearchRequested reports whether a web search tool appears on the
// request.
func (r Request) WebSearchRequested() bool {
	for _, tool := range r.Tools {
		if tool.IsWebSearch() {
			return true
		}
	}
	return false
}
