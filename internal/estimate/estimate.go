// Package estimate computes the token budget a request will need before
// dispatch. Counts are approximations (roughly 10-15% off real tokenizer
// output) and every failure path degrades to an approximation instead of
// erroring, so estimates can gate routing without ever blocking a request.
package estimate

import (
	"encoding/json"
	"strings"

	"github.com/modelgate/modelgate/internal/chat"
)

const (
	// messageOverhead covers chat framing tokens per request.
	messageOverhead = 3
	// toolCallOverhead covers id/type fields on one tool call.
	toolCallOverhead = 5
	// toolFallbackTokens is charged per tool when its schema cannot be
	// serialized.
	toolFallbackTokens = 50
	// Image parts cost a fixed budget by requested detail.
	imageTokensLow  = 85
	imageTokensHigh = 170
)

// Context returns the estimated token budget for the request:
// prompt estimate + tool schema estimate + completion reserve.
// maxTokens, when positive, overrides the completion buffer. Pure
// function of its inputs; never fails.
func Context(messages []chat.Message, tools []chat.Tool, maxTokens, completionBuffer int) int {
	total := Messages(messages) + Tools(tools)
	if maxTokens > 0 {
		total += maxTokens
	} else if completionBuffer > 0 {
		total += completionBuffer
	}
	return total
}

// Messages estimates the prompt tokens for a message list.
func Messages(messages []chat.Message) int {
	if len(messages) == 0 {
		return 0
	}
	tokens := messageOverhead
	for _, msg := range messages {
		tokens++ // role
		if text := msg.Text(); text != "" {
			tokens += Text(text)
		}
		for _, part := range msg.Parts() {
			switch part.Type {
			case "text":
				tokens += Text(part.Text)
			case "image_url":
				if part.ImageURL != nil && part.ImageURL.Detail == "high" {
					tokens += imageTokensHigh
				} else {
					tokens += imageTokensLow
				}
			}
		}
		if msg.Name != "" {
			tokens += Text(msg.Name)
		}
		for _, call := range msg.ToolCalls {
			tokens += Text(call.Function.Name)
			tokens += Text(call.Function.Arguments)
			tokens += toolCallOverhead
		}
		if msg.ToolCallID != "" {
			tokens += Text(msg.ToolCallID)
		}
	}
	return tokens
}

// Tools estimates the schema tokens for the request's tool definitions,
// approximated as serialized JSON length over four. A tool whose schema
// cannot be serialized costs a fixed fallback budget.
func Tools(tools []chat.Tool) int {
	tokens := 0
	for _, tool := range tools {
		data, err := json.Marshal(tool)
		if err != nil || len(data) == 0 {
			tokens += toolFallbackTokens
			continue
		}
		tokens += len(data) / 4
	}
	return tokens
}

// Text estimates tokens for a text fragment: characters over four, with
// a word-count blend for short-word text. Most tokenizers emit about
// four characters per token for English.
func Text(text string) int {
	if text == "" {
		return 0
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	baseTokens := len(text) / 4
	avgCharsPerWord := float64(len(text)) / float64(len(words))

	tokens := baseTokens
	if avgCharsPerWord <= 6 {
		tokens = int(0.7*float64(baseTokens) + 0.3*float64(len(words)))
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
