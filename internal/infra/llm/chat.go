package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yanqian/jobfit/internal/domain/tailor"
	"github.com/yanqian/jobfit/pkg/metrics"
)

// ChatGPTLLM adapts the go-openai client to the tailoring domain.
type ChatGPTLLM struct {
	client *openai.Client
}

// NewChatGPTLLM constructs the adapter.
func NewChatGPTLLM(client *openai.Client) *ChatGPTLLM {
	return &ChatGPTLLM{client: client}
}

// Complete sends a chat completion request and reports token usage.
func (l *ChatGPTLLM) Complete(ctx context.Context, model string, temperature float32, messages []tailor.Message) (tailor.Completion, error) {
	if len(messages) == 0 {
		return tailor.Completion{}, errors.New("at least one message is required")
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return tailor.Completion{}, fmt.Errorf("chat completion: %w", err)
	}
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if len(resp.Choices) == 0 {
		return tailor.Completion{Usage: usage}, errors.New("chat completion returned no choices")
	}
	return tailor.Completion{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage:   usage,
	}, nil
}

var _ tailor.ChatClient = (*ChatGPTLLM)(nil)

// EchoLLM returns a lightweight fallback without external calls.
type EchoLLM struct{}

// Complete echoes the last message and counts words as tokens.
func (EchoLLM) Complete(_ context.Context, _ string, _ float32, messages []tailor.Message) (tailor.Completion, error) {
	if len(messages) == 0 {
		return tailor.Completion{}, nil
	}
	var prompt int
	for _, msg := range messages {
		prompt += len(strings.Fields(msg.Content))
	}
	content := messages[len(messages)-1].Content
	completion := len(strings.Fields(content))
	return tailor.Completion{
		Content: content,
		Usage: metrics.TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

var _ tailor.ChatClient = EchoLLM{}
