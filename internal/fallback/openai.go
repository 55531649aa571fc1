// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend classifies sentences through the OpenAI chat API. With a
// custom BaseURL it also serves any OpenAI-compatible endpoint (e.g. a
// local Ollama server).
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend builds a backend for the given key, model, and optional
// base URL.
func NewOpenAIBackend(apiKey, model, baseURL string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Classify sends one classification request and parses the JSON decision.
func (o *OpenAIBackend) Classify(ctx context.Context, req Request) (Response, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return Response{}, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("calling OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("OpenAI API returned no choices")
	}

	return parseDecision(resp.Choices[0].Message.Content)
}
