package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/wikilens/wikilens/internal/model"
)

const systemPrompt = "You are a careful analyst. You answer only with the JSON format requested, never with prose around it."

// OpenAIProvider implements Provider on the OpenAI Chat Completions API.
// With BaseURL set it also serves any OpenAI-compatible endpoint, which
// covers Ollama and LM Studio.
type OpenAIProvider struct {
	client *openai.Client
	name   string
	cfg    model.LLMConfig
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible endpoint.
func NewOpenAIProvider(name string, cfg model.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s model must be specified", name)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		name:   name,
		cfg:    cfg,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return p.name }

// Model returns the configured model identifier.
func (p *OpenAIProvider) Model() string { return p.cfg.Model }

// VerifyClaim judges one (claim, source) pair.
func (p *OpenAIProvider) VerifyClaim(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	raw, err := p.complete(ctx, buildVerifyPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseVerifyResult(raw)
}

// DetectBias scans a paragraph for biased spans.
func (p *OpenAIProvider) DetectBias(ctx context.Context, req BiasRequest) ([]model.BiasFinding, error) {
	raw, err := p.complete(ctx, buildBiasPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseBiasFindings(raw)
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt string) (string, error) {
	timeout := p.cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxTokens := p.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3, // Lower temperature for more focused, factual output
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", p.name)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
