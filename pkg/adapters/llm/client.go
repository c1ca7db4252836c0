// Package llm implements the narrative-generation adapter with two real
// providers wired in: Anthropic's native SDK and langchaingo's OpenAI
// binding, selected by configuration.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/propresearch/agentic-research-core/internal/config"
	"github.com/propresearch/agentic-research-core/pkg/adapters"
)

// Client is the narrative LLM adapter capability consumed by the dossier
// writer worker.
type Client interface {
	adapters.NarrativeLLM
}

// NewClient builds a provider-specific Client from LLM configuration.
// Unsupported providers are rejected synchronously at construction time, not
// on first use.
func NewClient(cfg config.LLMConfig, logger *logrus.Logger) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		sdk := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
		return &anthropicClient{sdk: sdk, cfg: cfg, logger: logger}, nil
	case "langchain-openai":
		model, err := openai.New(openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("failed to build langchain openai client: %w", err)
		}
		return &langchainClient{model: model, cfg: cfg, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

type anthropicClient struct {
	sdk    anthropic.Client
	cfg    config.LLMConfig
	logger *logrus.Logger
}

func (c *anthropicClient) Generate(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	if model == "" {
		model = c.cfg.Model
	}
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	message, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic narrative generation failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if text := block.AsAny(); text != nil {
			if tb, ok := text.(anthropic.TextBlock); ok {
				sb.WriteString(tb.Text)
			}
		}
	}
	return sb.String(), nil
}

type langchainClient struct {
	model  llms.Model
	cfg    config.LLMConfig
	logger *logrus.Logger
}

func (c *langchainClient) Generate(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	completion, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithMaxTokens(maxTokens))
	if err != nil {
		return "", fmt.Errorf("langchain narrative generation failed: %w", err)
	}
	return completion, nil
}
