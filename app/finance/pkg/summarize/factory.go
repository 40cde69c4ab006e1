package summarize

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/config"
)

// NewSummarizer 根据配置创建摘要器
func NewSummarizer(ctx context.Context, cfg *config.Config) (Summarizer, error) {
	limiter := NewLimiter(cfg.Concurrency.RPM, cfg.Concurrency.QPS)

	switch cfg.LLM.Provider {
	case "", "openai":
		temperature := cfg.LLM.Temperature
		maxTokens := cfg.LLM.MaxTokens
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		return NewChatSummarizer(chatModel, limiter), nil

	case "anthropic":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("anthropic api key is missing")
		}
		return NewAnthropicSummarizer(AnthropicOptions{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}, limiter), nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
