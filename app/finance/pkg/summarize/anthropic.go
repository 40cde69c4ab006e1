package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

// AnthropicSummarizer 基于 Anthropic Messages API 的摘要器
type AnthropicSummarizer struct {
	client      *anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
	retry       retryPolicy
}

// AnthropicOptions Anthropic 摘要器参数
type AnthropicOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewAnthropicSummarizer 创建 Anthropic 摘要器
func NewAnthropicSummarizer(opts AnthropicOptions, limiter *rate.Limiter) *AnthropicSummarizer {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	m := anthropic.Model(opts.Model)
	if opts.Model == "" {
		m = anthropic.Model("claude-haiku-4-5")
	}
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AnthropicSummarizer{
		client:      &client,
		model:       m,
		maxTokens:   maxTokens,
		temperature: float64(opts.Temperature),
		limiter:     limiter,
		retry:       defaultRetry,
	}
}

var _ Summarizer = (*AnthropicSummarizer)(nil)

// Summarize implements Summarizer
func (s *AnthropicSummarizer) Summarize(ctx context.Context, req *Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(UserPrompt(req))),
		},
		Temperature: anthropic.Float(s.temperature),
	}

	return generate(ctx, s.limiter, s.retry, func(ctx context.Context) (string, error) {
		resp, err := s.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic API error: %w", err)
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		return sb.String(), nil
	})
}
