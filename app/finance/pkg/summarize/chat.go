package summarize

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// ChatSummarizer 基于 eino ChatModel 的摘要器，适用于所有 OpenAI 兼容接口
type ChatSummarizer struct {
	cm      model.BaseChatModel
	limiter *rate.Limiter
	retry   retryPolicy
}

// NewChatSummarizer 创建摘要器，limiter 为 nil 时不限流
func NewChatSummarizer(cm model.BaseChatModel, limiter *rate.Limiter) *ChatSummarizer {
	return &ChatSummarizer{cm: cm, limiter: limiter, retry: defaultRetry}
}

var _ Summarizer = (*ChatSummarizer)(nil)

// Summarize implements Summarizer
func (s *ChatSummarizer) Summarize(ctx context.Context, req *Request) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(UserPrompt(req)),
	}

	return generate(ctx, s.limiter, s.retry, func(ctx context.Context) (string, error) {
		resp, err := s.cm.Generate(ctx, messages)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	})
}
