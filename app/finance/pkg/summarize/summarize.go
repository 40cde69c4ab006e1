// Package summarize turns article text into the three-part analyst digest
// (executive summary, hard data, key quotes) via a text-generation model.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/logger"
)

// DefaultFocus 未指定关注点时使用的指令
const DefaultFocus = "General summary"

// ErrEmptyResponse 模型返回了空内容
var ErrEmptyResponse = errors.New("empty response from model")

// Summarizer 定义正文到摘要的生成接口
type Summarizer interface {
	Summarize(ctx context.Context, req *Request) (string, error)
}

// Request 摘要请求
type Request struct {
	URL   string
	Text  string // 已按预算截断的正文
	Focus string
}

const systemPrompt = "You are a high-efficiency financial news extractor. Your output acts as a data feed for a senior analyst with limited bandwidth. " +
	"You must compress the article content based on the user's specific instruction into the following strict format:\n\n" +
	"### 1. EXECUTIVE SUMMARY\n" +
	"- Provide a dense, high-level overview.\n" +
	"- Focus strictly on the user's instruction (e.g., if asked about 'revenue', ignore 'product design').\n\n" +
	"### 2. HARD DATA (Output 'None' if missing)\n" +
	"- List ONLY specific numbers, percentages, currency values, dates, or ticker changes.\n" +
	"- Format: `[Metric]: [Value]` (e.g., 'Revenue increase by: $1.4B', 'EPS: $2.12').\n\n" +
	"### 3. KEY QUOTES (Output 'None' if missing)\n" +
	"- Extract 1-2 most critical direct quotes from decision-makers (CEO, CFO, Analysts).\n\n" +
	"CRITICAL CONSTRAINTS:\n" +
	"- Keep the summary between 350 and 450 words.\n" +
	"- Do not use fluff or filler words. Be telegraphic.\n"

// SystemPrompt 返回摘要模型的系统指令
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt 构造包含正文与关注点的用户输入
func UserPrompt(req *Request) string {
	focus := strings.TrimSpace(req.Focus)
	if focus == "" {
		focus = DefaultFocus
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Source URL: %s\n\n", req.URL)
	sb.WriteString("--- ARTICLE CONTENT ---\n")
	sb.WriteString(req.Text)
	sb.WriteString("\n-----------------------\n\n")
	fmt.Fprintf(&sb, "User INSTRUCTION: %s\n\n", focus)
	sb.WriteString("Please summarize the article above, strictly following the instruction.")
	return sb.String()
}

// retryPolicy 429 限流时的指数退避
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

var defaultRetry = retryPolicy{maxRetries: 3, baseDelay: 2 * time.Second}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// generate 在限流器许可下调用 call，遇到 429 时退避重试
func generate(ctx context.Context, limiter *rate.Limiter, policy retryPolicy, call func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	for i := 0; i <= policy.maxRetries; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		out, err := call(ctx)
		if err == nil {
			out = strings.TrimSpace(out)
			if out == "" {
				return "", ErrEmptyResponse
			}
			return out, nil
		}
		if !isRateLimited(err) {
			return "", err
		}

		lastErr = err
		if i == policy.maxRetries {
			break
		}
		delay := policy.baseDelay * time.Duration(1<<i)
		logger.Log.Warnf("模型限流，%v 后重试 (%d/%d): %v", delay, i+1, policy.maxRetries, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("failed after retries: %w", lastErr)
}

// NewLimiter 按每分钟请求数和突发量创建限流器
func NewLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}
