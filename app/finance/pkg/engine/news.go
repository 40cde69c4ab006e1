package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/logger"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/parallel"
)

// tickerNews 单个 ticker 的新闻拉取结果
type tickerNews struct {
	ticker string
	items  []news.Item
}

// DiscoverNews 并发拉取新闻，全局去重后替换会话中的候选列表，返回编号菜单。
//
// 去重按各 ticker 任务的完成顺序进行，先完成的 ticker 拿到更小的 id，
// 因此同样的输入在两次调用间 id 分配可能不同。
func (e *Engine) DiscoverNews(ctx context.Context, tickers []string, perTickerLimit int) (string, error) {
	symbols := normalizeTickers(tickers)
	if len(symbols) == 0 {
		e.session.ReplaceCandidates(nil)
		return "", ErrNoTickers
	}
	limit := clampLimit(perTickerLimit)

	batches := parallel.Map(ctx, symbols, len(symbols), func(ctx context.Context, symbol string) tickerNews {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		items, err := e.news.Fetch(ctx, symbol, limit)
		if err != nil {
			logger.Log.Errorf("拉取新闻失败 [%s] (%s): %v", symbol, e.news.Name(), err)
			return tickerNews{ticker: symbol}
		}
		if len(items) > limit {
			items = items[:limit]
		}
		return tickerNews{ticker: symbol, items: items}
	})

	candidates := dedupe(batches)
	e.session.ReplaceCandidates(candidates)
	logger.Log.Infof("新闻候选 %d 条 (来自 %d 个 ticker)", len(candidates), len(symbols))

	return menu(candidates), nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultNewsPerTick
	case n > maxNewsPerTicker:
		return maxNewsPerTicker
	default:
		return n
	}
}

// dedupe 按批次顺序做全局去重：URL 或标题任一重复即丢弃，幸存条目获得稠密递增 id
func dedupe(batches []tickerNews) []model.NewsCandidate {
	seenURL := make(map[string]bool)
	seenTitle := make(map[string]bool)

	var out []model.NewsCandidate
	for _, b := range batches {
		for _, item := range b.items {
			title := news.Title(item)
			link := news.Link(item)
			if title == "" || link == "" {
				continue
			}

			u, t := normalize(link), normalize(title)
			if seenURL[u] || seenTitle[t] {
				continue
			}
			seenURL[u] = true
			seenTitle[t] = true

			out = append(out, model.NewsCandidate{
				ID:     len(out),
				Ticker: b.ticker,
				Title:  title,
				URL:    link,
			})
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func menu(candidates []model.NewsCandidate) string {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("[%d] %s | %s", c.ID, c.Ticker, c.Title))
	}
	return strings.Join(lines, "\n")
}
