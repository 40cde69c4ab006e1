package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/extract"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/logger"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/parallel"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/summarize"
)

// generationTimeout 覆盖限流等待与 429 退避重试的总时长
const generationTimeout = 90 * time.Second

// SummarizeSelected 为选中的候选新闻并发抓取正文并生成摘要，结果追加到会话。
// 不在当前候选列表中的 id 被静默丢弃；单篇失败会写入该条摘要文本而不是中断整批。
func (e *Engine) SummarizeSelected(ctx context.Context, ids []int, focus string) ([]model.SummaryRecord, error) {
	epoch := e.session.Epoch()

	selected := e.session.SelectCandidates(ids)
	if len(selected) == 0 {
		return nil, ErrInvalidSelection
	}
	logger.Log.Infof("开始生成 %d 条摘要 (请求 %d 个 id)", len(selected), len(ids))

	records := parallel.Map(ctx, selected, e.summaryWorkers, func(ctx context.Context, c model.NewsCandidate) model.SummaryRecord {
		return model.SummaryRecord{
			ID:      c.ID,
			Ticker:  c.Ticker,
			Title:   c.Title,
			Summary: e.summarizeOne(ctx, c, focus),
		}
	})

	if !e.session.AppendSummaries(epoch, records) {
		logger.Log.Warnf("会话已被重置，丢弃过期摘要 (epoch=%s)", epoch)
	}
	return records, nil
}

func (e *Engine) summarizeOne(ctx context.Context, c model.NewsCandidate, focus string) string {
	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	text, err := e.extractor.Extract(fetchCtx, c.URL)
	cancel()
	if err != nil {
		logger.Log.Warnf("正文抓取失败 [%d %s]: %v", c.ID, c.URL, err)
		return fmt.Sprintf("Error fetching article: %v", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()
	summary, err := e.summarizer.Summarize(genCtx, &summarize.Request{
		URL:   c.URL,
		Text:  extract.Truncate(text, e.maxChars),
		Focus: focus,
	})
	if err != nil {
		logger.Log.Errorf("摘要生成失败 [%d %s]: %v", c.ID, c.URL, err)
		return fmt.Sprintf("Error during summarization: %v", err)
	}
	return summary
}

// RemoveSummaries 删除指定 id 的摘要并返回剩余 id；ids 为空时只读。
// 最少保留条数由调用方控制，这里不做检查。
func (e *Engine) RemoveSummaries(ids []int) []int {
	remaining := e.session.RemoveSummaries(ids)
	if len(ids) > 0 {
		logger.Log.Infof("删除摘要 %v，剩余 %d 条", ids, len(remaining))
	}
	return remaining
}
