package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/cart"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/config"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/extract"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/market"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news/factory"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/report"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/summarize"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/yahoo"
)

var (
	// ErrNoTickers 请求中没有可用的 ticker
	ErrNoTickers = errors.New("no tickers provided")
	// ErrInvalidSelection 请求的 id 都不在当前候选列表中
	ErrInvalidSelection = errors.New("no valid ids in selection")
)

const (
	maxPriceWorkers    = 10
	maxNewsPerTicker   = 4
	defaultNewsPerTick = 3
)

// Options 引擎依赖与参数
type Options struct {
	Session    *cart.Session
	Market     market.Provider
	News       news.Provider
	Extractor  extract.Extractor
	Summarizer summarize.Summarizer

	PriceWorkers   int           // 上限 10
	SummaryWorkers int           // 默认 5
	MaxChars       int           // 送入摘要模型的正文字符预算，默认 12000
	Timeout        time.Duration // 单个 ticker / 单篇文章的网络超时，默认 15s
}

// Engine 金融简报核心处理引擎，所有工具调用共享同一个 Session
type Engine struct {
	session    *cart.Session
	market     market.Provider
	news       news.Provider
	extractor  extract.Extractor
	summarizer summarize.Summarizer

	priceWorkers   int
	summaryWorkers int
	maxChars       int
	timeout        time.Duration
	now            func() time.Time
}

// New 按给定依赖创建引擎
func New(opts Options) *Engine {
	e := &Engine{
		session:        opts.Session,
		market:         opts.Market,
		news:           opts.News,
		extractor:      opts.Extractor,
		summarizer:     opts.Summarizer,
		priceWorkers:   opts.PriceWorkers,
		summaryWorkers: opts.SummaryWorkers,
		maxChars:       opts.MaxChars,
		timeout:        opts.Timeout,
		now:            time.Now,
	}
	if e.session == nil {
		e.session = cart.New()
	}
	if e.priceWorkers <= 0 || e.priceWorkers > maxPriceWorkers {
		e.priceWorkers = maxPriceWorkers
	}
	if e.summaryWorkers <= 0 {
		e.summaryWorkers = 5
	}
	if e.maxChars <= 0 {
		e.maxChars = 12000
	}
	if e.timeout <= 0 {
		e.timeout = 15 * time.Second
	}
	return e
}

// NewEngine 根据配置创建引擎实例
func NewEngine(ctx context.Context, cfg *config.Config, session *cart.Session) (*Engine, error) {
	newsProvider, err := factory.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("新闻数据源初始化失败: %w", err)
	}

	summarizer, err := summarize.NewSummarizer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("摘要模型初始化失败: %w", err)
	}

	return New(Options{
		Session:        session,
		Market:         yahoo.NewClient(cfg.Market.BaseURL, cfg.News.Yahoo.BaseURL, config.Seconds(cfg.Market.Timeout)),
		News:           newsProvider,
		Extractor:      extract.NewClient(config.Seconds(cfg.Extract.Timeout)),
		Summarizer:     summarizer,
		PriceWorkers:   cfg.Market.Workers,
		SummaryWorkers: cfg.Concurrency.SummaryWorkers,
		MaxChars:       cfg.Extract.MaxChars,
		Timeout:        config.Seconds(cfg.Market.Timeout),
	}), nil
}

// Session 返回引擎持有的会话
func (e *Engine) Session() *cart.Session {
	return e.session
}

// RenderReport 把当前会话渲染为 Markdown 报告
func (e *Engine) RenderReport() string {
	_, content := e.Export()
	return content
}

// Export 返回渲染所用的会话快照及对应的 Markdown 报告
func (e *Engine) Export() (cart.Snapshot, string) {
	snap := e.session.Snapshot()
	return snap, report.Render(snap)
}

// normalizeTickers 大写、去空白、去重并保持顺序
func normalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
