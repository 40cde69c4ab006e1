package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/cart"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/engine"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
)

const (
	ToolFetchPrices    = "fetch_and_store_prices"
	ToolSearchNews     = "search_news_options"
	ToolSummarize      = "summarize_selected_indices"
	ToolRemoveSummary  = "remove_news_summaries"
	ToolExportReport   = "export_final_report"
	reasonToolNotFound = "TOOL_NOT_FOUND"
	reasonInvalidArgs  = "INVALID_ARGUMENTS"
)

// Engine 工具层依赖的引擎能力
type Engine interface {
	FetchPrices(ctx context.Context, tickers []string, extendedHours bool) (string, error)
	DiscoverNews(ctx context.Context, tickers []string, perTickerLimit int) (string, error)
	SummarizeSelected(ctx context.Context, ids []int, focus string) ([]model.SummaryRecord, error)
	RemoveSummaries(ids []int) []int
	Export() (cart.Snapshot, string)
}

// Archiver 报告归档，可为空
type Archiver interface {
	SaveReport(ctx context.Context, snap cart.Snapshot, content string) (int, error)
}

// ToolInfo 工具描述，Parameters 为 JSON Schema
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type tool struct {
	info ToolInfo
	call func(ctx context.Context, raw json.RawMessage) (string, error)
}

// FinanceService 把引擎操作暴露为命名工具，所有结果都是字符串
type FinanceService struct {
	eng     Engine
	archive Archiver
	tools   map[string]*tool
	log     *log.Helper
}

func NewFinanceService(eng Engine, archive Archiver, logger log.Logger) *FinanceService {
	s := &FinanceService{
		eng:     eng,
		archive: archive,
		log:     log.NewHelper(logger),
	}
	s.tools = map[string]*tool{
		ToolFetchPrices: {
			info: ToolInfo{
				Name: ToolFetchPrices,
				Description: "Start a new briefing session: fetch latest prices and intraday trend for the tickers " +
					"and store them. Clears previously stored news candidates and summaries. Returns a quick view.",
				Parameters: object(map[string]any{
					"tickers":        stringArray("Ticker symbols, e.g. [\"^GSPC\", \"NVDA\"]"),
					"extended_hours": map[string]any{"type": "boolean", "description": "Include pre/post market data"},
				}, "tickers"),
			},
			call: s.fetchPrices,
		},
		ToolSearchNews: {
			info: ToolInfo{
				Name:        ToolSearchNews,
				Description: "List recent news headlines for the tickers as a numbered menu. Returns lines of \"[id] TICKER | title\".",
				Parameters: object(map[string]any{
					"tickers": stringArray("Ticker symbols"),
					"limit":   map[string]any{"type": "integer", "description": "Headlines per ticker (1-4, default 3)"},
				}, "tickers"),
			},
			call: s.searchNews,
		},
		ToolSummarize: {
			info: ToolInfo{
				Name:        ToolSummarize,
				Description: "Fetch and summarize the selected menu entries. Call once with all selected ids.",
				Parameters: object(map[string]any{
					"indices":           intArray("Menu ids to summarize"),
					"focus_instruction": map[string]any{"type": "string", "description": "What the summaries should focus on"},
				}, "indices"),
			},
			call: s.summarize,
		},
		ToolRemoveSummary: {
			info: ToolInfo{
				Name: ToolRemoveSummary,
				Description: "Delete stored summaries by id and return the remaining ids. An empty list only returns the current ids. " +
					"Keep at least 4 summaries in the report.",
				Parameters: object(map[string]any{
					"indices": intArray("Summary ids to delete"),
				}, "indices"),
			},
			call: s.removeSummaries,
		},
		ToolExportReport: {
			info: ToolInfo{
				Name:        ToolExportReport,
				Description: "Render the stored prices and summaries as the final Markdown report.",
				Parameters:  object(map[string]any{}),
			},
			call: s.exportReport,
		},
	}
	return s
}

// Tools 按名称排序返回所有工具描述
func (s *FinanceService) Tools() []ToolInfo {
	infos := make([]ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		infos = append(infos, t.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Call 执行工具。未知工具与参数格式错误返回 kratos 错误，
// 业务失败以 "Error: ..." 字符串作为结果返回。
func (s *FinanceService) Call(ctx context.Context, name string, raw json.RawMessage) (string, error) {
	t, ok := s.tools[name]
	if !ok {
		return "", errors.NotFound(reasonToolNotFound, fmt.Sprintf("unknown tool %q", name))
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	s.log.WithContext(ctx).Infof("call tool %s", name)
	result, err := t.call(ctx, raw)
	if err != nil {
		if errors.Reason(err) == reasonInvalidArgs {
			return "", err
		}
		s.log.WithContext(ctx).Warnf("tool %s failed: %v", name, err)
		return "Error: " + err.Error(), nil
	}
	return result, nil
}

type fetchPricesArgs struct {
	Tickers       []string `json:"tickers"`
	ExtendedHours bool     `json:"extended_hours"`
}

func (s *FinanceService) fetchPrices(ctx context.Context, raw json.RawMessage) (string, error) {
	var args fetchPricesArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	return s.eng.FetchPrices(ctx, args.Tickers, args.ExtendedHours)
}

type searchNewsArgs struct {
	Tickers []string `json:"tickers"`
	Limit   int      `json:"limit"`
}

func (s *FinanceService) searchNews(ctx context.Context, raw json.RawMessage) (string, error) {
	var args searchNewsArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	return s.eng.DiscoverNews(ctx, args.Tickers, args.Limit)
}

type summarizeArgs struct {
	Indices          []int  `json:"indices"`
	FocusInstruction string `json:"focus_instruction"`
}

func (s *FinanceService) summarize(ctx context.Context, raw json.RawMessage) (string, error) {
	var args summarizeArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	records, err := s.eng.SummarizeSelected(ctx, args.Indices, args.FocusInstruction)
	if err != nil {
		return "", err
	}
	return marshal(records)
}

type removeArgs struct {
	Indices []int `json:"indices"`
}

func (s *FinanceService) removeSummaries(_ context.Context, raw json.RawMessage) (string, error) {
	var args removeArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	return marshal(s.eng.RemoveSummaries(args.Indices))
}

func (s *FinanceService) exportReport(ctx context.Context, _ json.RawMessage) (string, error) {
	snap, content := s.eng.Export()

	if s.archive != nil {
		if id, err := s.archive.SaveReport(ctx, snap, content); err != nil {
			s.log.WithContext(ctx).Errorf("archive report failed: %v", err)
		} else {
			s.log.WithContext(ctx).Infof("report archived, id=%d", id)
		}
	}
	return content, nil
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decode 解析工具参数，格式错误统一映射为 INVALID_ARGUMENTS
func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.BadRequest(reasonInvalidArgs, err.Error())
	}
	return nil
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringArray(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

func intArray(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "integer"},
		"description": desc,
	}
}

var _ Engine = (*engine.Engine)(nil)
