package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
)

const searchPath = "/search"

// Client Tavily 新闻搜索客户端，按 ticker 检索最近几天的新闻
type Client struct {
	apiKey       string
	baseURL      string
	lookbackDays int
	client       *http.Client
	now          func() time.Time
}

// NewClient 创建一个新的 Tavily 客户端
func NewClient(apiKey, baseURL string, lookbackDays int, timeout time.Duration) *Client {
	if lookbackDays <= 0 {
		lookbackDays = 3
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		lookbackDays: lookbackDays,
		client:       &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

var _ news.Provider = (*Client)(nil)

// Name implements news.Provider
func (c *Client) Name() string {
	return "tavily"
}

// SearchRequest Tavily 搜索请求参数
type SearchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"` // basic or advanced
	Topic       string `json:"topic,omitempty"`        // general or news
	MaxResults  int    `json:"max_results,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// Fetch implements news.Provider。
// 结果条目保留 Tavily 原始 JSON，标题在 title，链接在 url。
func (c *Client) Fetch(ctx context.Context, symbol string, limit int) ([]news.Item, error) {
	to := c.now()
	req := SearchRequest{
		Query:       symbol + " stock news",
		SearchDepth: "basic",
		Topic:       "news",
		MaxResults:  limit,
		StartDate:   to.AddDate(0, 0, -c.lookbackDays).Format(time.DateOnly),
		EndDate:     to.Format(time.DateOnly),
	}

	body, err := c.doSearch(ctx, req)
	if err != nil {
		return nil, err
	}

	var items []news.Item
	gjson.GetBytes(body, "results").ForEach(func(_, v gjson.Result) bool {
		if limit > 0 && len(items) >= limit {
			return false
		}
		items = append(items, news.Item(v.Raw))
		return true
	})
	return items, nil
}

func (c *Client) doSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Add("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Add("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}
	return body, nil
}
