package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
)

// Client Finnhub 个股新闻客户端
type Client struct {
	api          *finnhub.DefaultApiService
	lookbackDays int
	now          func() time.Time
}

// NewClient 创建 Finnhub 客户端，lookbackDays 为向前检索的天数
func NewClient(apiKey string, lookbackDays int) *Client {
	return newClient(apiKey, "", lookbackDays)
}

// newClient baseURL 为空时使用 SDK 默认地址
func newClient(apiKey, baseURL string, lookbackDays int) *Client {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if baseURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: baseURL}}
	}
	if lookbackDays <= 0 {
		lookbackDays = 3
	}
	return &Client{
		api:          finnhub.NewAPIClient(cfg).DefaultApi,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

var _ news.Provider = (*Client)(nil)

// Name implements news.Provider
func (c *Client) Name() string {
	return "finnhub"
}

// Fetch implements news.Provider。
// 条目以 Finnhub 原始 JSON 形式返回，标题在 headline，链接在 url。
func (c *Client) Fetch(ctx context.Context, symbol string, limit int) ([]news.Item, error) {
	to := c.now()
	from := to.AddDate(0, 0, -c.lookbackDays)

	res, _, err := c.api.CompanyNews(ctx).
		Symbol(symbol).
		From(from.Format(time.DateOnly)).
		To(to.Format(time.DateOnly)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub company news %s: %w", symbol, err)
	}

	items := make([]news.Item, 0, len(res))
	for _, n := range res {
		if limit > 0 && len(items) >= limit {
			break
		}
		raw, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("marshal finnhub item: %w", err)
		}
		items = append(items, news.Item(raw))
	}
	return items, nil
}
