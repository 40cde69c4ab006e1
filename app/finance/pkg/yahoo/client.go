package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/market"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
)

// 添加 User-Agent 避免被简单的反爬虫策略拦截
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client Yahoo Finance 客户端，同时提供行情和新闻
type Client struct {
	chartBaseURL  string
	searchBaseURL string
	client        *http.Client
}

// NewClient 创建一个新的 Yahoo Finance 客户端
func NewClient(chartBaseURL, searchBaseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		chartBaseURL:  chartBaseURL,
		searchBaseURL: searchBaseURL,
		client:        &http.Client{Timeout: timeout},
	}
}

var (
	_ market.Provider = (*Client)(nil)
	_ news.Provider   = (*Client)(nil)
)

// Name implements news.Provider
func (c *Client) Name() string {
	return "yahoo"
}

// chartResponse /v8/finance/chart 响应结构
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		ShortName          string  `json:"shortName"`
		LongName           string  `json:"longName"`
		Currency           string  `json:"currency"`
		GMTOffset          int     `json:"gmtoffset"`
		ExchangeTimezone   string  `json:"exchangeTimezoneName"`
		PreviousClose      float64 `json:"previousClose"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// History implements market.Provider
func (c *Client) History(ctx context.Context, req *market.Request) (*market.History, error) {
	u, err := url.Parse(c.chartBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = "/v8/finance/chart/" + url.PathEscape(req.Symbol)

	q := u.Query()
	q.Set("range", req.Range)
	q.Set("interval", req.Interval)
	q.Set("includePrePost", strconv.FormatBool(req.PrePost))
	u.RawQuery = q.Encode()

	body, status, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal chart response failed: %w", err)
	}

	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" || status == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", req.Symbol, market.ErrNoData)
		}
		return nil, fmt.Errorf("yahoo chart error %s: %s", e.Code, e.Description)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart api error (status %d): %s", status, string(body))
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", req.Symbol, market.ErrNoData)
	}

	return toHistory(req, &resp.Chart.Result[0]), nil
}

func toHistory(req *market.Request, r *chartResult) *market.History {
	loc := time.FixedZone(r.Meta.ExchangeTimezone, r.Meta.GMTOffset)

	name := r.Meta.ShortName
	if name == "" {
		name = r.Meta.LongName
	}
	if name == "" {
		name = req.Symbol
	}

	h := &market.History{
		Symbol:   req.Symbol,
		Name:     name,
		Currency: r.Meta.Currency,
		Location: loc,
	}

	// chartPreviousClose 是整个区间之前的收盘价，只有单日区间时才等于昨收
	h.PreviousClose = r.Meta.PreviousClose
	if h.PreviousClose == 0 && req.Range == "1d" {
		h.PreviousClose = r.Meta.ChartPreviousClose
	}

	if len(r.Indicators.Quote) == 0 {
		return h
	}
	quote := r.Indicators.Quote[0]
	for i, ts := range r.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := market.Bar{
			Time:  time.Unix(ts, 0).In(loc),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		h.Bars = append(h.Bars, bar)
	}
	return h
}

// Fetch implements news.Provider
func (c *Client) Fetch(ctx context.Context, symbol string, limit int) ([]news.Item, error) {
	u, err := url.Parse(c.searchBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = "/v1/finance/search"

	q := u.Query()
	q.Set("q", symbol)
	q.Set("quotesCount", "0")
	q.Set("newsCount", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	body, status, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo search api error (status %d): %s", status, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo search api returned invalid json")
	}

	var items []news.Item
	gjson.GetBytes(body, "news").ForEach(func(_, value gjson.Result) bool {
		items = append(items, news.Item(value.Raw))
		return limit <= 0 || len(items) < limit
	})
	return items, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("read body failed: %w", err)
	}
	return body, res.StatusCode, nil
}
