package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/cart"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/market"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/summarize"
)

var ny = time.FixedZone("EST", -5*3600)

// fakeMarket 按 symbol+range 返回预置的历史数据
type fakeMarket struct {
	mu      sync.Mutex
	history map[string]*market.History
	errs    map[string]error
	calls   []string
}

func (f *fakeMarket) History(_ context.Context, req *market.Request) (*market.History, error) {
	key := req.Symbol + "/" + req.Range
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if h, ok := f.history[key]; ok {
		return h, nil
	}
	return &market.History{Symbol: req.Symbol}, nil
}

type fakeNews struct {
	items map[string][]news.Item
	errs  map[string]error
}

func (f *fakeNews) Name() string { return "fake" }

func (f *fakeNews) Fetch(_ context.Context, symbol string, _ int) ([]news.Item, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.items[symbol], nil
}

type fakeExtractor struct {
	pages map[string]string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (string, error) {
	text, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("http status 404")
	}
	return text, nil
}

// fakeSummarizer 回显正文长度与关注点，便于断言
type fakeSummarizer struct {
	mu   sync.Mutex
	reqs []summarize.Request
	err  error
}

func (f *fakeSummarizer) Summarize(_ context.Context, req *summarize.Request) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, *req)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("summary of %s (%d chars, focus=%s)", req.URL, len([]rune(req.Text)), req.Focus), nil
}

func item(title, link string) news.Item {
	return news.Item(fmt.Sprintf(`{"title":%q,"link":%q}`, title, link))
}

func newTestEngine(m market.Provider, n news.Provider, x *fakeExtractor, s *fakeSummarizer) *Engine {
	if m == nil {
		m = &fakeMarket{}
	}
	if n == nil {
		n = &fakeNews{}
	}
	if x == nil {
		x = &fakeExtractor{}
	}
	if s == nil {
		s = &fakeSummarizer{}
	}
	return New(Options{
		Session:        cart.New(),
		Market:         m,
		News:           n,
		Extractor:      x,
		Summarizer:     s,
		PriceWorkers:   1,
		SummaryWorkers: 1,
		Timeout:        time.Second,
	})
}

func TestNew_Defaults(t *testing.T) {
	e := New(Options{PriceWorkers: 50})

	assert.NotNil(t, e.Session())
	assert.Equal(t, maxPriceWorkers, e.priceWorkers)
	assert.Equal(t, 5, e.summaryWorkers)
	assert.Equal(t, 12000, e.maxChars)
	assert.Equal(t, 15*time.Second, e.timeout)
}

func TestNormalizeTickers(t *testing.T) {
	got := normalizeTickers([]string{" nvda", "AAPL", "", "nvda ", "msft"})
	assert.Equal(t, []string{"NVDA", "AAPL", "MSFT"}, got)
	assert.Empty(t, normalizeTickers([]string{" ", ""}))
}

func TestRenderReport_OneLinePerTicker(t *testing.T) {
	m := &fakeMarket{history: map[string]*market.History{
		"NVDA/1d": {
			Symbol: "NVDA", Name: "NVIDIA Corporation", PreviousClose: 100,
			Bars: []market.Bar{
				{Time: time.Date(2026, 1, 9, 9, 30, 0, 0, ny), Open: 101, Close: 102},
				{Time: time.Date(2026, 1, 9, 10, 30, 0, 0, ny), Open: 102, Close: 104.2},
			},
		},
	}}
	e := newTestEngine(m, nil, nil, nil)

	_, err := e.FetchPrices(context.Background(), []string{"NVDA", "ZZZZ"}, false)
	require.NoError(t, err)

	out := e.RenderReport()
	assert.Equal(t, 1, strings.Count(out, "- **NVDA**"))
	assert.Equal(t, 1, strings.Count(out, "- **ZZZZ**"))
	assert.Contains(t, out, "- **NVDA** (NVIDIA Corporation): $104.20 (+4.20%)")
	assert.Contains(t, out, "- **ZZZZ**: NoData")
	assert.Contains(t, out, "_No news summaries selected._")
	assert.Less(t, strings.Index(out, "NVDA"), strings.Index(out, "ZZZZ"))
}

func TestEngine_EndToEnd(t *testing.T) {
	m := &fakeMarket{history: map[string]*market.History{
		"AAPL/1d": {
			Symbol: "AAPL", Name: "Apple Inc.", PreviousClose: 200,
			Bars: []market.Bar{{Time: time.Date(2026, 1, 9, 9, 30, 0, 0, ny), Open: 200, Close: 199}},
		},
	}}
	n := &fakeNews{items: map[string][]news.Item{
		"AAPL": {
			item("Apple guides lower", "https://ex.com/a"),
			item("Apple buyback", "https://ex.com/b"),
		},
	}}
	x := &fakeExtractor{pages: map[string]string{
		"https://ex.com/a": "body a",
		"https://ex.com/b": "body b",
	}}
	e := newTestEngine(m, n, x, nil)
	ctx := context.Background()

	quick, err := e.FetchPrices(ctx, []string{"aapl"}, false)
	require.NoError(t, err)
	assert.Equal(t, "AAPL: -0.5%", quick)

	menu, err := e.DiscoverNews(ctx, []string{"AAPL"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "[0] AAPL | Apple guides lower\n[1] AAPL | Apple buyback", menu)

	_, err = e.SummarizeSelected(ctx, []int{1, 0}, "")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, e.RemoveSummaries([]int{1}))

	out := e.RenderReport()
	assert.Contains(t, out, "- **AAPL** (Apple Inc.): $199.00 (-0.50%)")
	assert.Contains(t, out, "### AAPL | Apple guides lower")
	assert.NotContains(t, out, "Apple buyback")
	assert.Contains(t, out, "*Ref ID: 0*")
}

func TestEngine_FetchPricesDiscardsSummariesOfPreviousSession(t *testing.T) {
	n := &fakeNews{items: map[string][]news.Item{"AAPL": {item("A", "https://ex.com/a")}}}
	x := &fakeExtractor{pages: map[string]string{"https://ex.com/a": "body"}}
	e := newTestEngine(nil, n, x, nil)
	ctx := context.Background()

	_, err := e.DiscoverNews(ctx, []string{"AAPL"}, 1)
	require.NoError(t, err)
	_, err = e.SummarizeSelected(ctx, []int{0}, "")
	require.NoError(t, err)
	require.Equal(t, []int{0}, e.RemoveSummaries(nil))

	_, err = e.FetchPrices(ctx, []string{"AAPL"}, false)
	require.NoError(t, err)

	assert.Empty(t, e.RemoveSummaries(nil))
	assert.Empty(t, e.Session().Candidates())
}

func TestEngine_SentinelErrors(t *testing.T) {
	e := newTestEngine(nil, nil, nil, nil)
	ctx := context.Background()

	_, err := e.FetchPrices(ctx, nil, false)
	assert.True(t, errors.Is(err, ErrNoTickers))

	_, err = e.DiscoverNews(ctx, []string{" "}, 3)
	assert.True(t, errors.Is(err, ErrNoTickers))

	_, err = e.SummarizeSelected(ctx, []int{0}, "")
	assert.True(t, errors.Is(err, ErrInvalidSelection))
}
