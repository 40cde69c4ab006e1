package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
)

func TestDiscoverNews_DenseIDsAndDedup(t *testing.T) {
	n := &fakeNews{items: map[string][]news.Item{
		"NVDA": {
			item("Nvidia beats", "https://ex.com/1"),
			item("Nvidia rally", " HTTPS://EX.COM/1 "),
			item("No Title", "https://ex.com/2"),
			item("Chip stocks surge", "https://ex.com/3"),
			news.Item(`{"title":"No link"}`),
		},
	}}
	e := newTestEngine(nil, n, nil, nil)

	menu, err := e.DiscoverNews(context.Background(), []string{"nvda"}, 4)
	require.NoError(t, err)
	assert.Equal(t, "[0] NVDA | Nvidia beats\n[1] NVDA | Chip stocks surge", menu)

	got := e.Session().Candidates()
	require.Len(t, got, 2)
	assert.Equal(t, model.NewsCandidate{ID: 1, Ticker: "NVDA", Title: "Chip stocks surge", URL: "https://ex.com/3"}, got[1])
}

func TestDiscoverNews_CrossTickerTitleDedup(t *testing.T) {
	n := &fakeNews{items: map[string][]news.Item{
		"NVDA": {item("Chip stocks surge", "https://ex.com/nvda")},
		"AMD":  {item("chip stocks surge ", "https://ex.com/amd"), item("AMD wins deal", "https://ex.com/deal")},
	}}
	e := newTestEngine(nil, n, nil, nil)

	menu, err := e.DiscoverNews(context.Background(), []string{"NVDA", "AMD"}, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(strings.ToLower(menu), "chip stocks surge"))
	assert.Contains(t, menu, "AMD | AMD wins deal")

	got := e.Session().Candidates()
	require.Len(t, got, 2)
	for i, c := range got {
		assert.Equal(t, i, c.ID)
	}
}

func TestDiscoverNews_LinkPriority(t *testing.T) {
	n := &fakeNews{items: map[string][]news.Item{
		"AAPL": {news.Item(`{"content":{"title":"Apple","clickThroughUrl":{"url":"https://click"},"canonicalUrl":{"url":"https://canon"}},"link":"https://link"}`)},
	}}
	e := newTestEngine(nil, n, nil, nil)

	_, err := e.DiscoverNews(context.Background(), []string{"AAPL"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "https://click", e.Session().Candidates()[0].URL)
}

func TestDiscoverNews_LimitCap(t *testing.T) {
	var items []news.Item
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		items = append(items, item("Story "+s, "https://ex.com/"+s))
	}
	e := newTestEngine(nil, &fakeNews{items: map[string][]news.Item{"TSLA": items}}, nil, nil)

	_, err := e.DiscoverNews(context.Background(), []string{"TSLA"}, 10)
	require.NoError(t, err)
	assert.Len(t, e.Session().Candidates(), maxNewsPerTicker)

	_, err = e.DiscoverNews(context.Background(), []string{"TSLA"}, 0)
	require.NoError(t, err)
	assert.Len(t, e.Session().Candidates(), defaultNewsPerTick)
}

func TestDiscoverNews_ProviderErrorIsolated(t *testing.T) {
	n := &fakeNews{
		items: map[string][]news.Item{"AAPL": {item("Apple", "https://ex.com/a")}},
		errs:  map[string]error{"NVDA": errors.New("boom")},
	}
	e := newTestEngine(nil, n, nil, nil)

	menu, err := e.DiscoverNews(context.Background(), []string{"NVDA", "AAPL"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "[0] AAPL | Apple", menu)
}

func TestDiscoverNews_ReplacesCandidates(t *testing.T) {
	n := &fakeNews{items: map[string][]news.Item{
		"AAPL": {item("Apple", "https://ex.com/a")},
		"MSFT": {item("Microsoft", "https://ex.com/m")},
	}}
	e := newTestEngine(nil, n, nil, nil)
	ctx := context.Background()

	_, err := e.DiscoverNews(ctx, []string{"AAPL"}, 3)
	require.NoError(t, err)
	_, err = e.DiscoverNews(ctx, []string{"MSFT"}, 3)
	require.NoError(t, err)

	got := e.Session().Candidates()
	require.Len(t, got, 1)
	assert.Equal(t, "MSFT", got[0].Ticker)

	_, err = e.DiscoverNews(ctx, nil, 3)
	assert.ErrorIs(t, err, ErrNoTickers)
	assert.Empty(t, e.Session().Candidates())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 3, clampLimit(-1))
	assert.Equal(t, 3, clampLimit(0))
	assert.Equal(t, 2, clampLimit(2))
	assert.Equal(t, 4, clampLimit(9))
}
