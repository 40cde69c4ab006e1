package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/logger"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/market"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/parallel"
)

const historyInterval = "60m"

// FetchPrices 开启新的会话 epoch，并发拉取行情后写入会话，返回一行速览。
// 速览条目按完成顺序排列。
func (e *Engine) FetchPrices(ctx context.Context, tickers []string, extendedHours bool) (string, error) {
	epoch := e.session.Reset()

	symbols := normalizeTickers(tickers)
	if len(symbols) == 0 {
		return "", ErrNoTickers
	}
	logger.Log.Infof("开始拉取 %d 个 ticker 的行情 (epoch=%s)", len(symbols), epoch)

	records := parallel.Map(ctx, symbols, e.priceWorkers, func(ctx context.Context, symbol string) model.PriceRecord {
		return e.fetchPrice(ctx, symbol, extendedHours)
	})

	if !e.session.CommitPrices(epoch, symbols, records) {
		logger.Log.Warnf("会话已被重置，丢弃过期行情 (epoch=%s)", epoch)
	}

	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, quickView(r))
	}
	return strings.Join(parts, ", "), nil
}

func quickView(r model.PriceRecord) string {
	if r.Status != model.StatusActive {
		return fmt.Sprintf("%s: %s", r.Symbol, r.Status)
	}
	return fmt.Sprintf("%s: %s%%", r.Symbol, strconv.FormatFloat(r.ChangePercent, 'f', -1, 64))
}

// fetchPrice 拉取单个 ticker；失败只体现在记录状态上，不影响其他 ticker
func (e *Engine) fetchPrice(ctx context.Context, symbol string, extendedHours bool) model.PriceRecord {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rec := model.PriceRecord{Symbol: symbol, Name: symbol, UpdatedAt: e.now()}

	h, err := e.history(ctx, symbol, "1d", extendedHours)
	if err == nil && len(h.Bars) == 0 {
		// 休市时当日没有数据，回退到最近 5 天
		h, err = e.history(ctx, symbol, "5d", extendedHours)
	}

	switch {
	case errors.Is(err, market.ErrNoData):
		rec.Status = model.StatusNoData
		return rec
	case err != nil:
		logger.Log.Errorf("拉取行情失败 [%s]: %v", symbol, err)
		rec.Status = model.StatusError
		rec.Message = err.Error()
		return rec
	case len(h.Bars) == 0:
		rec.Status = model.StatusNoData
		return rec
	}

	if h.Name != "" {
		rec.Name = h.Name
	}
	rec.Currency = h.Currency

	last := h.Bars[len(h.Bars)-1]
	day := lastTradingDay(h.Bars)

	rec.Price = last.Close
	if base := baseline(h, day); base != 0 {
		rec.ChangePercent = round2((last.Close - base) / base * 100)
	}
	rec.Trend = make([]model.TrendPoint, 0, len(day))
	for _, b := range day {
		rec.Trend = append(rec.Trend, model.TrendPoint{Time: b.Time, Price: b.Close})
	}
	rec.Status = model.StatusActive
	return rec
}

func (e *Engine) history(ctx context.Context, symbol, rng string, prePost bool) (*market.History, error) {
	return e.market.History(ctx, &market.Request{
		Symbol:   symbol,
		Range:    rng,
		Interval: historyInterval,
		PrePost:  prePost,
	})
}

// lastTradingDay 返回序列中最后一个交易日的采样（按交易所本地日期划分）
func lastTradingDay(bars []market.Bar) []market.Bar {
	y, m, d := bars[len(bars)-1].Time.Date()
	start := len(bars) - 1
	for start > 0 {
		py, pm, pd := bars[start-1].Time.Date()
		if py != y || pm != m || pd != d {
			break
		}
		start--
	}
	return bars[start:]
}

// baseline 优先昨收，其次最后交易日首个开盘价，最后整个序列首个开盘价
func baseline(h *market.History, day []market.Bar) float64 {
	if h.PreviousClose > 0 {
		return h.PreviousClose
	}
	if len(day) > 0 && day[0].Open > 0 {
		return day[0].Open
	}
	return h.Bars[0].Open
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
