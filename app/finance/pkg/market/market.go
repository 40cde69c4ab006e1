package market

import (
	"context"
	"errors"
	"time"
)

// ErrNoData 数据源没有该 symbol 的数据（休市或未知代码）
var ErrNoData = errors.New("no data")

// Provider 定义通用的行情历史接口
type Provider interface {
	History(ctx context.Context, req *Request) (*History, error)
}

// Request 行情历史请求
type Request struct {
	Symbol   string
	Range    string // "1d", "5d"
	Interval string // "60m"
	PrePost  bool   // 是否包含盘前盘后
}

// History 行情历史
type History struct {
	Symbol        string
	Name          string
	Currency      string
	PreviousClose float64        // 0 表示数据源未提供
	Location      *time.Location // 交易所时区
	Bars          []Bar          // 按时间升序
}

// Bar 单根 K 线
type Bar struct {
	Time  time.Time
	Open  float64
	Close float64
}
