package model

import "time"

// Status 行情记录状态
type Status string

const (
	StatusActive Status = "Active"
	StatusNoData Status = "NoData"
	StatusError  Status = "Error"
)

// TrendPoint 日内走势采样点
type TrendPoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PriceRecord 单个 ticker 的行情快照
type PriceRecord struct {
	Symbol        string       `json:"symbol"`
	Name          string       `json:"name"`
	Price         float64      `json:"price"`
	ChangePercent float64      `json:"change_percent"` // 相对基准价的涨跌幅，保留两位小数
	Currency      string       `json:"currency,omitempty"`
	Trend         []TrendPoint `json:"trend,omitempty"`
	Status        Status       `json:"status"`
	Message       string       `json:"message,omitempty"` // Status 为 Error 时的错误信息
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewsCandidate 待筛选的新闻条目，ID 在一次 discovery 内稠密递增
type NewsCandidate struct {
	ID     int    `json:"id"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// SummaryRecord 已生成的新闻摘要，ID 沿用来源 NewsCandidate 的 ID
type SummaryRecord struct {
	ID      int    `json:"id"`
	Ticker  string `json:"ticker"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}
