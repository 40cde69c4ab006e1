// Package cart holds the single reporting session shared by all finance tools.
//
// A Session owns three collections: price records (keyed by symbol, kept in
// request order), the news candidates of the latest discovery, and the
// accumulated summaries. One RWMutex guards all of them; every exported
// method is one atomic step.
//
// Each price-fetch reset starts a new epoch. Batch results computed against an
// older epoch are rejected by the commit methods so an overlapping reset
// cannot be undone by a slow batch.
package cart

import (
	"sync"

	"github.com/google/uuid"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
)

// Session 会话购物车
type Session struct {
	mu sync.RWMutex

	epoch      string
	symbols    []string
	prices     map[string]model.PriceRecord
	candidates []model.NewsCandidate
	summaries  []model.SummaryRecord
}

// Snapshot 会话在某一时刻的只读拷贝
type Snapshot struct {
	Epoch     string
	Prices    []model.PriceRecord
	Summaries []model.SummaryRecord
}

// New 创建一个空会话
func New() *Session {
	return &Session{
		epoch:  uuid.NewString(),
		prices: make(map[string]model.PriceRecord),
	}
}

// Epoch 返回当前 epoch
func (s *Session) Epoch() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Reset 清空三个集合并开启新的 epoch，返回新 epoch
func (s *Session) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch = uuid.NewString()
	s.symbols = nil
	s.prices = make(map[string]model.PriceRecord)
	s.candidates = nil
	s.summaries = nil
	return s.epoch
}

// CommitPrices 写入一批行情。symbols 决定展示顺序，records 可按任意顺序给出。
// epoch 已过期时丢弃并返回 false。
func (s *Session) CommitPrices(epoch string, symbols []string, records []model.PriceRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}
	s.prices = make(map[string]model.PriceRecord, len(records))
	for _, r := range records {
		s.prices[r.Symbol] = r
	}
	s.symbols = append([]string(nil), symbols...)
	return true
}

// ReplaceCandidates 用新一轮 discovery 结果替换候选新闻，与 epoch 无关
func (s *Session) ReplaceCandidates(candidates []model.NewsCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = append([]model.NewsCandidate(nil), candidates...)
}

// Candidates 返回当前候选新闻的拷贝
func (s *Session) Candidates() []model.NewsCandidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.NewsCandidate(nil), s.candidates...)
}

// SelectCandidates 按请求顺序返回存在于当前候选列表中的条目，
// 不存在或重复的 id 被静默丢弃
func (s *Session) SelectCandidates(ids []int) []model.NewsCandidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[int]model.NewsCandidate, len(s.candidates))
	for _, c := range s.candidates {
		byID[c.ID] = c
	}

	seen := make(map[int]bool, len(ids))
	var selected []model.NewsCandidate
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, c)
	}
	return selected
}

// AppendSummaries 追加摘要，epoch 已过期时丢弃并返回 false
func (s *Session) AppendSummaries(epoch string, records []model.SummaryRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}
	s.summaries = append(s.summaries, records...)
	return true
}

// RemoveSummaries 删除 id 命中的所有摘要并返回剩余 id（保持插入顺序）。
// ids 为空时只读，不加写锁。
func (s *Session) RemoveSummaries(ids []int) []int {
	if len(ids) == 0 {
		return s.SummaryIDs()
	}

	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.summaries[:0:0]
	for _, r := range s.summaries {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	s.summaries = kept
	return summaryIDs(kept)
}

// SummaryIDs 返回当前摘要 id（保持插入顺序）
func (s *Session) SummaryIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return summaryIDs(s.summaries)
}

func summaryIDs(records []model.SummaryRecord) []int {
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

// Snapshot 返回一致性快照，行情按请求顺序排列
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices := make([]model.PriceRecord, 0, len(s.prices))
	for _, sym := range s.symbols {
		if r, ok := s.prices[sym]; ok {
			r.Trend = append([]model.TrendPoint(nil), r.Trend...)
			prices = append(prices, r)
		}
	}
	return Snapshot{
		Epoch:     s.epoch,
		Prices:    prices,
		Summaries: append([]model.SummaryRecord(nil), s.summaries...),
	}
}
