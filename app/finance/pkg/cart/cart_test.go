package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
)

func summaries(ids ...int) []model.SummaryRecord {
	out := make([]model.SummaryRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.SummaryRecord{ID: id, Ticker: "NVDA", Title: "t", Summary: "s"})
	}
	return out
}

func TestSession_ResetClearsEverything(t *testing.T) {
	s := New()
	epoch := s.Epoch()
	require.True(t, s.CommitPrices(epoch, []string{"NVDA"}, []model.PriceRecord{{Symbol: "NVDA", Status: model.StatusActive}}))
	s.ReplaceCandidates([]model.NewsCandidate{{ID: 0, Ticker: "NVDA", Title: "a", URL: "u"}})
	require.True(t, s.AppendSummaries(epoch, summaries(0)))

	next := s.Reset()

	assert.NotEqual(t, epoch, next)
	snap := s.Snapshot()
	assert.Empty(t, snap.Prices)
	assert.Empty(t, snap.Summaries)
	assert.Empty(t, s.Candidates())
}

func TestSession_StaleEpochRejected(t *testing.T) {
	s := New()
	old := s.Epoch()
	s.Reset()

	assert.False(t, s.CommitPrices(old, []string{"AAPL"}, []model.PriceRecord{{Symbol: "AAPL"}}))
	assert.False(t, s.AppendSummaries(old, summaries(1)))
	assert.Empty(t, s.Snapshot().Prices)
	assert.Empty(t, s.SummaryIDs())
}

func TestSession_SnapshotKeepsRequestOrder(t *testing.T) {
	s := New()
	epoch := s.Epoch()
	records := []model.PriceRecord{{Symbol: "AAPL"}, {Symbol: "^GSPC"}, {Symbol: "NVDA"}}
	require.True(t, s.CommitPrices(epoch, []string{"NVDA", "AAPL", "^GSPC"}, records))

	var got []string
	for _, r := range s.Snapshot().Prices {
		got = append(got, r.Symbol)
	}
	assert.Equal(t, []string{"NVDA", "AAPL", "^GSPC"}, got)
}

func TestSession_SelectCandidates(t *testing.T) {
	s := New()
	s.ReplaceCandidates([]model.NewsCandidate{
		{ID: 0, Ticker: "NVDA", Title: "a", URL: "u0"},
		{ID: 1, Ticker: "AAPL", Title: "b", URL: "u1"},
	})

	got := s.SelectCandidates([]int{1, 7, 1, 0, -3})
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 0, got[1].ID)

	assert.Empty(t, s.SelectCandidates([]int{5}))
}

func TestSession_ReplaceCandidatesKeepsSummaries(t *testing.T) {
	s := New()
	require.True(t, s.AppendSummaries(s.Epoch(), summaries(0, 1)))
	s.ReplaceCandidates([]model.NewsCandidate{{ID: 0, Title: "new", URL: "u"}})
	require.True(t, s.AppendSummaries(s.Epoch(), summaries(0)))

	assert.Equal(t, []int{0, 1, 0}, s.SummaryIDs())
}

func TestSession_RemoveSummaries(t *testing.T) {
	s := New()
	require.True(t, s.AppendSummaries(s.Epoch(), summaries(0, 1, 2)))

	assert.Equal(t, []int{0, 2}, s.RemoveSummaries([]int{1, 42}))
	assert.Equal(t, []int{0, 2}, s.RemoveSummaries(nil))
	assert.Equal(t, []int{0, 2}, s.RemoveSummaries([]int{}))

	snap := s.Snapshot()
	require.Len(t, snap.Summaries, 2)
	assert.Equal(t, 0, snap.Summaries[0].ID)
	assert.Equal(t, 2, snap.Summaries[1].ID)
}

func TestSession_SnapshotIsCopy(t *testing.T) {
	s := New()
	epoch := s.Epoch()
	require.True(t, s.CommitPrices(epoch, []string{"NVDA"}, []model.PriceRecord{
		{Symbol: "NVDA", Trend: []model.TrendPoint{{Price: 1}}},
	}))
	require.True(t, s.AppendSummaries(epoch, summaries(3)))

	snap := s.Snapshot()
	snap.Prices[0].Trend[0].Price = 99
	snap.Summaries[0].Summary = "mutated"

	again := s.Snapshot()
	assert.Equal(t, 1.0, again.Prices[0].Trend[0].Price)
	assert.Equal(t, "s", again.Summaries[0].Summary)
}

func TestSession_ConcurrentUse(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			s.AppendSummaries(s.Epoch(), summaries(i))
		}(i)
		go func() {
			defer wg.Done()
			s.ReplaceCandidates([]model.NewsCandidate{{ID: 0}})
		}()
		go func(i int) {
			defer wg.Done()
			s.RemoveSummaries([]int{i})
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, len(s.SummaryIDs()), 50)
}
