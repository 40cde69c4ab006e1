package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
)

func TestFetch(t *testing.T) {
	var got SearchRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"query":"NVDA stock news","results":[
			{"title":"Nvidia beats","url":"https://ex.com/1","content":"...","score":0.9},
			{"title":"Chip rally","url":"https://ex.com/2"},
			{"title":"Extra","url":"https://ex.com/3"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("tvly-key", srv.URL+"/", 2, time.Second)
	c.now = func() time.Time { return time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC) }

	items, err := c.Fetch(context.Background(), "NVDA", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Bearer tvly-key", auth)
	assert.Equal(t, "NVDA stock news", got.Query)
	assert.Equal(t, "news", got.Topic)
	assert.Equal(t, 2, got.MaxResults)
	assert.Equal(t, "2026-01-07", got.StartDate)
	assert.Equal(t, "2026-01-09", got.EndDate)

	assert.Equal(t, "Nvidia beats", news.Title(items[0]))
	assert.Equal(t, "https://ex.com/2", news.Link(items[1]))
}

func TestFetch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("bad", srv.URL, 0, time.Second).Fetch(context.Background(), "NVDA", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
