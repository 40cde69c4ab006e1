package factory

import (
	"fmt"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/config"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/finnhub"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/news"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/tavily"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/yahoo"
)

// NewProvider 根据配置创建新闻数据源
func NewProvider(cfg *config.Config) (news.Provider, error) {
	switch cfg.News.Provider {
	case "", "yahoo":
		return yahoo.NewClient(cfg.Market.BaseURL, cfg.News.Yahoo.BaseURL, config.Seconds(cfg.News.Timeout)), nil

	case "finnhub":
		if cfg.News.Finnhub.APIKey == "" {
			return nil, fmt.Errorf("finnhub api key is missing")
		}
		return finnhub.NewClient(cfg.News.Finnhub.APIKey, cfg.News.Finnhub.LookbackDays), nil

	case "tavily":
		if cfg.News.Tavily.APIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		return tavily.NewClient(cfg.News.Tavily.APIKey, cfg.News.Tavily.BaseURL,
			cfg.News.Tavily.LookbackDays, config.Seconds(cfg.News.Timeout)), nil

	default:
		return nil, fmt.Errorf("unknown news provider: %s", cfg.News.Provider)
	}
}
