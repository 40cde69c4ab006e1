package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Market      MarketConfig      `yaml:"market"`
	News        NewsConfig        `yaml:"news"`
	Extract     ExtractConfig     `yaml:"extract"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai or anthropic
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// MarketConfig 行情数据源配置
type MarketConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // 单个 ticker 请求超时（秒）
	Workers int    `yaml:"workers"`
}

// NewsConfig 新闻数据源配置
type NewsConfig struct {
	Provider string        `yaml:"provider"` // yahoo, finnhub or tavily
	Yahoo    YahooConfig   `yaml:"yahoo"`
	Finnhub  FinnhubConfig `yaml:"finnhub"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	Timeout  int           `yaml:"timeout"`
}

// YahooConfig Yahoo Finance 配置
type YahooConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FinnhubConfig Finnhub 配置
type FinnhubConfig struct {
	APIKey       string `yaml:"api_key"`
	LookbackDays int    `yaml:"lookback_days"`
}

// TavilyConfig Tavily 新闻搜索配置
type TavilyConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	LookbackDays int    `yaml:"lookback_days"`
}

// ExtractConfig 正文抓取配置
type ExtractConfig struct {
	Timeout  int `yaml:"timeout"`
	MaxChars int `yaml:"max_chars"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS            int `yaml:"qps"`
	RPM            int `yaml:"rpm"`
	SummaryWorkers int `yaml:"summary_workers"`
}

// ServerConfig 工具服务监听配置
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DBConfig 数据库相关配置，Host 为空时不归档报告
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LoadConfig 从指定路径加载配置，并用环境变量（含 .env）覆盖密钥
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	switch c.LLM.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.News.Finnhub.APIKey = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.News.Tavily.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.1
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Market.Timeout == 0 {
		c.Market.Timeout = 15
	}
	if c.Market.Workers == 0 {
		c.Market.Workers = 10
	}
	if c.News.Provider == "" {
		c.News.Provider = "yahoo"
	}
	if c.News.Yahoo.BaseURL == "" {
		c.News.Yahoo.BaseURL = "https://query2.finance.yahoo.com"
	}
	if c.News.Finnhub.LookbackDays == 0 {
		c.News.Finnhub.LookbackDays = 3
	}
	if c.News.Tavily.BaseURL == "" {
		c.News.Tavily.BaseURL = "https://api.tavily.com"
	}
	if c.News.Tavily.LookbackDays == 0 {
		c.News.Tavily.LookbackDays = 3
	}
	if c.News.Timeout == 0 {
		c.News.Timeout = 15
	}
	if c.Extract.Timeout == 0 {
		c.Extract.Timeout = 10
	}
	if c.Extract.MaxChars == 0 {
		c.Extract.MaxChars = 12000
	}
	if c.Concurrency.RPM == 0 {
		c.Concurrency.RPM = 30
	}
	if c.Concurrency.QPS == 0 {
		c.Concurrency.QPS = 1
	}
	if c.Concurrency.SummaryWorkers == 0 {
		c.Concurrency.SummaryWorkers = 5
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:8000"
	}
	if c.Server.Timeout == "" {
		// 需覆盖一次完整的摘要批处理
		c.Server.Timeout = "300s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Seconds 把配置里的秒数转换为 time.Duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
