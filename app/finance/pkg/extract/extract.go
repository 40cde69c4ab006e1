package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ErrNoContent 页面可以访问但提取不到正文
var ErrNoContent = errors.New("unable to extract text content from this URL")

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// 短于该长度的段落视为导航、版权等噪声
	minParagraphLen = 10
	// 页面体积上限，防止异常大的响应占满内存
	maxBodyBytes = 8 << 20
)

// Extractor 定义 URL 到正文文本的抓取接口
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (string, error)
}

// Client 基于 readability 的正文抓取器，readability 失败时回退为段落抓取
type Client struct {
	client *http.Client
}

// NewClient 创建正文抓取器
func NewClient(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{client: &http.Client{Timeout: timeout}}
}

var _ Extractor = (*Client)(nil)

// Extract 抓取 URL 并提取核心文本
func (c *Client) Extract(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body failed: %w", err)
	}

	if article, err := readability.FromReader(bytes.NewReader(page), pageURL); err == nil {
		if text := cleanText(article.TextContent); text != "" {
			return text, nil
		}
	}

	text, err := paragraphs(page)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

// paragraphs 去掉脚本、导航等区块后拼接所有足够长的 <p> 段落
func paragraphs(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, nav, footer, header").Remove()

	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if p := strings.TrimSpace(sel.Text()); len(p) > minParagraphLen {
			parts = append(parts, p)
		}
	})
	return strings.Join(parts, "\n\n"), nil
}

// cleanText 压缩 readability 输出中的空白行
func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n\n")
}

// Truncate 按字符预算截断正文，截断时追加标记
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "\n...(content truncated)..."
}
