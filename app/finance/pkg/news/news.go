package news

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultTitle 数据源缺失标题时的占位值，视同没有标题
const DefaultTitle = "No Title"

// Provider 定义通用的个股新闻接口
type Provider interface {
	// Fetch 返回 symbol 的原始新闻条目，最多 limit 条
	Fetch(ctx context.Context, symbol string, limit int) ([]Item, error)
	Name() string
}

// Item 数据源返回的原始 JSON 条目，不同数据源字段名不一致
type Item json.RawMessage

// Accessor 从原始条目中取一个字段，取不到时返回空串
type Accessor func(item Item) string

// Path 返回按 gjson 路径取字符串的 Accessor
func Path(path string) Accessor {
	return func(item Item) string {
		return strings.TrimSpace(gjson.GetBytes(item, path).String())
	}
}

// TitleAccessors 标题字段优先级
var TitleAccessors = []Accessor{
	Path("content.title"),
	Path("title"),
	Path("headline"),
}

// LinkAccessors 链接字段优先级：点击跳转链接 > 规范链接 > 通用 link/url
var LinkAccessors = []Accessor{
	Path("content.clickThroughUrl.url"),
	Path("content.canonicalUrl.url"),
	Path("link"),
	Path("url"),
}

// First 依次尝试 accessors，返回第一个非空值
func First(item Item, accessors []Accessor) string {
	for _, get := range accessors {
		if v := get(item); v != "" {
			return v
		}
	}
	return ""
}

// Title 取条目标题，缺失或为占位值时返回空串
func Title(item Item) string {
	t := First(item, TitleAccessors)
	if t == DefaultTitle {
		return ""
	}
	return t
}

// Link 取条目链接
func Link(item Item) string {
	return First(item, LinkAccessors)
}
