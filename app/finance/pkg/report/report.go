package report

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/cart"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/model"
)

// Title 报告一级标题，调用方据此定位报告正文
const Title = "# Daily Market Pulse"

const trendSeparator = " → "

// Render 把会话快照渲染为 Markdown，同一快照总是得到相同输出
func Render(snap cart.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(Title)
	sb.WriteString("\n\n## Market Data\n")

	if len(snap.Prices) == 0 {
		sb.WriteString("_No market data available._\n")
	}
	for _, p := range snap.Prices {
		writePrice(&sb, p)
	}

	sb.WriteString("\n## Key Developments\n")
	if len(snap.Summaries) == 0 {
		sb.WriteString("_No news summaries selected._\n")
	}
	for _, s := range snap.Summaries {
		fmt.Fprintf(&sb, "\n### %s | %s\n", s.Ticker, s.Title)
		sb.WriteString(strings.TrimSpace(s.Summary))
		fmt.Fprintf(&sb, "\n\n*Ref ID: %d*\n", s.ID)
	}

	return sb.String()
}

func writePrice(sb *strings.Builder, p model.PriceRecord) {
	if p.Status != model.StatusActive {
		fmt.Fprintf(sb, "- **%s**: %s\n", p.Symbol, p.Status)
		return
	}

	fmt.Fprintf(sb, "- **%s** (%s): $%.2f (%+.2f%%)\n", p.Symbol, p.Name, p.Price, p.ChangePercent)
	if len(p.Trend) == 0 {
		return
	}

	samples := make([]string, 0, len(p.Trend))
	for _, pt := range p.Trend {
		samples = append(samples, fmt.Sprintf("%s:$%.2f", pt.Time.Format("15:04"), pt.Price))
	}
	fmt.Fprintf(sb, "  - Price Trend: %s\n", strings.Join(samples, trendSeparator))
}
