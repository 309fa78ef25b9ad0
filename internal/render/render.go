// Package render 把解析结果渲染为聊天消息的两种形态：Markdown 纯文本与 HTML。
//
// 规则：
// - 两种形态包含相同的事实字段（标题、评分、类型、时长、分级、标签、其他结果）
// - 缺失字段统一渲染为 domain.Placeholder
// - 抓取得到的文本在 HTML 中一律转义
package render

import (
	"html"
	"strings"

	"github.com/John-Robertt/imdbot/internal/domain"
)

const footerBody = "> \n> **Results from IMDb**"
const footerHTML = "<p><b><sub>Results from IMDb</sub></b></p></blockquote>"

// orPlaceholder 去空白，空串替换为占位符。
func orPlaceholder(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Placeholder
	}
	return s
}

func esc(s string) string { return html.EscapeString(s) }

// message 同时累积两种形态，避免两边字段漂移。
type message struct {
	body strings.Builder
	html strings.Builder
}

func (m *message) md(parts ...string) {
	for _, p := range parts {
		m.body.WriteString(p)
	}
}

func (m *message) h(parts ...string) {
	for _, p := range parts {
		m.html.WriteString(p)
	}
}

// field 追加一行 "**Name:** value"。value 为已处理好的文本，htmlValue 为其 HTML 形态。
func (m *message) field(name, value, htmlValue string) {
	m.md("> > **", name, ":** ", value, "  \n>  \n")
	m.h("<blockquote><b>", name, ":</b> ", htmlValue, "</blockquote>")
}

func (m *message) done() domain.Message {
	m.md(footerBody)
	m.h(footerHTML)
	return domain.Message{Body: m.body.String(), HTML: m.html.String()}
}
