package domain

import "strings"

// Placeholder 是字段缺失时的统一占位符。
const Placeholder = "-"

// Title 是从影视详情页解析出的结构化元数据。
//
// 约束：字段缺失允许为空，渲染层负责替换为 Placeholder；
// Score 为空表示“尚未上映/无评分”。
type Title struct {
	Title       string
	Score       string // 例如 "8.8/10"
	Votes       string // 例如 "2.6M"
	Tags        []string
	Category    string
	Description string
	Duration    string
	Rating      string // 分级，例如 "PG-13"
	Image       string
	Seasons     int
}

// IsTV 判断类别是否属于剧集（只有剧集才解析季数）。
func (t Title) IsTV() bool { return IsTVCategory(t.Category) }

func IsTVCategory(c string) bool {
	c = strings.TrimSpace(c)
	return len(c) >= 2 && strings.EqualFold(c[:2], "tv")
}

// Category 把搜索接口返回的类别提示规范为展示文本。
func Category(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "feature" {
		return "Movie"
	}
	return hint
}
