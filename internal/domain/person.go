package domain

// Person 是从人物详情页解析出的结构化元数据。
// Paragraphs 至少包含一个元素（可能是空串）。
type Person struct {
	Name       string
	Roles      string
	Paragraphs []string
	Image      string
}
