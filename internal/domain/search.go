package domain

// QueryKind 区分一次查询的目标页面类型。
type QueryKind int

const (
	KindTitle QueryKind = iota + 1
	KindPerson
)

func (k QueryKind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindPerson:
		return "person"
	default:
		return "unknown"
	}
}

// SearchResult 是搜索阶段的候选项（只在一次命令内存活）。
//
// Info 的含义随 QueryKind 变化：
// - title：类别提示（例如 "feature"、"TV series"），可能为空
// - person：代表作摘要（缺失时为 Placeholder）
type SearchResult struct {
	Text string `json:"text"`
	Info string `json:"info"`
	URL  string `json:"url"` // 规范化详情页 URL，带结尾 '/'
}
