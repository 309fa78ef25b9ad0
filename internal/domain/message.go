package domain

// Message 是一次回复的两种渲染：Markdown 纯文本与 HTML。
type Message struct {
	Body string `json:"body"`
	HTML string `json:"html,omitempty"`
}

// HasHTML 表示是否需要以富文本格式发送。
func (m Message) HasHTML() bool { return m.HTML != "" }
