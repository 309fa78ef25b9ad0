package render

import (
	"html"

	"github.com/John-Robertt/imdbot/internal/domain"
)

// Usage 返回命令用法。person 子命令只提示自己的用法。
func Usage(prefix, command string, kind domain.QueryKind) domain.Message {
	head := prefix + command
	person := "> " + head + " person <name>"
	if kind == domain.KindPerson {
		body := "> **Usage:**  \n" + person
		return domain.Message{Body: body, HTML: usageHTML(html.EscapeString(head) + " person &lt;name&gt;")}
	}
	body := "> **Usage:**  \n> " + head + " <title>  \n" + person
	h := html.EscapeString(head)
	return domain.Message{Body: body, HTML: usageHTML(h+" &lt;title&gt;", h+" person &lt;name&gt;")}
}

func usageHTML(lines ...string) string {
	s := "<blockquote><b>Usage:</b>"
	for _, l := range lines {
		s += "<br>" + l
	}
	return s + "</blockquote>"
}

// NotFound 是搜索结果为空时的回复。
func NotFound(q string) domain.Message {
	return domain.Message{
		Body: "Failed to find results for *" + q + "*",
		HTML: "Failed to find results for <em>" + html.EscapeString(q) + "</em>",
	}
}

const failureText = "Something went wrong when I was preparing summary."

// Failure 是详情页获取或解析失败时的回复。
func Failure() domain.Message {
	return domain.Message{Body: failureText, HTML: "<p>" + failureText + "</p>"}
}
