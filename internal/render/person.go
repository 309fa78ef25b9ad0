package render

import (
	"strconv"
	"strings"

	"github.com/John-Robertt/imdbot/internal/domain"
)

// Person 渲染人物消息。第一段简介直接展示，其余段落折叠在 <details> 中。
func Person(results []domain.SearchResult, p domain.Person, image string) domain.Message {
	if len(results) == 0 {
		return Failure()
	}
	main := results[0]
	name := orPlaceholder(p.Name)
	roles := orPlaceholder(p.Roles)

	paras := make([]string, 0, len(p.Paragraphs))
	for _, s := range p.Paragraphs {
		if s = strings.TrimSpace(s); s != "" {
			paras = append(paras, s)
		}
	}
	if len(paras) == 0 {
		paras = []string{domain.Placeholder}
	}

	var m message
	m.md("> ### [", name, "](", main.URL, ")  \n> ", strings.Join(paras, "  \n>  \n> "), "  \n> \n")
	m.h(
		"<div><blockquote>",
		`<a href="`, esc(main.URL), `"><h3>`, esc(name), "</h3></a>",
		"<p>", esc(paras[0]), "</p>",
	)
	if len(paras) > 1 {
		rest := make([]string, 0, len(paras)-1)
		for _, s := range paras[1:] {
			rest = append(rest, esc(s))
		}
		m.h("<details><br><summary><b>...</b></summary><p>", strings.Join(rest, "<br><br>"), "</p></details>")
	}
	m.field("Roles", roles, esc(roles))
	if image != "" {
		m.h(`<img src="`, esc(image), `" width="300" height="444" /><br>`)
	}

	if len(results) > 1 {
		m.md("> **Other results:**  \n")
		m.h("<p><details><summary><b>Other results:</b></summary>")
		for i, r := range results[1:] {
			n := strconv.Itoa(i + 1)
			known := orPlaceholder(r.Info)
			m.md("> > ", n, ". [", r.Text, "](", r.URL, ") Known for: ", known, "  \n>  \n")
			m.h("<blockquote>", n, `. <a href="`, esc(r.URL), `">`, esc(r.Text), "</a> Known for: ", esc(known), "</blockquote>")
		}
		m.h("</details></p>")
	}
	msg := m.done()
	msg.HTML += "</div>"
	return msg
}
