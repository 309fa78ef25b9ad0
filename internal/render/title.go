package render

import (
	"strconv"
	"strings"

	"github.com/John-Robertt/imdbot/internal/domain"
)

// Title 渲染作品消息。
//
// results[0] 是主结果（t 从其页面解析而来），其余作为 "Other results" 附录；
// image 是已上传图片的句柄（mxc:// 或外链），为空时不展示图片。
func Title(results []domain.SearchResult, t domain.Title, image string) domain.Message {
	if len(results) == 0 {
		return Failure()
	}
	main := results[0]
	name := orPlaceholder(t.Title)
	desc := orPlaceholder(t.Description)

	var m message
	m.md("> ### [", name, "](", main.URL, ")\n> ", desc, "  \n>  \n")
	m.h(
		"<blockquote><table><tr><td>",
		`<a href="`, esc(main.URL), `"><h3>`, esc(name), "</h3></a>",
		"<p>", esc(desc), "</p>",
		"</td><td>",
	)
	if image != "" {
		m.h(`<br><img src="`, esc(image), `" height="200" />`)
	}
	m.h("</td></tr><tr><td><br>")

	if score := strings.TrimSpace(t.Score); score != "" {
		line := "⭐ " + score + " - " + orPlaceholder(t.Votes) + " votes"
		m.field("Score", line, esc(line))
	} else {
		m.md("> > **Not released yet**  \n>  \n")
		m.h("<blockquote><b>Not released yet</b></blockquote>")
	}

	typ := orPlaceholder(t.Category)
	m.field("Type", typ, esc(typ))

	if t.Seasons > 0 {
		md := make([]string, 0, t.Seasons)
		hs := make([]string, 0, t.Seasons)
		for i := 1; i <= t.Seasons; i++ {
			n := strconv.Itoa(i)
			u := main.URL + "episodes/?season=" + n
			md = append(md, "["+n+"]("+u+")")
			hs = append(hs, `<a href="`+esc(u)+`">`+n+"</a>")
		}
		m.field("Seasons", strings.Join(md, ", "), strings.Join(hs, ", "))
	}

	dur := orPlaceholder(t.Duration)
	rating := orPlaceholder(t.Rating)
	tags := orPlaceholder(strings.Join(t.Tags, ", "))
	m.field("Duration", dur, esc(dur))
	m.field("Rating", rating, esc(rating))
	m.field("Tags", tags, esc(tags))
	m.h("</td><td>")

	if len(results) > 1 {
		m.md("> **Other results:**  \n")
		m.h("<br><b>Other results:</b>")
		for i, r := range results[1:] {
			n := strconv.Itoa(i + 1)
			cat := ""
			if c := domain.Category(r.Info); c != "" {
				cat = " (" + c + ")"
			}
			m.md("> > ", n, ". [", r.Text, "](", r.URL, ")", cat, "  \n>  \n")
			m.h("<blockquote>", n, `. <a href="`, esc(r.URL), `">`, esc(r.Text), "</a>", esc(cat), "</blockquote>")
		}
	}
	m.h("</td></tr></table>")
	return m.done()
}
