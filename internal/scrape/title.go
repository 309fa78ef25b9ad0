package scrape

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/imdbot/internal/domain"
)

var durationRE = regexp.MustCompile(`^(?:[0-9]+h)?\s*(?:[0-9]+m)?$`)

// ParseTitle 把作品详情页解析为 Title。
// hint 是搜索阶段得到的类别提示（可能为空，此时回退 JSON-LD 的 @type）。
func ParseTitle(page []byte, hint string) (domain.Title, error) {
	doc, err := newDocument(page)
	if err != nil {
		return domain.Title{}, err
	}
	ld := findLD(doc)

	var t domain.Title

	// 评分条的文本形如 "8.8/102.6M"（分数 + "/10" + 票数）。
	if s := normSpace(doc.Find("a[aria-label='View User Ratings']").First().Text()); s != "" {
		if score, votes, ok := strings.Cut(s, "/10"); ok && strings.TrimSpace(score) != "" {
			t.Score = strings.TrimSpace(score) + "/10"
			t.Votes = strings.TrimSpace(votes)
		}
	}
	if t.Score == "" && ld.Rating != nil && ld.Rating.Value != "" {
		t.Score = ld.Rating.Value + "/10"
		t.Votes = humanCount(ld.Rating.Count)
	}

	// og:title 形如 "Inception (2010) ⭐ 8.8 | Action, Adventure, Sci-Fi"。
	ogTitle := metaProperty(doc, "og:title")
	head, tail, hasTail := strings.Cut(ogTitle, "|")
	head, _, _ = strings.Cut(head, "⭐")
	t.Title = normSpace(head)
	if t.Title == "" {
		t.Title = ld.Name
	}

	doc.Find("div[data-testid='interests'] a").Each(func(_ int, a *goquery.Selection) {
		t.Tags = append(t.Tags, normSpace(a.Text()))
	})
	if len(normList(t.Tags)) == 0 && hasTail {
		t.Tags = strings.Split(tail, ",")
	}
	if len(normList(t.Tags)) == 0 {
		t.Tags = ld.Genre
	}
	t.Tags = normList(t.Tags)

	t.Category = domain.Category(hint)
	if t.Category == "" {
		t.Category = categoryFromLD(ld.Type)
	}

	t.Description = metaName(doc, "description")
	if t.Description == "" {
		t.Description = ld.Description
	}

	// og:description 形如 "2h 28m | PG-13"。
	parts := strings.Split(metaProperty(doc, "og:description"), "|")
	switch {
	case len(parts) >= 2:
		t.Duration = normSpace(parts[0])
		t.Rating = normSpace(parts[1])
	case len(parts) == 1 && looksLikeDuration(parts[0]):
		t.Duration = normSpace(parts[0])
	}
	if t.Duration == "" {
		t.Duration = isoDuration(ld.Duration)
	}
	if t.Rating == "" {
		t.Rating = ld.ContentRating
	}

	t.Image = metaProperty(doc, "og:image")
	if t.Image == "" {
		t.Image = ld.Image
	}

	if t.IsTV() {
		t.Seasons = seasons(doc)
	}
	return t, nil
}

// seasons 读取“按季浏览”下拉框的 aria-label（例如 "8 seasons"）。
// 没有下拉框的剧集只有一季；无法解析时返回 0（不展示）。
func seasons(doc *goquery.Document) int {
	label, ok := doc.Find("select#browse-episodes-season").First().Attr("aria-label")
	if !ok {
		return 1
	}
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func looksLikeDuration(s string) bool {
	s = normSpace(s)
	return s != "" && durationRE.MatchString(s)
}

func newDocument(page []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(page)) == 0 {
		return nil, errors.New("html 为空")
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(page))
}

func metaProperty(doc *goquery.Document, prop string) string {
	v, _ := doc.Find("meta[property='" + prop + "']").First().Attr("content")
	return strings.TrimSpace(v)
}

func metaName(doc *goquery.Document, name string) string {
	v, _ := doc.Find("meta[name='" + name + "']").First().Attr("content")
	return strings.TrimSpace(v)
}
