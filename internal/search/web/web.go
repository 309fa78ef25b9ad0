package web

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/imdbot/internal/domain"
	"github.com/John-Robertt/imdbot/internal/infra/httpx"
	"github.com/John-Robertt/imdbot/internal/query"
)

const defaultBaseURL = "https://html.duckduckgo.com"

var (
	titlePathRE  = regexp.MustCompile(`^/(?:[a-z]{2}/)?title/(tt[0-9]+)`)
	personPathRE = regexp.MustCompile(`^/(?:[a-z]{2}/)?name/(nm[0-9]+)`)
)

// Searcher 通过网页搜索（DuckDuckGo HTML 版）定位 IMDb 详情页。
//
// 约束：
// - 只接受 imdb.com 的 /title/tt… 或 /name/nm… 链接，其它结果丢弃
// - 网页搜索拿不到类别提示：title 的 Info 留空，由详情页补齐
type Searcher struct {
	// BaseURL 为空时使用官方域名（配置 search.*_base_url 可切换到镜像）。
	BaseURL string
}

func (Searcher) Name() string { return "web" }

func (s Searcher) baseURL() string {
	u := strings.TrimSpace(s.BaseURL)
	if u == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

func (s Searcher) Search(ctx context.Context, q string, kind domain.QueryKind, c *http.Client) ([]domain.SearchResult, error) {
	scope := "site:imdb.com/title "
	if kind == domain.KindPerson {
		scope = "site:imdb.com/name "
	}
	u := s.baseURL() + "/html/?q=" + url.QueryEscape(scope+query.Normalize(q))

	b, err := httpx.GetBytes(ctx, c, u)
	if err != nil {
		return nil, err
	}
	return Parse(b, kind)
}

// Parse 从搜索结果页提取候选项（去重、保持顺序、不截断）。
func Parse(html []byte, kind domain.QueryKind) ([]domain.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	out := make([]domain.SearchResult, 0, 8)
	doc.Find("a.result__a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		pageURL, ok := canonical(href, kind)
		if !ok {
			return
		}
		if _, dup := seen[pageURL]; dup {
			return
		}
		seen[pageURL] = struct{}{}

		text := cleanTitle(a.Text())
		if text == "" {
			return
		}
		info := ""
		if kind == domain.KindPerson {
			info = domain.Placeholder
		}
		out = append(out, domain.SearchResult{Text: text, Info: info, URL: pageURL})
	})
	return out, nil
}

// canonical 解开搜索引擎的跳转链接，并把 IMDb 链接规范为详情页 URL。
func canonical(href string, kind domain.QueryKind) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if target := u.Query().Get("uddg"); target != "" {
		if u, err = url.Parse(target); err != nil {
			return "", false
		}
	}

	host := strings.ToLower(u.Hostname())
	if host != "imdb.com" && !strings.HasSuffix(host, ".imdb.com") {
		return "", false
	}

	re := titlePathRE
	if kind == domain.KindPerson {
		re = personPathRE
	}
	m := re.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	return query.PageURL(m[1], kind), true
}

func cleanTitle(s string) string {
	s = query.Normalize(s)
	s = strings.TrimSuffix(s, " - IMDb")
	s = strings.TrimSuffix(s, " | IMDb")
	return strings.TrimSpace(s)
}
