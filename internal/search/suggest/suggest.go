package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/imdbot/internal/domain"
	"github.com/John-Robertt/imdbot/internal/infra/httpx"
	"github.com/John-Robertt/imdbot/internal/query"
)

const defaultBaseURL = "https://v2.sg.media-imdb.com"

// titleTypes 是作为“作品”接受的 qid；其它（videoGame、podcast 等）丢弃。
var titleTypes = map[string]struct{}{
	"tvSeries":     {},
	"short":        {},
	"movie":        {},
	"tvMiniSeries": {},
}

// Searcher 使用 IMDb 的 search-as-you-type 接口：
// https://v2.sg.media-imdb.com/suggestion/<c>/<key>.json
type Searcher struct {
	// BaseURL 为空时使用官方域名（配置 search.*_base_url 可切换到镜像）。
	BaseURL string
}

func (Searcher) Name() string { return "suggestion" }

func (s Searcher) baseURL() string {
	u := strings.TrimSpace(s.BaseURL)
	if u == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

type response struct {
	D []entry `json:"d"`
}

type entry struct {
	ID  string `json:"id"`
	L   string `json:"l"`
	Q   string `json:"q"`
	QID string `json:"qid"`
	S   string `json:"s"`
	Y   int    `json:"y"`
}

func (s Searcher) Search(ctx context.Context, q string, kind domain.QueryKind, c *http.Client) ([]domain.SearchResult, error) {
	bucket, key, ok := query.SuggestionKey(q)
	if !ok {
		return nil, errors.New("query 不能为空")
	}
	u := fmt.Sprintf("%s/suggestion/%s/%s.json", s.baseURL(), url.PathEscape(bucket), url.PathEscape(key))

	b, err := httpx.GetBytes(ctx, c, u)
	if err != nil {
		return nil, err
	}
	return Parse(b, kind)
}

// Parse 把 suggestion JSON 解析为候选项（保持接口返回顺序，不截断）。
func Parse(b []byte, kind domain.QueryKind) ([]domain.SearchResult, error) {
	var r response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("suggestion 响应不是合法 JSON：%w", err)
	}

	out := make([]domain.SearchResult, 0, len(r.D))
	for _, e := range r.D {
		id := strings.TrimSpace(e.ID)
		if id == "" || strings.TrimSpace(e.L) == "" {
			continue
		}
		switch kind {
		case domain.KindTitle:
			if _, ok := titleTypes[e.QID]; !ok {
				continue
			}
			out = append(out, domain.SearchResult{
				Text: strings.TrimSpace(e.L),
				Info: strings.TrimSpace(e.Q),
				URL:  query.PageURL(id, domain.KindTitle),
			})
		case domain.KindPerson:
			if !strings.HasPrefix(id, "nm") {
				continue
			}
			info := strings.TrimSpace(e.S)
			if info == "" {
				info = domain.Placeholder
			}
			out = append(out, domain.SearchResult{
				Text: strings.TrimSpace(e.L),
				Info: info,
				URL:  query.PageURL(id, domain.KindPerson),
			})
		}
	}
	return out, nil
}
