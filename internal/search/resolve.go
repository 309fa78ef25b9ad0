package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/John-Robertt/imdbot/internal/domain"
)

// Attempt 记录一次后端尝试（用于解释回退原因）。
type Attempt struct {
	Backend string // 小写 name
	Stage   string // "search" / "empty" / "ok"
	Count   int
	Err     error
}

// Error 是搜索阶段的可追溯错误。
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend=%s: %v", e.Backend, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Resolve 按 order 依次尝试后端，第一个返回非空结果的后端胜出，结果截断为 max 条。
//
// 所有后端都没有结果时：若至少一个后端出错则返回最后的错误，否则返回空切片与 nil。
func Resolve(ctx context.Context, reg Registry, order []string, q string, kind domain.QueryKind, max int, c *http.Client) ([]domain.SearchResult, error) {
	res, _, err := ResolveTrace(ctx, reg, order, q, kind, max, c)
	return res, err
}

// ResolveTrace 与 Resolve 相同，但额外返回尝试链路。
func ResolveTrace(ctx context.Context, reg Registry, order []string, q string, kind domain.QueryKind, max int, c *http.Client) (results []domain.SearchResult, attempts []Attempt, err error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil, fmt.Errorf("query 不能为空")
	}
	if len(order) == 0 {
		return nil, nil, fmt.Errorf("未配置搜索后端")
	}
	if max < 1 {
		max = 1
	}

	var lastErr error
	for _, name := range order {
		name = strings.ToLower(strings.TrimSpace(name))
		s, ok := reg.Get(name)
		if !ok {
			lastErr = fmt.Errorf("searcher 未注册：%q", name)
			attempts = append(attempts, Attempt{Backend: name, Stage: "search", Err: lastErr})
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		got, serr := s.Search(ctx, q, kind, c)
		if serr != nil {
			lastErr = &Error{Backend: name, Err: serr}
			attempts = append(attempts, Attempt{Backend: name, Stage: "search", Err: serr})
			continue
		}
		if len(got) == 0 {
			attempts = append(attempts, Attempt{Backend: name, Stage: "empty"})
			continue
		}

		if len(got) > max {
			got = got[:max]
		}
		attempts = append(attempts, Attempt{Backend: name, Stage: "ok", Count: len(got)})
		return got, attempts, nil
	}
	return []domain.SearchResult{}, attempts, lastErr
}
