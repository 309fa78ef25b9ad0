package search

import (
	"context"
	"net/http"

	"github.com/John-Robertt/imdbot/internal/domain"
)

// Searcher 把“站点变化”限制在各自的后端包内部；核心流程只依赖统一接口与稳定的 SearchResult。
//
// 约束：
// - Search 不做缓存、不做截断（截断由 Resolve 统一处理）
// - 返回的 URL 必须是规范化的详情页 URL
// - 没有匹配时返回空切片与 nil error
type Searcher interface {
	Name() string
	Search(ctx context.Context, q string, kind domain.QueryKind, c *http.Client) ([]domain.SearchResult, error)
}
