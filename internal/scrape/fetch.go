package scrape

import (
	"context"
	"net/http"

	"github.com/John-Robertt/imdbot/internal/infra/httpx"
)

// FetchPage 下载详情页 HTML；非 2xx 返回 *httpx.StatusError。
func FetchPage(ctx context.Context, c *http.Client, pageURL string) ([]byte, error) {
	return httpx.GetBytes(ctx, c, pageURL)
}
