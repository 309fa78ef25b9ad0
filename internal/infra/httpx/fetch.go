package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBody 限制单个响应体大小（IMDb 详情页通常 1~2 MB）。
const maxBody = 16 << 20

// StatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// Response 是一次 GET 的结果。
type Response struct {
	Body        []byte
	ContentType string
}

// Get 发送 GET 并读取完整响应体；非 2xx 返回 *StatusError。
func Get(ctx context.Context, c *http.Client, u string) (Response, error) {
	if c == nil {
		return Response{}, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Response{}, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Response{}, err
	}
	return Response{Body: b, ContentType: resp.Header.Get("Content-Type")}, nil
}

// GetBytes 与 Get 相同，只返回响应体。
func GetBytes(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	r, err := Get(ctx, c, u)
	return r.Body, err
}
