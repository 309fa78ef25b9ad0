package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout 是单次请求的固定总超时（含重试）。
	DefaultTimeout  = 20 * time.Second
	defaultRetryMax = 0
)

// DefaultHeaders 是所有请求附带的静态头。
// IMDb 对默认的 Go UA 会返回 403，这里固定为常见浏览器的头组合。
var DefaultHeaders = map[string]string{
	"Sec-GPC":         "1",
	"Accept-Language": "en,en-US;q=0.5",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:140.0) Gecko/20100101 Firefox/140.0",
}

// Transport 把“静态头 + 代理 + keep-alive 策略 + 有界重试”固化为统一策略。
//
// search/scrape 只负责“定位页面 + 解析内容”，不关心网络策略细节。
type Transport struct {
	Base *http.Transport

	Headers map[string]string

	// RetryMax 表示最大重试次数（不含首次尝试），只对传输层错误生效。
	RetryMax int

	// DisableKeepAlives 决定是否对 Request 设置 Close=true。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		for k, v := range t.Headers {
			if r.Header.Get(k) == "" {
				r.Header.Set(k, v)
			}
		}
		if t.DisableKeepAlives {
			r.Close = true
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Options 控制 client 的可配置部分；零值即默认策略。
type Options struct {
	ProxyURL string
	RetryMax int
	Timeout  time.Duration
}

// NewMetaClient 构造用于搜索接口与详情页抓取的 HTTP client。
//
// 规则：
// - ProxyURL 非空：走代理，且禁用 keep-alive
// - 静态请求头
// - 有界重试 + 固定总超时
func NewMetaClient(o Options) (*http.Client, error) {
	return newClient(strings.TrimSpace(o.ProxyURL), o.RetryMax, o.Timeout)
}

// NewImageClient 构造用于图片下载的 HTTP client。
//
// imageProxy=false 时图片直连（忽略 ProxyURL）。
func NewImageClient(o Options, imageProxy bool) (*http.Client, error) {
	if !imageProxy {
		return newClient("", o.RetryMax, o.Timeout)
	}
	proxyURL := strings.TrimSpace(o.ProxyURL)
	if proxyURL == "" {
		return nil, errors.New("image_proxy=true 但 proxy.url 为空")
	}
	return newClient(proxyURL, o.RetryMax, o.Timeout)
}

func newClient(proxyURL string, retryMax int, timeout time.Duration) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	disableKeepAlives := false
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	if retryMax <= 0 {
		retryMax = defaultRetryMax
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tr := &Transport{
		Base:              base,
		Headers:           DefaultHeaders,
		RetryMax:          retryMax,
		DisableKeepAlives: disableKeepAlives,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}
