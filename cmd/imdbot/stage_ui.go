package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/John-Robertt/imdbot/internal/app/lookup"
	"github.com/John-Robertt/imdbot/internal/config"
	"github.com/John-Robertt/imdbot/internal/domain"
)

var _ lookup.Observer = (*stageUI)(nil)

// stageUI 把查询各阶段写到 stderr（lookup -v），不污染 stdout 的回复内容。
type stageUI struct {
	w  io.Writer
	mu sync.Mutex
}

func newStageUI(w io.Writer) *stageUI { return &stageUI{w: w} }

func (p *stageUI) PrintConfig(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	src := eff.ConfigPath
	if src == "" {
		src = "(默认)"
	}
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  config: %s\n", src)
	fmt.Fprintf(p.w, "  backends: %s\n", strings.Join(eff.Backends, " -> "))
	fmt.Fprintf(p.w, "  max_results: %d\n", eff.MaxResults)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  image: %s\n", onOff(eff.ImageUpload))
	fmt.Fprintln(p.w)
}

func (p *stageUI) OnStage(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "search":
		fmt.Fprintf(p.w, "搜索: results=%d attempts=%d (%s)\n",
			intField(fields, "results"), intField(fields, "attempts"), formatShortDuration(dur))
	case "fetch":
		fmt.Fprintf(p.w, "抓取: %s bytes=%d (%s)\n",
			truncate(stringField(fields, "url"), 120), intField(fields, "bytes"), formatShortDuration(dur))
	case "parse":
		fmt.Fprintf(p.w, "解析: ok=%s image=%s (%s)\n",
			onOff(boolField(fields, "ok")), onOff(boolField(fields, "image")), formatShortDuration(dur))
	case "image":
		size := "-"
		if w, h := intField(fields, "width"), intField(fields, "height"); w > 0 && h > 0 {
			size = fmt.Sprintf("%dx%d", w, h)
		}
		fmt.Fprintf(p.w, "图片: ok=%s size=%s (%s)\n", onOff(boolField(fields, "ok")), size, formatShortDuration(dur))
	case "render":
		fmt.Fprintf(p.w, "渲染: bytes=%d (%s)\n", intField(fields, "bytes"), formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

// truncate 把 s 截断到不超过 max 字节，切点回退到 UTF-8 字符边界。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	suffix := "..."
	if max <= len(suffix) {
		suffix = ""
	}
	cut := max - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}

// formatAttemptChain 输出形如 "web:search:HTTP 503;suggestion:ok" 的尝试链路。
func formatAttemptChain(attempts []domain.AttemptResult) string {
	if len(attempts) == 0 {
		return "尝试: (无)"
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		s := a.Backend + ":" + a.Stage
		if a.Stage == "ok" {
			s += fmt.Sprintf("(%d)", a.Count)
		}
		if e := strings.TrimSpace(a.Error); e != "" {
			s += ":" + truncate(e, 80)
		}
		parts = append(parts, s)
	}
	return "尝试: " + strings.Join(parts, ";")
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}

func boolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
