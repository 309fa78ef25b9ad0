// Package lookup 串起一次查询的完整流水线：
// 规范化 → 搜索 → 抓取详情页 → 解析 → 图片 → 渲染。
//
// 任何阶段失败都降级为一条可直接回复的消息，错误只记录日志与报告。
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/John-Robertt/imdbot/internal/domain"
	"github.com/John-Robertt/imdbot/internal/infra/imgx"
	"github.com/John-Robertt/imdbot/internal/query"
	"github.com/John-Robertt/imdbot/internal/render"
	"github.com/John-Robertt/imdbot/internal/scrape"
	"github.com/John-Robertt/imdbot/internal/search"
)

// DefaultMaxResults 是未配置时的结果上限（主结果 + 其他结果）。
const DefaultMaxResults = 4

// Lookup 持有一次查询所需的全部依赖；零值字段有合理默认。
// 同一个 Lookup 可被多个 goroutine 并发使用（不持有可变状态）。
type Lookup struct {
	Registry   search.Registry
	Backends   []string
	MaxResults int

	// Prefix/Command 只用于渲染用法提示。
	Prefix  string
	Command string

	MetaClient  *http.Client
	ImageClient *http.Client

	// Uploader 为 nil 时不处理图片。
	Uploader Uploader

	Log      *log.Logger
	Observer Observer
}

// Run 执行查询并返回回复消息。
func (l *Lookup) Run(ctx context.Context, kind domain.QueryKind, q string) domain.Message {
	return l.RunReport(ctx, kind, q).Message
}

// RunReport 与 Run 相同，但返回完整的查询记录。
func (l *Lookup) RunReport(ctx context.Context, kind domain.QueryKind, q string) domain.LookupReport {
	rep := domain.LookupReport{
		Kind:      kind.String(),
		Query:     query.Normalize(q),
		StartedAt: time.Now(),
	}
	l.run(ctx, kind, &rep)
	rep.FinishedAt = time.Now()
	rep.Finalize()
	return rep
}

func (l *Lookup) run(ctx context.Context, kind domain.QueryKind, rep *domain.LookupReport) {
	lg := l.logger().With("kind", kind.String(), "query", rep.Query)

	if rep.Query == "" {
		rep.Status = domain.StatusUsage
		rep.Message = render.Usage(l.prefix(), l.command(), kind)
		return
	}

	// 1) search
	started := time.Now()
	results, err := l.search(ctx, kind, rep)
	rep.Results = results
	l.emit("search", map[string]any{"results": len(results), "attempts": len(rep.Attempts)}, time.Since(started))
	if len(results) == 0 {
		if err != nil {
			lg.Error("搜索失败", "err", err)
			setErr(rep, domain.ErrCodeSearchFailed, err)
		}
		rep.Status = domain.StatusNotFound
		rep.Message = render.NotFound(rep.Query)
		return
	}
	top := results[0]

	// 2) fetch
	started = time.Now()
	page, err := scrape.FetchPage(ctx, l.MetaClient, top.URL)
	l.emit("fetch", map[string]any{"url": top.URL, "bytes": len(page)}, time.Since(started))
	if err != nil {
		lg.Error("详情页获取失败", "url", top.URL, "err", err)
		l.fail(rep, domain.ErrCodeFetchFailed, err)
		return
	}

	// 3) parse（在独立 goroutine 上执行，受 ctx 约束）
	started = time.Now()
	var (
		title  domain.Title
		person domain.Person
		imgURL string
	)
	err = parseAsync(ctx, func() error {
		var perr error
		if kind == domain.KindPerson {
			person, perr = scrape.ParsePerson(page)
			imgURL = person.Image
		} else {
			title, perr = scrape.ParseTitle(page, top.Info)
			imgURL = title.Image
		}
		return perr
	})
	if err != nil {
		l.emit("parse", map[string]any{"ok": false}, time.Since(started))
		lg.Error("详情页解析失败", "url", top.URL, "err", err)
		l.fail(rep, domain.ErrCodeParseFailed, err)
		return
	}
	l.emit("parse", map[string]any{"ok": true, "image": imgURL != ""}, time.Since(started))

	// 4) image
	if l.Uploader != nil && imgURL != "" {
		started = time.Now()
		handle, info, ierr := l.image(ctx, imgURL)
		if ierr != nil {
			lg.Warn("图片处理失败，已省略", "url", imgURL, "err", ierr)
			rep.ImageError = ierr.Error()
		} else {
			rep.ImageWidth, rep.ImageHeight = info.Width, info.Height
		}
		rep.Image = handle
		l.emit("image", map[string]any{"ok": ierr == nil, "width": rep.ImageWidth, "height": rep.ImageHeight}, time.Since(started))
	}

	// 5) render
	started = time.Now()
	if kind == domain.KindPerson {
		rep.Message = render.Person(results, person, rep.Image)
	} else {
		rep.Message = render.Title(results, title, rep.Image)
	}
	rep.Status = domain.StatusOK
	l.emit("render", map[string]any{"bytes": len(rep.Message.Body) + len(rep.Message.HTML)}, time.Since(started))
}

// search 优先走 ID 直达；否则按配置顺序尝试搜索后端。
func (l *Lookup) search(ctx context.Context, kind domain.QueryKind, rep *domain.LookupReport) ([]domain.SearchResult, error) {
	if id, ok := query.DirectID(rep.Query, kind); ok {
		info := ""
		if kind == domain.KindPerson {
			info = domain.Placeholder
		}
		rep.Attempts = append(rep.Attempts, domain.AttemptResult{Backend: "direct", Stage: "ok", Count: 1})
		return []domain.SearchResult{{Text: id, Info: info, URL: query.PageURL(id, kind)}}, nil
	}

	results, attempts, err := search.ResolveTrace(ctx, l.Registry, l.Backends, rep.Query, kind, l.maxResults(), l.MetaClient)
	for _, a := range attempts {
		ar := domain.AttemptResult{Backend: a.Backend, Stage: a.Stage, Count: a.Count}
		if a.Err != nil {
			ar.Error = a.Err.Error()
		}
		rep.Attempts = append(rep.Attempts, ar)
	}
	return results, err
}

// image 下载缩略图并交给 Uploader；过小或无法识别的图片在上传前即被拒绝。
func (l *Lookup) image(ctx context.Context, u string) (string, imgx.Info, error) {
	resized := imgx.ResizedURL(u)
	data, info, err := imgx.Download(ctx, l.ImageClient, resized)
	if err != nil {
		return "", imgx.Info{}, err
	}
	handle, err := l.Uploader.Upload(ctx, Image{URL: resized, Data: data, Info: info})
	if err != nil {
		return "", imgx.Info{}, fmt.Errorf("上传失败：%w", err)
	}
	if handle == "" {
		return "", imgx.Info{}, errors.New("上传未返回句柄")
	}
	return handle, info, nil
}

// parseAsync 在独立 goroutine 上执行解析；ctx 结束时立即返回（解析 goroutine 自行结束）。
func parseAsync(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Lookup) fail(rep *domain.LookupReport, code string, err error) {
	setErr(rep, code, err)
	rep.Status = domain.StatusFailed
	rep.Message = render.Failure()
}

func setErr(rep *domain.LookupReport, code string, err error) {
	rep.ErrorCode = code
	rep.ErrorMsg = err.Error()
}

func (l *Lookup) emit(name string, fields map[string]any, dur time.Duration) {
	if l.Observer != nil {
		l.Observer.OnStage(name, fields, dur)
	}
}

func (l *Lookup) logger() *log.Logger {
	if l.Log != nil {
		return l.Log
	}
	return log.New(io.Discard)
}

func (l *Lookup) maxResults() int {
	if l.MaxResults < 1 {
		return DefaultMaxResults
	}
	return l.MaxResults
}

func (l *Lookup) prefix() string {
	if l.Prefix == "" {
		return "!"
	}
	return l.Prefix
}

func (l *Lookup) command() string {
	if l.Command == "" {
		return "imdb"
	}
	return l.Command
}
