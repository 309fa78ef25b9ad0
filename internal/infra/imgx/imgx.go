package imgx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // IMDb 的 CDN 可能返回 webp

	"github.com/John-Robertt/imdbot/internal/infra/httpx"
)

// resizeSegment 让 IMDb 的图片 CDN 直接返回 300x444 的缩略图。
const resizeSegment = "_V1_QL90_UX300_CR0,0,300,444_"

// ResizedURL 把 IMDb 图片 URL 改写为缩略图 URL。
//
// 规则：按 "." 切分，若倒数第二段以 "_V1_" 开头，则整段替换为 resizeSegment；
// 其他 URL 原样返回。
func ResizedURL(u string) string {
	parts := strings.Split(u, ".")
	if len(parts) < 2 {
		return u
	}
	i := len(parts) - 2
	if !strings.HasPrefix(parts[i], "_V1_") {
		return u
	}
	parts[i] = resizeSegment
	return strings.Join(parts, ".")
}

// MinSide 是可接受图片的最短边（像素），更小的通常是占位图或追踪像素。
const MinSide = 16

// Info 是对图片字节的探测结果。
type Info struct {
	ContentType string // 例如 "image/jpeg"
	Ext         string // 例如 ".jpg"
	Width       int
	Height      int
}

// Filename 返回上传时使用的文件名。
func (i Info) Filename(base string) string {
	if base == "" {
		base = "image"
	}
	return base + i.Ext
}

// CheckSize 拒绝尺寸已知且任一边小于 MinSide 的图片；尺寸未知（无法解码）时放行。
func (i Info) CheckSize() error {
	if i.Width == 0 && i.Height == 0 {
		return nil
	}
	if i.Width < MinSide || i.Height < MinSide {
		return fmt.Errorf("图片过小：%dx%d", i.Width, i.Height)
	}
	return nil
}

// Probe 探测图片类型与尺寸。
// 类型按内容嗅探（不信任响应头）；尺寸尽力而为，无法解码时为 0。
func Probe(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, errors.New("图片为空")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Info{}, errors.New("不是图片：" + mt.String())
	}
	ct, _, _ := strings.Cut(mt.String(), ";")
	info := Info{ContentType: ct, Ext: mt.Extension()}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width = cfg.Width
		info.Height = cfg.Height
	}
	return info, nil
}

// Download 下载图片字节并探测类型与尺寸；过小的图片视为失败。
func Download(ctx context.Context, c *http.Client, u string) ([]byte, Info, error) {
	if strings.TrimSpace(u) == "" {
		return nil, Info{}, errors.New("图片 URL 为空")
	}
	b, err := httpx.GetBytes(ctx, c, u)
	if err != nil {
		return nil, Info{}, err
	}
	info, err := Probe(b)
	if err != nil {
		return nil, Info{}, err
	}
	if err := info.CheckSize(); err != nil {
		return nil, Info{}, err
	}
	return b, info, nil
}
