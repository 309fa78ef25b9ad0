package lookup

import (
	"context"

	"github.com/John-Robertt/imdbot/internal/infra/imgx"
)

// Image 是已下载并探测过的图片。
type Image struct {
	URL  string // 下载地址（已改写为缩略图）
	Data []byte
	Info imgx.Info
}

// Uploader 把图片交给宿主，返回消息中可引用的句柄（例如 mxc:// URI）。
type Uploader interface {
	Upload(ctx context.Context, img Image) (string, error)
}

// LinkUploader 不上传，直接引用外链（CLI 输出使用）。
type LinkUploader struct{}

func (LinkUploader) Upload(_ context.Context, img Image) (string, error) { return img.URL, nil }
