package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusOK       = "ok"
	StatusUsage    = "usage"
	StatusNotFound = "not_found"
	StatusFailed   = "failed"
)

const (
	ErrCodeSearchFailed  = "search_failed"
	ErrCodeFetchFailed   = "fetch_failed"
	ErrCodeParseFailed   = "parse_failed"
	ErrCodeImageFailed   = "image_failed"
	ErrCodeConfigInvalid = "config_invalid"
)

// LookupReport 是一次查询的完整记录（lookup --json 的输出契约）。
//
// 约束：Message 总是可直接回复的内容；错误只用于解释，不会向宿主抛出。
type LookupReport struct {
	Kind  string `json:"kind"`
	Query string `json:"query"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`

	Attempts []AttemptResult `json:"attempts"`
	Results  []SearchResult  `json:"results"`

	// Image 是最终展示的图片句柄；ImageError 非空表示图片被省略。
	Image       string `json:"image,omitempty"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`
	ImageError  string `json:"image_error,omitempty"`

	Message Message `json:"message"`
}

// AttemptResult 是搜索后端尝试的可序列化形态。
type AttemptResult struct {
	Backend string `json:"backend"`
	Stage   string `json:"stage"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// Finalize 统一时间为 UTC，并保证切片字段不为 null。
func (r *LookupReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Attempts == nil {
		r.Attempts = []AttemptResult{}
	}
	if r.Results == nil {
		r.Results = []SearchResult{}
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性。
func (r LookupReport) MarshalJSON() ([]byte, error) {
	type Alias LookupReport
	return json.Marshal(Alias(r))
}
