package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// ErrCodeNotFound 表示需要配置文件（serve 或显式 --config）但文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是默认配置文件名（位于 cwd）。
	FileName = "imdbot.json"

	DefaultMaxResults  = 4
	DefaultConcurrency = 4
	DefaultCommand     = "imdb"
	DefaultPrefix      = "!"
	DefaultLogLevel    = "info"
)

// 环境变量覆盖（优先级高于配置文件）。
const (
	EnvAccessToken = "IMDBOT_ACCESS_TOKEN"
	EnvHomeserver  = "IMDBOT_HOMESERVER"
	EnvUserID      = "IMDBOT_USER_ID"
	EnvMaxResults  = "IMDBOT_MAX_RESULTS"
	EnvLogLevel    = "IMDBOT_LOG_LEVEL"
)

// DefaultBackends 是搜索后端的默认顺序。
var DefaultBackends = []string{"suggestion"}

// CLIArgs 是 CLI 对配置发现的影响。
type CLIArgs struct {
	// ConfigPath 来自 --config；为空时使用 <cwd>/imdbot.json。
	ConfigPath string
	// RequireFile 为 true 时配置文件必须存在（serve 模式）。
	RequireFile bool
}

// FileConfig 对应 imdbot.json 的解析结构。
type FileConfig struct {
	// MaxResults 允许数字或数字字符串（例如 4 或 "4"）。
	MaxResults  json.RawMessage `json:"max_results"`
	Command     string          `json:"command"`
	Prefix      string          `json:"prefix"`
	Concurrency int             `json:"concurrency"`
	LogLevel    string          `json:"log_level"`
	Search      *SearchConfig   `json:"search"`
	Proxy       *ProxyConfig    `json:"proxy"`
	ImageProxy  bool            `json:"image_proxy"`
	Image       *ImageConfig    `json:"image"`
	Matrix      *MatrixConfig   `json:"matrix"`
}

type SearchConfig struct {
	Backends []string `json:"backends"`
	// SuggestionBaseURL / WebBaseURL 允许切换到镜像或测试服务器（可选）。
	SuggestionBaseURL string `json:"suggestion_base_url"`
	WebBaseURL        string `json:"web_base_url"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

type ImageConfig struct {
	Upload *bool `json:"upload"`
}

type MatrixConfig struct {
	Homeserver  string `json:"homeserver"`
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	Autojoin    bool   `json:"autojoin"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未读取时为空。
	ConfigPath string

	MaxResults  int
	Command     string
	Prefix      string
	Concurrency int
	LogLevel    string

	Backends          []string
	SuggestionBaseURL string
	WebBaseURL        string

	ProxyURL    string
	ImageProxy  bool
	ImageUpload bool

	Homeserver  string
	UserID      string
	AccessToken string
	Autojoin    bool

	// Warnings 是可降级的配置问题（例如 max_results 无法解析），由调用方记录日志。
	Warnings []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，再叠加环境变量，得到最终配置。
//
// 发现规则（固定）：
// 1) --config 指定：文件必须存在
// 2) 未指定：读取 <cwd>/imdbot.json；RequireFile 时必须存在，否则可选
//
// 覆盖优先级：环境变量 > 配置文件 > 内置默认。
// getenv 为 nil 时使用 os.Getenv。
func LoadEffective(cwd string, cli CLIArgs, getenv func(string) string) (EffectiveConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	required := cli.RequireFile
	cfgPath := filepath.Join(cwdAbs, FileName)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}
	return merge(fc, cfgPath, getenv)
}

func merge(fc FileConfig, cfgPath string, getenv func(string) string) (EffectiveConfig, error) {
	eff := EffectiveConfig{ConfigPath: cfgPath}
	invalid := func(format string, args ...any) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	// max_results：env > config > 默认；无法解析时降级为默认值并告警。
	eff.MaxResults = DefaultMaxResults
	if raw := bytes.TrimSpace(fc.MaxResults); len(raw) > 0 && string(raw) != "null" {
		n, err := parseMaxResults(raw)
		if err != nil {
			eff.Warnings = append(eff.Warnings, fmt.Sprintf("max_results 无效（%s），使用默认值 %d", string(raw), DefaultMaxResults))
		} else {
			eff.MaxResults = n
		}
	}
	if v := strings.TrimSpace(getenv(EnvMaxResults)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			eff.Warnings = append(eff.Warnings, fmt.Sprintf("%s 无效（%q），已忽略", EnvMaxResults, v))
		} else {
			eff.MaxResults = n
		}
	}
	if eff.MaxResults < 1 {
		eff.MaxResults = 1
	}

	eff.Command = strings.TrimSpace(fc.Command)
	if eff.Command == "" {
		eff.Command = DefaultCommand
	}
	if strings.ContainsAny(eff.Command, " \t\r\n") {
		return invalid("command 不能包含空白：%q", eff.Command)
	}
	eff.Prefix = strings.TrimSpace(fc.Prefix)
	if eff.Prefix == "" {
		eff.Prefix = DefaultPrefix
	}

	eff.Concurrency = fc.Concurrency
	if eff.Concurrency == 0 {
		eff.Concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if eff.Concurrency < 1 {
		eff.Concurrency = 1
	}
	if eff.Concurrency > 32 {
		eff.Concurrency = 32
	}

	eff.LogLevel = strings.ToLower(strings.TrimSpace(fc.LogLevel))
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		eff.LogLevel = strings.ToLower(v)
	}
	if eff.LogLevel == "" {
		eff.LogLevel = DefaultLogLevel
	}
	if _, err := log.ParseLevel(eff.LogLevel); err != nil {
		return invalid("log_level 无效：%q", eff.LogLevel)
	}

	eff.Backends = append([]string(nil), DefaultBackends...)
	if fc.Search != nil {
		if len(fc.Search.Backends) > 0 {
			bs, err := normBackends(fc.Search.Backends)
			if err != nil {
				return invalid("%v", err)
			}
			eff.Backends = bs
		}
		var err error
		if eff.SuggestionBaseURL, err = validBaseURL("search.suggestion_base_url", fc.Search.SuggestionBaseURL); err != nil {
			return invalid("%v", err)
		}
		if eff.WebBaseURL, err = validBaseURL("search.web_base_url", fc.Search.WebBaseURL); err != nil {
			return invalid("%v", err)
		}
	}

	if fc.Proxy != nil {
		eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if eff.ProxyURL != "" {
		if _, err := url.Parse(eff.ProxyURL); err != nil {
			return invalid("proxy.url 无效：%w", err)
		}
	}
	if fc.ImageProxy && eff.ProxyURL == "" {
		return invalid("image_proxy=true 但 proxy.url 为空")
	}
	eff.ImageProxy = fc.ImageProxy

	eff.ImageUpload = true
	if fc.Image != nil && fc.Image.Upload != nil {
		eff.ImageUpload = *fc.Image.Upload
	}

	if fc.Matrix != nil {
		eff.Homeserver = strings.TrimSpace(fc.Matrix.Homeserver)
		eff.UserID = strings.TrimSpace(fc.Matrix.UserID)
		eff.AccessToken = strings.TrimSpace(fc.Matrix.AccessToken)
		eff.Autojoin = fc.Matrix.Autojoin
	}
	if v := strings.TrimSpace(getenv(EnvHomeserver)); v != "" {
		eff.Homeserver = v
	}
	if v := strings.TrimSpace(getenv(EnvUserID)); v != "" {
		eff.UserID = v
	}
	if v := strings.TrimSpace(getenv(EnvAccessToken)); v != "" {
		eff.AccessToken = v
	}
	if eff.Homeserver != "" {
		if _, err := validBaseURL("matrix.homeserver", eff.Homeserver); err != nil {
			return invalid("%v", err)
		}
	}
	return eff, nil
}

// RequireMatrix 校验 bot 模式所需的连接信息。
func (e EffectiveConfig) RequireMatrix() error {
	var missing []string
	if e.Homeserver == "" {
		missing = append(missing, "matrix.homeserver")
	}
	if e.UserID == "" {
		missing = append(missing, "matrix.user_id")
	}
	if e.AccessToken == "" {
		missing = append(missing, "matrix.access_token")
	}
	if len(missing) == 0 {
		return nil
	}
	return &Error{Code: ErrCodeInvalid, Path: e.ConfigPath, Err: fmt.Errorf("缺少 %s", strings.Join(missing, ", "))}
}

// parseMaxResults 接受整数或整数字符串。
func parseMaxResults(raw []byte) (int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	i, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return int(i), nil
}

func normBackends(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, b := range in {
		b = strings.ToLower(strings.TrimSpace(b))
		switch b {
		case "suggestion", "web":
		default:
			return nil, fmt.Errorf("search.backends 只能包含 suggestion 或 web，实际是 %q", b)
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}

func validBaseURL(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s 无效：%q", field, s)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s 必须是 http/https：%q", field, s)
	}
	return strings.TrimRight(s, "/"), nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
