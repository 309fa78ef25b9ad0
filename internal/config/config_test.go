package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadEffective_OptionalFileDefaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != "" {
		t.Fatalf("未读取文件时 ConfigPath 应为空：%q", eff.ConfigPath)
	}
	if eff.MaxResults != DefaultMaxResults || eff.Concurrency != DefaultConcurrency {
		t.Fatalf("默认值不符：%+v", eff)
	}
	if eff.Command != "imdb" || eff.Prefix != "!" || eff.LogLevel != "info" {
		t.Fatalf("命令默认值不符：%+v", eff)
	}
	if !reflect.DeepEqual(eff.Backends, []string{"suggestion"}) {
		t.Fatalf("默认后端不符：%v", eff.Backends)
	}
	if !eff.ImageUpload {
		t.Fatalf("image.upload 默认应为 true")
	}
	if len(eff.Warnings) != 0 {
		t.Fatalf("不期望告警：%v", eff.Warnings)
	}
}

func TestLoadEffective_ConfigNotFoundWhenRequired(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{RequireFile: true}, noEnv)
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}

	// 显式 --config 指向不存在的文件同样报错。
	_, err = LoadEffective(cwd, CLIArgs{ConfigPath: "nope.json"}, noEnv)
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ExplicitConfigPath(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "conf", "bot.json"), []byte(`{"command":"movie","prefix":"?","concurrency":99}`))

	eff, err := LoadEffective(cwd, CLIArgs{ConfigPath: "conf/bot.json"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != filepath.Join(cwd, "conf", "bot.json") {
		t.Fatalf("ConfigPath 不符：%q", eff.ConfigPath)
	}
	if eff.Command != "movie" || eff.Prefix != "?" {
		t.Fatalf("command/prefix 不符：%+v", eff)
	}
	if eff.Concurrency != 32 {
		t.Fatalf("concurrency 应截断到 32，实际=%d", eff.Concurrency)
	}
}

func TestLoadEffective_MaxResults(t *testing.T) {
	cases := []struct {
		raw      string
		want     int
		warnings int
	}{
		{`3`, 3, 0},
		{`"7"`, 7, 0},
		{`" 2 "`, 2, 0},
		{`0`, 1, 0},
		{`-5`, 1, 0},
		{`"many"`, DefaultMaxResults, 1},
		{`2.5`, DefaultMaxResults, 1},
		{`null`, DefaultMaxResults, 0},
	}
	for _, c := range cases {
		cwd := t.TempDir()
		writeFile(t, filepath.Join(cwd, FileName), []byte(`{"max_results":`+c.raw+`}`))

		eff, err := LoadEffective(cwd, CLIArgs{}, noEnv)
		if err != nil {
			t.Fatalf("max_results=%s 不期望错误：%v", c.raw, err)
		}
		if eff.MaxResults != c.want {
			t.Fatalf("max_results=%s：期望 %d，实际 %d", c.raw, c.want, eff.MaxResults)
		}
		if len(eff.Warnings) != c.warnings {
			t.Fatalf("max_results=%s：期望 %d 条告警，实际 %v", c.raw, c.warnings, eff.Warnings)
		}
	}
}

func TestLoadEffective_EnvOverridesFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
		"max_results": 2,
		"log_level": "warn",
		"matrix": {"homeserver": "https://file.example", "user_id": "@file:example", "access_token": "file-token", "autojoin": true}
	}`))

	eff, err := LoadEffective(cwd, CLIArgs{}, envMap(map[string]string{
		EnvMaxResults:  "6",
		EnvLogLevel:    "DEBUG",
		EnvAccessToken: "env-token",
	}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.MaxResults != 6 || eff.LogLevel != "debug" {
		t.Fatalf("env 覆盖不生效：%+v", eff)
	}
	if eff.AccessToken != "env-token" || eff.Homeserver != "https://file.example" || eff.UserID != "@file:example" {
		t.Fatalf("matrix 合并不符：%+v", eff)
	}
	if !eff.Autojoin {
		t.Fatalf("autojoin 应来自配置文件")
	}
	if err := eff.RequireMatrix(); err != nil {
		t.Fatalf("连接信息齐全时不应报错：%v", err)
	}
}

func TestLoadEffective_InvalidEnvMaxResultsIsWarning(t *testing.T) {
	eff, err := LoadEffective(t.TempDir(), CLIArgs{}, envMap(map[string]string{EnvMaxResults: "lots"}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.MaxResults != DefaultMaxResults || len(eff.Warnings) != 1 {
		t.Fatalf("无效 env 应告警并保留默认：%+v", eff)
	}
}

func TestLoadEffective_Backends(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"search":{"backends":["Web"," suggestion ","web"],"web_base_url":"https://ddg.example/"}}`))

	eff, err := LoadEffective(cwd, CLIArgs{}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(eff.Backends, []string{"web", "suggestion"}) {
		t.Fatalf("backends 规范化不符：%v", eff.Backends)
	}
	if eff.WebBaseURL != "https://ddg.example" {
		t.Fatalf("web_base_url 应去掉结尾 '/'：%q", eff.WebBaseURL)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"json":        `{`,
		"backend":     `{"search":{"backends":["google"]}}`,
		"base_url":    `{"search":{"suggestion_base_url":"ftp://x"}}`,
		"log_level":   `{"log_level":"loud"}`,
		"command":     `{"command":"im db"}`,
		"proxy":       `{"proxy":{"url":"http://[::1"}}`,
		"image_proxy": `{"image_proxy":true}`,
		"homeserver":  `{"matrix":{"homeserver":"matrix.org"}}`,
	}
	for name, body := range cases {
		cwd := t.TempDir()
		writeFile(t, filepath.Join(cwd, FileName), []byte(body))

		_, err := LoadEffective(cwd, CLIArgs{}, noEnv)
		if Code(err) != ErrCodeInvalid {
			t.Fatalf("%s：期望 %q，实际 err=%v (code=%q)", name, ErrCodeInvalid, err, Code(err))
		}
	}
}

func TestLoadEffective_ImageUploadDisabled(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"image":{"upload":false},"proxy":{"url":"http://127.0.0.1:7890"},"image_proxy":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ImageUpload || !eff.ImageProxy || eff.ProxyURL != "http://127.0.0.1:7890" {
		t.Fatalf("image/proxy 配置不符：%+v", eff)
	}
}

func TestRequireMatrix_Missing(t *testing.T) {
	err := EffectiveConfig{Homeserver: "https://matrix.example"}.RequireMatrix()
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际=%v", ErrCodeInvalid, err)
	}
	if !strings.Contains(err.Error(), "matrix.user_id") || !strings.Contains(err.Error(), "matrix.access_token") {
		t.Fatalf("错误信息应列出缺失字段：%v", err)
	}
}

func TestGetenv_DotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DotEnvFile), []byte("IMDBOT_TEST_DOTENV_ONLY=from-file\nIMDBOT_TEST_DOTENV_BOTH=from-file\n"))
	t.Setenv("IMDBOT_TEST_DOTENV_BOTH", "from-process")

	getenv, err := Getenv(dir)
	if err != nil {
		t.Fatalf("Getenv 失败：%v", err)
	}
	if got := getenv("IMDBOT_TEST_DOTENV_ONLY"); got != "from-file" {
		t.Fatalf("应读取 .env：%q", got)
	}
	if got := getenv("IMDBOT_TEST_DOTENV_BOTH"); got != "from-process" {
		t.Fatalf("进程环境应优先：%q", got)
	}
}

func TestGetenv_MissingDotEnv(t *testing.T) {
	getenv, err := Getenv(t.TempDir())
	if err != nil {
		t.Fatalf(".env 不存在不应报错：%v", err)
	}
	if got := getenv("IMDBOT_TEST_SURELY_UNSET_VAR"); got != "" {
		t.Fatalf("期望空串：%q", got)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
