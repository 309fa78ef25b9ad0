package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/John-Robertt/imdbot/internal/app/lookup"
	"github.com/John-Robertt/imdbot/internal/bot"
	"github.com/John-Robertt/imdbot/internal/config"
	"github.com/John-Robertt/imdbot/internal/domain"
	"github.com/John-Robertt/imdbot/internal/infra/httpx"
	"github.com/John-Robertt/imdbot/internal/search"
	"github.com/John-Robertt/imdbot/internal/search/suggest"
	"github.com/John-Robertt/imdbot/internal/search/web"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	var code int
	switch args[0] {
	case "serve":
		code = serveCmd(args[1:])
	case "lookup":
		code = lookupCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func serveCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printServeUsage()
			return 0
		}
	}
	sa, err := parseServeArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printServeUsage()
		return 2
	}

	eff, err := loadConfig(sa.ConfigPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	logger := newLogger(os.Stderr, eff.LogLevel)
	for _, w := range eff.Warnings {
		logger.Warn(w)
	}
	if err := eff.RequireMatrix(); err != nil {
		logger.Error("配置不完整", "err", err)
		return 1
	}

	mx, err := bot.NewMatrix(bot.MatrixOptions{
		Homeserver:  eff.Homeserver,
		UserID:      eff.UserID,
		AccessToken: eff.AccessToken,
		Autojoin:    eff.Autojoin,
		LogLevel:    eff.LogLevel,
		LogOutput:   os.Stderr,
		Log:         logger,
	})
	if err != nil {
		logger.Error("初始化 Matrix client 失败", "err", err)
		return 1
	}

	var uploader lookup.Uploader
	if eff.ImageUpload {
		uploader = mx
	}
	lk, err := newLookup(eff, logger, uploader, nil)
	if err != nil {
		logger.Error("初始化查询流水线失败", "err", err)
		return 1
	}

	b := &bot.Bot{
		Prefix:      eff.Prefix,
		Command:     eff.Command,
		Self:        mx.Self(),
		Since:       time.Now(),
		Concurrency: eff.Concurrency,
		Lookup:      lk,
		Messenger:   mx,
		Log:         logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("imdbot 启动", "user", mx.Self(), "homeserver", eff.Homeserver, "backends", strings.Join(eff.Backends, ","))
	if err := b.Run(ctx, mx); err != nil {
		logger.Error("同步循环退出", "err", err)
		return 1
	}
	logger.Info("已停止")
	return 0
}

func lookupCmd(args []string) int {
	// 查询文本本身可能是 "help"，这里只认 flag 形式。
	for _, a := range args {
		if a == "--" {
			break
		}
		if a == "-h" || a == "--help" {
			printLookupUsage()
			return 0
		}
	}
	la, err := parseLookupArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printLookupUsage()
		return 2
	}

	eff, err := loadConfig(la.ConfigPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	logger := newLogger(os.Stderr, eff.LogLevel)
	for _, w := range eff.Warnings {
		logger.Warn(w)
	}

	var obs lookup.Observer
	if la.Verbose {
		ui := newStageUI(os.Stderr)
		ui.PrintConfig(eff)
		obs = ui
	}
	// CLI 不上传图片：HTML 中直接引用外链。
	var uploader lookup.Uploader
	if eff.ImageUpload {
		uploader = lookup.LinkUploader{}
	}
	lk, err := newLookup(eff, logger, uploader, obs)
	if err != nil {
		logger.Error("初始化查询流水线失败", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := lk.RunReport(ctx, la.Kind, la.Query)
	if la.Verbose {
		fmt.Fprintln(os.Stderr, formatAttemptChain(rep.Attempts))
	}
	emitLookup(os.Stdout, la, rep)

	switch rep.Status {
	case domain.StatusOK, domain.StatusUsage:
		return 0
	default:
		return 1
	}
}

func emitLookup(w io.Writer, la lookupArgs, rep domain.LookupReport) {
	switch {
	case la.JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
	case la.HTML && rep.Message.HasHTML():
		fmt.Fprintln(w, rep.Message.HTML)
	default:
		fmt.Fprintln(w, rep.Message.Body)
	}
}

func loadConfig(configPath string, require bool) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	getenv, err := config.Getenv(cwd)
	if err != nil {
		return config.EffectiveConfig{}, err
	}
	return config.LoadEffective(cwd, config.CLIArgs{ConfigPath: configPath, RequireFile: require}, getenv)
}

// newLookup 按配置组装查询流水线（HTTP client + 搜索后端注册表）。
func newLookup(eff config.EffectiveConfig, logger *log.Logger, uploader lookup.Uploader, obs lookup.Observer) (*lookup.Lookup, error) {
	opts := httpx.Options{ProxyURL: eff.ProxyURL}
	metaClient, err := httpx.NewMetaClient(opts)
	if err != nil {
		return nil, fmt.Errorf("proxy.url 无效：%w", err)
	}
	var imageClient = metaClient
	if uploader != nil {
		if imageClient, err = httpx.NewImageClient(opts, eff.ImageProxy); err != nil {
			return nil, err
		}
	}

	reg, err := search.NewRegistry(
		suggest.Searcher{BaseURL: eff.SuggestionBaseURL},
		web.Searcher{BaseURL: eff.WebBaseURL},
	)
	if err != nil {
		return nil, fmt.Errorf("初始化搜索后端失败：%w", err)
	}

	return &lookup.Lookup{
		Registry:    reg,
		Backends:    eff.Backends,
		MaxResults:  eff.MaxResults,
		Prefix:      eff.Prefix,
		Command:     eff.Command,
		MetaClient:  metaClient,
		ImageClient: imageClient,
		Uploader:    uploader,
		Log:         logger,
		Observer:    obs,
	}, nil
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "imdbot",
	})
	lv, err := log.ParseLevel(level)
	if err != nil {
		lv = log.InfoLevel
	}
	logger.SetLevel(lv)
	return logger
}

type serveArgs struct {
	ConfigPath string
}

func parseServeArgs(args []string) (serveArgs, error) {
	sa := serveArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--config":
			if i+1 >= len(args) {
				return serveArgs{}, errors.New("--config 需要一个值")
			}
			i++
			sa.ConfigPath = args[i]
		case strings.HasPrefix(a, "--config="):
			sa.ConfigPath = strings.TrimPrefix(a, "--config=")
		default:
			return serveArgs{}, fmt.Errorf("未知参数 %q", a)
		}
	}
	if sa.ConfigPath == "" && hasFlag(args, "--config") {
		return serveArgs{}, errors.New("--config 不能为空")
	}
	return sa, nil
}

type lookupArgs struct {
	ConfigPath string
	HTML       bool
	JSON       bool
	Verbose    bool

	Kind  domain.QueryKind
	Query string
}

// parseLookupArgs 解析 "lookup [flags] [person] <query...>"。
// 第一个非 flag 参数为 "person" 时切换为人物查询；"--" 之后的内容全部视为查询文本。
func parseLookupArgs(args []string) (lookupArgs, error) {
	la := lookupArgs{Kind: domain.KindTitle}
	var words []string

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			words = append(words, args[i+1:]...)
			i = len(args)
		case a == "--config":
			if i+1 >= len(args) {
				return lookupArgs{}, errors.New("--config 需要一个值")
			}
			i++
			la.ConfigPath = args[i]
		case strings.HasPrefix(a, "--config="):
			la.ConfigPath = strings.TrimPrefix(a, "--config=")
			if la.ConfigPath == "" {
				return lookupArgs{}, errors.New("--config 不能为空")
			}
		case a == "--html":
			la.HTML = true
		case a == "--json":
			la.JSON = true
		case a == "-v" || a == "--verbose":
			la.Verbose = true
		case strings.HasPrefix(a, "-") && len(words) == 0:
			return lookupArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			words = append(words, a)
		}
	}
	if la.HTML && la.JSON {
		return lookupArgs{}, errors.New("--html 与 --json 不能同时使用")
	}

	if len(words) > 0 && strings.EqualFold(words[0], "person") {
		la.Kind = domain.KindPerson
		words = words[1:]
	}
	la.Query = strings.Join(words, " ")
	return la, nil
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name || strings.HasPrefix(a, name+"=") {
			return true
		}
	}
	return false
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imdbot serve [--config path]
  imdbot lookup [--config path] [--html|--json] [-v] [person] <query...>

命令：
  serve   以 Matrix bot 运行，响应 !imdb <title> 与 !imdb person <name>
  lookup  单次查询，输出回复内容

使用 "imdbot <command> --help" 查看详细说明。
`)
}

func printServeUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imdbot serve [--config path]

参数：
  --config    配置文件路径（默认 ./imdbot.json，必须存在）
  -h, --help  显示帮助

环境变量（覆盖配置文件，也可写在 ./.env）：
  IMDBOT_HOMESERVER  IMDBOT_USER_ID  IMDBOT_ACCESS_TOKEN
  IMDBOT_MAX_RESULTS IMDBOT_LOG_LEVEL
`)
}

func printLookupUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imdbot lookup [--config path] [--html|--json] [-v] [person] <query...>

参数：
  --config       配置文件路径（默认 ./imdbot.json，可选）
  --html         输出 HTML 形态（默认输出 Markdown 形态）
  --json         输出完整查询记录（JSON）
  -v, --verbose  在 stderr 输出各阶段耗时
  -h, --help     显示帮助

示例：
  imdbot lookup the matrix
  imdbot lookup person keanu reeves
  imdbot lookup tt0133093
`)
}
