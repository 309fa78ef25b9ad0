// Package bot 把聊天宿主的消息流转成查询命令，并在有界 worker pool 中执行。
//
// 宿主相关的部分（同步循环、已读回执、发送回复、上传图片）通过 Source/Messenger 抽象，
// Matrix 实现见 matrix.go。
package bot

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/imdbot/internal/domain"
	"github.com/John-Robertt/imdbot/internal/query"
)

// DefaultConcurrency 是未配置时同时执行的查询数。
const DefaultConcurrency = 4

// queuePerWorker 决定待处理命令队列的容量（concurrency * queuePerWorker）。
const queuePerWorker = 16

// Incoming 是宿主收到的一条文本消息。
type Incoming struct {
	RoomID    string
	EventID   string
	Sender    string
	Text      string
	Timestamp time.Time
}

// Source 产生消息流；Listen 阻塞直到 ctx 结束或连接失败。
// emit 不会阻塞。
type Source interface {
	Listen(ctx context.Context, emit func(Incoming)) error
}

// Messenger 向宿主回写。
type Messenger interface {
	MarkRead(ctx context.Context, roomID, eventID string) error
	Reply(ctx context.Context, roomID, eventID string, msg domain.Message) error
}

// Runner 执行一次查询（*lookup.Lookup 满足该接口）。
type Runner interface {
	Run(ctx context.Context, kind domain.QueryKind, q string) domain.Message
}

// Bot 是宿主无关的命令分发器。
type Bot struct {
	Prefix  string
	Command string

	// Self 是 bot 自己的用户 ID，自己发的消息一律忽略。
	Self string
	// Since 之前的消息（例如重连后回放的历史）一律忽略。
	Since time.Time

	Concurrency int
	Lookup      Runner
	Messenger   Messenger
	Log         *log.Logger
}

// Accept 判断一条消息是否是需要处理的命令。
func (b *Bot) Accept(in Incoming) (query.Command, bool) {
	if in.Sender != "" && in.Sender == b.Self {
		return query.Command{}, false
	}
	if !b.Since.IsZero() && !in.Timestamp.IsZero() && in.Timestamp.Before(b.Since) {
		return query.Command{}, false
	}
	return query.ParseCommand(in.Text, b.Prefix, b.Command)
}

// Run 监听 src 并分发命令，直到 ctx 结束或 src 失败。
//
// 同步循环只负责入队；查询在 Concurrency 个 worker 中执行。
// 队列满时丢弃新命令并告警，保证同步循环不被阻塞。
func (b *Bot) Run(ctx context.Context, src Source) error {
	workers := b.Concurrency
	if workers < 1 {
		workers = DefaultConcurrency
	}
	lg := b.logger()

	type job struct {
		in  Incoming
		cmd query.Command
	}
	jobs := make(chan job, workers*queuePerWorker)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				b.handle(gctx, j.in, j.cmd)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		err := src.Listen(gctx, func(in Incoming) {
			cmd, ok := b.Accept(in)
			if !ok {
				return
			}
			select {
			case jobs <- job{in: in, cmd: cmd}:
			default:
				lg.Warn("命令队列已满，丢弃", "room", in.RoomID, "event", in.EventID)
			}
		})
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	lg.Info("开始监听", "workers", workers)
	return g.Wait()
}

// handle 执行一条命令：已读 → 查询 → 回复。失败只记录日志。
func (b *Bot) handle(ctx context.Context, in Incoming, cmd query.Command) {
	lg := b.logger().With("room", in.RoomID, "event", in.EventID, "kind", cmd.Kind.String())
	started := time.Now()

	if err := b.Messenger.MarkRead(ctx, in.RoomID, in.EventID); err != nil {
		lg.Warn("标记已读失败", "err", err)
	}

	msg := b.Lookup.Run(ctx, cmd.Kind, cmd.Arg)
	if err := b.Messenger.Reply(ctx, in.RoomID, in.EventID, msg); err != nil {
		lg.Error("回复失败", "err", err)
		return
	}
	lg.Info("已回复", "query", cmd.Arg, "dur", time.Since(started).Round(time.Millisecond))
}

func (b *Bot) logger() *log.Logger {
	if b.Log != nil {
		return b.Log
	}
	return log.New(io.Discard)
}
