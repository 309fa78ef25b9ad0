package bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/John-Robertt/imdbot/internal/app/lookup"
	"github.com/John-Robertt/imdbot/internal/domain"
)

// MatrixOptions 是连接 Matrix homeserver 所需的信息。
type MatrixOptions struct {
	Homeserver  string
	UserID      string
	AccessToken string
	Autojoin    bool

	// LogLevel 控制 mautrix 内部日志（zerolog），取值同 log_level。
	LogLevel string
	// LogOutput 为 nil 时 mautrix 内部日志被丢弃。
	LogOutput io.Writer

	Log *log.Logger
}

// Matrix 同时实现 Source、Messenger 与 lookup.Uploader。
type Matrix struct {
	client   *mautrix.Client
	autojoin bool
	log      *log.Logger
}

func NewMatrix(o MatrixOptions) (*Matrix, error) {
	if o.Homeserver == "" || o.UserID == "" || o.AccessToken == "" {
		return nil, errors.New("matrix 连接信息不完整")
	}
	client, err := mautrix.NewClient(o.Homeserver, id.UserID(o.UserID), o.AccessToken)
	if err != nil {
		return nil, err
	}
	client.Log = newZerolog(o.LogOutput, o.LogLevel)

	lg := o.Log
	if lg == nil {
		lg = log.New(io.Discard)
	}
	return &Matrix{client: client, autojoin: o.Autojoin, log: lg}, nil
}

func newZerolog(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		return zerolog.Nop()
	}
	lv, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lv == zerolog.NoLevel {
		lv = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(lv).With().Timestamp().Str("component", "mautrix").Logger()
}

// Self 返回 bot 的用户 ID。
func (m *Matrix) Self() string { return m.client.UserID.String() }

// Listen 运行 /sync 循环，把文本消息交给 emit。
func (m *Matrix) Listen(ctx context.Context, emit func(Incoming)) error {
	syncer, ok := m.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return errors.New("不支持的 syncer 实现")
	}
	// 首次同步带回的历史消息不处理。
	syncer.OnSync(m.client.DontProcessOldEvents)

	syncer.OnEventType(event.EventMessage, func(ctx context.Context, evt *event.Event) {
		in, ok := incomingFromEvent(evt)
		if ok {
			emit(in)
		}
	})
	if m.autojoin {
		syncer.OnEventType(event.StateMember, func(ctx context.Context, evt *event.Event) {
			mem := evt.Content.AsMember()
			if mem.Membership != event.MembershipInvite || evt.GetStateKey() != m.Self() {
				return
			}
			if _, err := m.client.JoinRoomByID(ctx, evt.RoomID); err != nil {
				m.log.Error("自动加入房间失败", "room", evt.RoomID.String(), "err", err)
				return
			}
			m.log.Info("已加入房间", "room", evt.RoomID.String(), "inviter", evt.Sender.String())
		})
	}
	return m.client.SyncWithContext(ctx)
}

// incomingFromEvent 只接受 m.text 消息（忽略 notice/emote/媒体，避免与其他 bot 互相触发）。
func incomingFromEvent(evt *event.Event) (Incoming, bool) {
	if evt == nil {
		return Incoming{}, false
	}
	content := evt.Content.AsMessage()
	if content == nil || content.MsgType != event.MsgText {
		return Incoming{}, false
	}
	return Incoming{
		RoomID:    evt.RoomID.String(),
		EventID:   evt.ID.String(),
		Sender:    evt.Sender.String(),
		Text:      content.Body,
		Timestamp: time.UnixMilli(evt.Timestamp),
	}, true
}

func (m *Matrix) MarkRead(ctx context.Context, roomID, eventID string) error {
	return m.client.MarkRead(ctx, id.RoomID(roomID), id.EventID(eventID))
}

// Reply 以 m.notice 回复原消息；有 HTML 时同时发送 formatted_body。
func (m *Matrix) Reply(ctx context.Context, roomID, eventID string, msg domain.Message) error {
	_, err := m.client.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, replyContent(eventID, msg))
	return err
}

func replyContent(eventID string, msg domain.Message) *event.MessageEventContent {
	content := &event.MessageEventContent{
		MsgType: event.MsgNotice,
		Body:    msg.Body,
	}
	if msg.HasHTML() {
		content.Format = event.FormatHTML
		content.FormattedBody = msg.HTML
	}
	content.RelatesTo = (&event.RelatesTo{}).SetReplyTo(id.EventID(eventID))
	return content
}

// Upload 把图片上传到 homeserver，返回 mxc:// URI。
func (m *Matrix) Upload(ctx context.Context, img lookup.Image) (string, error) {
	resp, err := m.client.UploadBytesWithName(ctx, img.Data, img.Info.ContentType, img.Info.Filename("image"))
	if err != nil {
		return "", err
	}
	return resp.ContentURI.String(), nil
}
