package relay

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	coreconfig "ventbot/core/config"
	"ventbot/core/logger"
	"ventbot/core/telegram/sender"
	"ventbot/relay/comments"
	"ventbot/relay/pending"

	tele "gopkg.in/telebot.v4"
)

// replyIDRe extracts the user ID embedded in relayed-message headers, so an
// admin reply can be routed back to the original sender.
var replyIDRe = regexp.MustCompile(`\(ID (\d+)\)`)

// Engine routes incoming messages. Every message takes exactly one of four
// paths, checked in order: group guard, admin reply routing, pending-action
// consumption, anonymous forwarding.
type Engine struct {
	cfg      coreconfig.RelayConfig
	snd      Sender
	comments *comments.Store
	pending  pending.Tracker
	disp     *sender.Dispatcher
	now      func() time.Time
}

// New assembles an Engine. disp may be nil, in which case all fan-out sends
// run synchronously; handlers used in production pass the shared dispatcher
// so one slow destination cannot stall the update loop.
func New(cfg coreconfig.RelayConfig, snd Sender, cs *comments.Store, tracker pending.Tracker, disp *sender.Dispatcher) *Engine {
	return &Engine{
		cfg:      cfg,
		snd:      snd,
		comments: cs,
		pending:  tracker,
		disp:     disp,
		now:      time.Now,
	}
}

// Bind attaches the live sender and dispatcher. Called once from the bot's
// start hook, before any update is handled.
func (e *Engine) Bind(snd Sender, disp *sender.Dispatcher) {
	e.snd = snd
	e.disp = disp
}

// Init probes the comment store once at startup so a dead backend shows up in
// the logs immediately instead of on the first comment. A failed probe does
// not abort startup: the store degrades per operation.
func (e *Engine) Init(ctx context.Context) {
	if err := e.comments.Ping(ctx); err != nil {
		logger.SVCRelay.Warn("comment store unreachable at startup",
			slog.String("event", "relay.init"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.SVCRelay.Info("comment store reachable",
		slog.String("event", "relay.init"),
	)
}

// HandleMessage is the non-command message entry point.
func (e *Engine) HandleMessage(ctx context.Context, in Incoming) error {
	if in.From.ID == 0 {
		return nil
	}

	switch in.Chat.Type {
	case tele.ChatGroup, tele.ChatSuperGroup:
		return e.guardGroup(ctx, in)
	case tele.ChatPrivate:
	default:
		// Channel posts and edits are not routed.
		return nil
	}

	if e.cfg.IsAdmin(in.From.ID) && in.ReplyTo != nil {
		return e.routeAdminReply(ctx, in)
	}

	if action, ok := e.pending.Take(in.From.ID); ok && !action.Direct {
		return e.storeComment(ctx, in, action.Post)
	}
	// A consumed direct-post intent falls through: direct posts are exactly
	// the default forwarding path.

	return e.forwardAnonymous(ctx, in)
}

// guardGroup preserves anonymity inside the group: the bot deletes whatever a
// user posts there and tells them to use the private chat instead.
func (e *Engine) guardGroup(ctx context.Context, in Incoming) error {
	if in.From.IsBot {
		return nil
	}

	if err := e.snd.DeleteMessage(ctx, in.Chat.ID, in.MessageID); err != nil {
		logger.SVCRelay.Debug("group message delete failed",
			slog.String("event", "relay.group_guard"),
			slog.Int64("chat_id", in.Chat.ID),
			slog.Int("message_id", in.MessageID),
			slog.String("err", err.Error()),
		)
	}
	_, err := e.snd.SendText(ctx, in.Chat.ID, msgGroupGuard, nil)
	return err
}

// routeAdminReply forwards an admin's reply to the user named in the quoted
// header, without revealing the admin's identity.
func (e *Engine) routeAdminReply(ctx context.Context, in Incoming) error {
	m := replyIDRe.FindStringSubmatch(in.ReplyTo.Text)
	if m == nil {
		_, err := e.snd.SendText(ctx, in.From.ID, msgReplyNoID, nil)
		return err
	}
	targetID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		_, err := e.snd.SendText(ctx, in.From.ID, msgReplyNoID, nil)
		return err
	}

	switch in.Media {
	case KindText:
		_, err = e.snd.SendText(ctx, targetID, in.Text, nil)
	case KindPhoto, KindDocument, KindAudio, KindVoice, KindVideo:
		_, err = e.snd.SendCopy(ctx, targetID, in, in.Caption)
	case KindSticker:
		_, err = e.snd.SendCopy(ctx, targetID, in, "")
	default:
		_, err = e.snd.SendText(ctx, in.From.ID, msgReplyBadType, nil)
		return err
	}
	if err != nil {
		logger.SVCRelay.Warn("admin reply delivery failed",
			slog.String("event", "relay.reply"),
			slog.Int64("target_id", targetID),
			slog.String("err", err.Error()),
		)
		return err
	}

	logger.SVCRelay.Info("admin reply routed",
		slog.String("event", "relay.reply"),
		slog.Int64("target_id", targetID),
		slog.String("kind", in.Media.String()),
	)
	return nil
}

// storeComment appends the message as a comment on the given channel post
// and refreshes the post's buttons. The message is never forwarded anywhere.
func (e *Engine) storeComment(ctx context.Context, in Incoming, postID int) error {
	body, ok := commentBody(in)
	if !ok {
		_, err := e.snd.SendText(ctx, in.From.ID, msgCommentBadType, nil)
		return err
	}

	c := comments.Comment{
		ID:        e.comments.NextCommentID(ctx),
		Text:      body,
		Timestamp: e.now().UnixMilli(),
		AuthorID:  in.From.ID,
	}
	total, stored := e.comments.Append(ctx, postID, c)
	if stored {
		e.SyncButtons(ctx, postID)
	}

	logger.SVCRelay.Info("comment handled",
		slog.String("event", "relay.comment"),
		slog.Int("post_id", postID),
		slog.Int64("comment_id", c.ID),
		slog.Int("count", total),
		slog.Bool("stored", stored),
	)

	_, err := e.snd.SendText(ctx, in.From.ID, msgCommentStored, nil)
	return err
}

// dispatch runs fn through the shared send dispatcher when one is attached,
// synchronously otherwise.
func (e *Engine) dispatch(ctx context.Context, action string, fn func() error) {
	if e.disp == nil {
		if err := fn(); err != nil {
			logger.SVCRelay.Warn("send failed",
				slog.String("event", "relay.send"),
				slog.String("action", action),
				slog.String("err", err.Error()),
			)
		}
		return
	}
	if err := e.disp.Enqueue(ctx, action, "", fn); err != nil {
		logger.SVCRelay.Warn("send not queued",
			slog.String("event", "relay.send"),
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
	}
}
