package relay

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"ventbot/core/logger"
	"ventbot/core/telegram/callbacks"
	"ventbot/core/telegram/helpers"
	"ventbot/core/telegram/keyboard"
	"ventbot/relay/pending"

	tele "gopkg.in/telebot.v4"
)

var (
	startCommentRe = regexp.MustCompile(`^comment_(\d+)$`)
	startViewRe    = regexp.MustCompile(`^view_(\d+)$`)
)

// Handlers exposes the bot commands and callbacks built on the Engine.
type Handlers struct {
	eng *Engine
}

// NewHandlers wraps an Engine for command registration.
func NewHandlers(eng *Engine) *Handlers {
	return &Handlers{eng: eng}
}

// Start dispatches on the deep-link payload: arm a direct post, arm a
// comment, show a post's comments, or greet.
func (h *Handlers) Start(c tele.Context) error {
	payload := strings.TrimSpace(c.Message().Payload)

	if payload == payloadDirect {
		h.eng.pending.Set(c.Sender().ID, pending.DirectPost)
		return helpers.SendText(c, msgPromptDirect)
	}

	if m := startCommentRe.FindStringSubmatch(payload); m != nil {
		postID, err := strconv.Atoi(m[1])
		if err == nil {
			h.eng.pending.Set(c.Sender().ID, pending.CommentOn(postID))
			return helpers.SendText(c, msgPromptComment)
		}
	}

	if m := startViewRe.FindStringSubmatch(payload); m != nil {
		postID, err := strconv.Atoi(m[1])
		if err == nil {
			return h.viewComments(c, postID)
		}
	}

	return helpers.SendText(c, msgDefaultGreeting)
}

func (h *Handlers) viewComments(c tele.Context, postID int) error {
	ctx := helpers.BuildContext(c)
	list := h.eng.comments.List(ctx, postID)

	// Opportunistic resync so a stale count fixes itself on view.
	h.eng.SyncButtons(ctx, postID)

	if err := helpers.SendHTML(c, formatComments(list)); err != nil {
		return err
	}

	if h.eng.cfg.BotUsername == "" {
		return nil
	}
	invite := keyboard.InlineButtons([]keyboard.InlineBtn{{
		Text: "Add a comment",
		URL:  deepLink(h.eng.cfg.BotUsername, fmt.Sprintf("%s%d", payloadCommentPrefix, postID)),
	}})
	return helpers.SendText(c, msgCommentsInvite, &tele.SendOptions{ReplyMarkup: invite})
}

// Whoami reports the caller's numeric ID and username.
func (h *Handlers) Whoami(c tele.Context) error {
	user := c.Sender()
	name := "<no username>"
	if user.Username != "" {
		name = "@" + user.Username
	}
	return helpers.SendText(c, fmt.Sprintf("Your user ID: %d\nUsername: %s", user.ID, name))
}

// GroupID echoes the chat ID when run inside a group.
func (h *Handlers) GroupID(c tele.Context) error {
	chat := c.Chat()
	if chat != nil && (chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup) {
		return helpers.SendText(c, fmt.Sprintf("Group chat ID: %d", chat.ID))
	}
	return helpers.SendText(c, "Run this inside the group to get its chat ID.")
}

// MsgID echoes the ID of the replied-to message.
func (h *Handlers) MsgID(c tele.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	if msg.ReplyTo != nil {
		return helpers.SendText(c, fmt.Sprintf("Message ID: %d\nChat ID: %d", msg.ReplyTo.ID, c.Chat().ID))
	}
	return helpers.SendText(c, "Reply to a message to get its ID.")
}

// Help describes the admin reply flow. Non-admins get no reply at all,
// which keeps the command invisible to them.
func (h *Handlers) Help(c tele.Context) error {
	if !h.eng.cfg.IsAdmin(c.Sender().ID) {
		return nil
	}
	return helpers.SendText(c, msgAdminHelp)
}

// TestChannel probes channel access end to end: chat lookup plus a real
// test post.
func (h *Handlers) TestChannel(c tele.Context) error {
	if h.eng.cfg.ChannelID == 0 {
		return helpers.SendText(c, "TARGET_CHANNEL_ID not configured.")
	}
	ctx := helpers.BuildContext(c)

	title, err := h.eng.snd.ChatTitle(ctx, h.eng.cfg.ChannelID)
	if err != nil {
		return helpers.SendText(c, fmt.Sprintf(
			"❌ Channel access failed:\n%s\n\nMake sure:\n1. Bot is added to channel\n2. Bot is admin with post permission\n3. Channel ID is correct",
			err.Error(),
		))
	}
	if title == "" {
		title = "N/A"
	}
	if err := helpers.SendText(c, fmt.Sprintf(
		"✅ Channel accessible!\nTitle: %s\nID: %d", title, h.eng.cfg.ChannelID,
	)); err != nil {
		return err
	}

	msgID, err := h.eng.snd.SendText(ctx, h.eng.cfg.ChannelID, "🤖 Bot test message - you can delete this", nil)
	if err != nil {
		return helpers.SendText(c, fmt.Sprintf("❌ Test post failed: %s", err.Error()))
	}
	return helpers.SendText(c, fmt.Sprintf("✅ Successfully posted test message (ID: %d)", msgID))
}

// UpdateButtons forces a button resync for one channel post.
func (h *Handlers) UpdateButtons(c tele.Context) error {
	postID, ok := argPostID(c)
	if !ok {
		return usageReply(c, "updatebuttons")
	}
	ctx := helpers.BuildContext(c)

	count := h.eng.comments.Count(ctx, postID)
	if !h.eng.SyncButtons(ctx, postID) {
		return helpers.SendText(c, fmt.Sprintf("❌ Failed to update buttons for channel message %d.", postID))
	}
	refresh := keyboard.InlineButtons([]keyboard.InlineBtn{{
		Text:   "Refresh buttons",
		Unique: CallbackRefreshButtons,
		Data:   strconv.Itoa(postID),
	}})
	return helpers.SendText(c, fmt.Sprintf(
		"✅ Updated buttons for channel message %d\n📊 Comments found: %d\nExpected button text: \"View comments (%d)\"",
		postID, count, count,
	), &tele.SendOptions{ReplyMarkup: refresh})
}

// CheckComments shows stored comments for a post with truncated previews.
func (h *Handlers) CheckComments(c tele.Context) error {
	postID, ok := argPostID(c)
	if !ok {
		return usageReply(c, "checkcomments")
	}
	ctx := helpers.BuildContext(c)

	list := h.eng.comments.List(ctx, postID)
	if len(list) == 0 {
		return helpers.SendText(c, fmt.Sprintf("📊 Channel message %d has no comments stored.", postID))
	}

	lines := make([]string, len(list))
	for i, cm := range list {
		lines[i] = fmt.Sprintf("%d. %s", i+1, preview(cm.Text))
	}
	return helpers.SendText(c, fmt.Sprintf(
		"📊 Channel message %d has %d comment(s):\n\n%s",
		postID, len(list), strings.Join(lines, "\n"),
	))
}

// RefreshButtons is the inline-callback twin of UpdateButtons; the payload
// carries the post ID.
func (h *Handlers) RefreshButtons(c tele.Context) error {
	postID, err := callbacks.PayloadInt(c)
	if err != nil {
		logger.SVCRelay.Warn("bad refresh payload",
			slog.String("event", "relay.refresh"),
			slog.String("err", err.Error()),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Invalid post reference"})
	}
	ctx := helpers.BuildContext(c)
	if !h.eng.SyncButtons(ctx, postID) {
		return c.Respond(&tele.CallbackResponse{Text: "Button refresh failed"})
	}
	return c.Respond(&tele.CallbackResponse{Text: "Buttons refreshed"})
}

// Relay routes any non-command message through the engine.
func (h *Handlers) Relay(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	return h.eng.HandleMessage(ctx, FromTele(c))
}

// AdminOnlyReject is the shared rejection notice for gated commands.
func AdminOnlyReject(c tele.Context) error {
	return helpers.SendText(c, msgAdminOnly)
}

func argPostID(c tele.Context) (int, bool) {
	args := c.Args()
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	return id, true
}

func usageReply(c tele.Context, name string) error {
	return helpers.SendText(c, fmt.Sprintf("Usage: /%s <channel_msg_id>\nExample: /%s 6", name, name))
}
