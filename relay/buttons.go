package relay

import (
	"context"
	"fmt"
	"log/slog"

	"ventbot/core/logger"
	"ventbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Callback key for the admin "Refresh buttons" action.
const CallbackRefreshButtons = "btns_refresh"

// Deep-link payloads carried in https://t.me/<bot>?start=<payload>.
const (
	payloadDirect        = "comment_direct"
	payloadCommentPrefix = "comment_"
	payloadViewPrefix    = "view_"
)

func deepLink(botUsername, payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, payload)
}

// postButtons builds the two-button row attached to every channel post:
// "Comment" arms a direct channel post (static payload, same for every
// post), "View comments (N)" opens the list. Commenting on a specific post
// is reached through the "Add a comment" button on the view reply.
func postButtons(botUsername string, postID, count int) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(keyboard.Row(
		keyboard.InlineBtn{
			Text: "Comment",
			URL:  deepLink(botUsername, payloadDirect),
		},
		keyboard.InlineBtn{
			Text: fmt.Sprintf("View comments (%d)", count),
			URL:  deepLink(botUsername, fmt.Sprintf("%s%d", payloadViewPrefix, postID)),
		},
	))
}

// SyncButtons brings the inline keyboard of a channel post in line with the
// stored comment count. The operation is idempotent: an edit rejected as
// unchanged still counts as success. Missing channel or bot-username
// configuration disables synchronization rather than failing routing.
func (e *Engine) SyncButtons(ctx context.Context, postID int) bool {
	if e.cfg.ChannelID == 0 || e.cfg.BotUsername == "" {
		logger.SVCRelay.Debug("button sync skipped",
			slog.String("event", "buttons.sync.skip"),
			slog.Int("post_id", postID),
		)
		return false
	}

	count := e.comments.Count(ctx, postID)
	markup := postButtons(e.cfg.BotUsername, postID, count)

	err := e.snd.EditReplyMarkup(ctx, e.cfg.ChannelID, postID, markup)
	if err != nil && err != ErrNotModified {
		logger.SVCRelay.Warn("button sync failed",
			slog.String("event", "buttons.sync.fail"),
			slog.Int("post_id", postID),
			slog.Int("count", count),
			slog.String("err", err.Error()),
		)
		return false
	}

	logger.SVCRelay.Debug("buttons in sync",
		slog.String("event", "buttons.sync"),
		slog.Int("post_id", postID),
		slog.Int("count", count),
		slog.Bool("unchanged", err == ErrNotModified),
	)
	return true
}
