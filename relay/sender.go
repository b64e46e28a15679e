package relay

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrNotModified signals that an edit left the message unchanged. Button
// synchronization treats it as success: the desired state already holds.
var ErrNotModified = errors.New("message is not modified")

// IsNotModified reports whether err is the Telegram "message is not
// modified" rejection in any of its shapes.
func IsNotModified(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotModified) {
		return true
	}
	return strings.Contains(err.Error(), "not modified")
}

// Sender is the outbound surface the routing pipeline needs. Message IDs are
// returned so channel posts can have their buttons attached after the fact.
type Sender interface {
	// SendText delivers plain text. markup may be nil.
	SendText(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error)

	// SendCopy re-sends the media payload of in to another chat by file
	// reference, with the given caption where the kind supports one.
	SendCopy(ctx context.Context, chatID int64, in Incoming, caption string) (int, error)

	// DeleteMessage removes a message the bot can delete.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// EditReplyMarkup replaces the inline keyboard of an existing message.
	// Returns ErrNotModified when the keyboard already matches.
	EditReplyMarkup(ctx context.Context, chatID int64, messageID int, markup *tele.ReplyMarkup) error

	// ChatTitle resolves the display title of a chat.
	ChatTitle(ctx context.Context, chatID int64) (string, error)
}
