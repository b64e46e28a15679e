package relay

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// teleSender adapts a live bot connection to the Sender interface.
type teleSender struct {
	bot *tele.Bot
}

// NewTeleSender wraps a connected bot as a Sender.
func NewTeleSender(bot *tele.Bot) Sender {
	return &teleSender{bot: bot}
}

func (s *teleSender) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	opts := &tele.SendOptions{ReplyMarkup: markup}
	msg, err := s.bot.Send(tele.ChatID(chatID), text, opts)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// SendCopy re-sends the media of in by its Telegram file reference, so the
// bot never downloads payloads. Caption is applied only where the media kind
// carries one.
func (s *teleSender) SendCopy(_ context.Context, chatID int64, in Incoming, caption string) (int, error) {
	if in.Media == KindText {
		return s.SendText(context.Background(), chatID, in.Text, nil)
	}

	payload, err := copyPayload(in, caption)
	if err != nil {
		return 0, err
	}

	msg, err := s.bot.Send(tele.ChatID(chatID), payload)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// copyPayload builds the sendable for a media re-send. Each captionable kind
// gets a shallow copy with the outgoing caption set, leaving the source
// message untouched.
func copyPayload(in Incoming, caption string) (interface{}, error) {
	if in.Original == nil {
		return nil, fmt.Errorf("relay: no source message to copy")
	}

	switch in.Media {
	case KindPhoto:
		p := *in.Original.Photo
		p.Caption = caption
		return &p, nil
	case KindDocument:
		d := *in.Original.Document
		d.Caption = caption
		return &d, nil
	case KindAudio:
		a := *in.Original.Audio
		a.Caption = caption
		return &a, nil
	case KindVideo:
		v := *in.Original.Video
		v.Caption = caption
		return &v, nil
	case KindVoice:
		v := *in.Original.Voice
		v.Caption = caption
		return &v, nil
	case KindSticker:
		return in.Original.Sticker, nil
	default:
		return nil, fmt.Errorf("relay: cannot copy media kind %s", in.Media)
	}
}

func (s *teleSender) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	return s.bot.Delete(&tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	})
}

func (s *teleSender) EditReplyMarkup(_ context.Context, chatID int64, messageID int, markup *tele.ReplyMarkup) error {
	stored := &tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
	_, err := s.bot.EditReplyMarkup(stored, markup)
	if IsNotModified(err) {
		return ErrNotModified
	}
	return err
}

func (s *teleSender) ChatTitle(_ context.Context, chatID int64) (string, error) {
	chat, err := s.bot.ChatByID(chatID)
	if err != nil {
		return "", err
	}
	return chat.Title, nil
}
