// Package relay implements the anonymous message pipeline: private messages
// are classified and routed to admins, the discussion group and the channel,
// channel posts carry comment buttons, and deep links arm pending comment or
// direct-post intents.
package relay

import (
	tele "gopkg.in/telebot.v4"
)

// MediaKind classifies the payload of an incoming message.
type MediaKind int

const (
	KindText MediaKind = iota
	KindPhoto
	KindDocument
	KindAudio
	KindVoice
	KindVideo
	KindSticker
	KindUnsupported
)

func (k MediaKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindDocument:
		return "document"
	case KindAudio:
		return "audio"
	case KindVoice:
		return "voice"
	case KindVideo:
		return "video"
	case KindSticker:
		return "sticker"
	default:
		return "unsupported"
	}
}

// SupportsCaption reports whether the kind can carry a caption when copied.
func (k MediaKind) SupportsCaption() bool {
	switch k {
	case KindPhoto, KindDocument, KindAudio, KindVoice, KindVideo:
		return true
	}
	return false
}

// User identifies the author of an incoming message.
type User struct {
	ID       int64
	Username string
	IsBot    bool
}

// ChatRef identifies the chat a message arrived in.
type ChatRef struct {
	ID   int64
	Type tele.ChatType
}

// ReplyRef captures the message being replied to, when present.
type ReplyRef struct {
	MessageID int
	Text      string
}

// Incoming is the transport-independent view of one inbound message. The
// routing pipeline operates on this shape so it can be exercised without a
// live bot connection.
type Incoming struct {
	UpdateID  int
	From      User
	Chat      ChatRef
	MessageID int
	Text      string
	Caption   string
	Media     MediaKind
	ReplyTo   *ReplyRef

	// Original carries the raw message for re-sending media by file
	// reference. Nil in tests that exercise text-only paths.
	Original *tele.Message
}

// Private reports whether the message arrived in a one-on-one chat.
func (in Incoming) Private() bool {
	return in.Chat.Type == tele.ChatPrivate
}

// Body returns the user-authored text of the message: Text for plain
// messages, Caption for captioned media.
func (in Incoming) Body() string {
	if in.Text != "" {
		return in.Text
	}
	return in.Caption
}

// FromTele normalizes a telebot update into an Incoming.
func FromTele(c tele.Context) Incoming {
	in := Incoming{UpdateID: c.Update().ID}

	if u := c.Sender(); u != nil {
		in.From = User{ID: u.ID, Username: u.Username, IsBot: u.IsBot}
	}
	if ch := c.Chat(); ch != nil {
		in.Chat = ChatRef{ID: ch.ID, Type: ch.Type}
	}

	msg := c.Message()
	if msg == nil {
		in.Media = KindUnsupported
		return in
	}

	in.MessageID = msg.ID
	in.Text = msg.Text
	in.Caption = msg.Caption
	in.Media = classify(msg)
	in.Original = msg

	if msg.ReplyTo != nil {
		in.ReplyTo = &ReplyRef{
			MessageID: msg.ReplyTo.ID,
			Text:      replyText(msg.ReplyTo),
		}
	}
	return in
}

func classify(msg *tele.Message) MediaKind {
	switch {
	case msg.Photo != nil:
		return KindPhoto
	case msg.Document != nil:
		return KindDocument
	case msg.Audio != nil:
		return KindAudio
	case msg.Voice != nil:
		return KindVoice
	case msg.Video != nil:
		return KindVideo
	case msg.Sticker != nil:
		return KindSticker
	case msg.Text != "":
		return KindText
	default:
		return KindUnsupported
	}
}

func replyText(msg *tele.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}
