package relay

import (
	"fmt"
	"strings"

	"ventbot/core/telegram/format"
	"ventbot/relay/comments"
)

// User-facing texts. Kept in one place so wording changes never touch
// routing logic.
const (
	msgDefaultGreeting = "This is an anonymous bot. Send whatever you feel—your message will be delivered without revealing your identity to others."

	msgPromptDirect  = "💬 Send your message now. It will be posted directly to the channel."
	msgPromptComment = "💬 Send your anonymous comment now. It will be added to the post."

	msgCommentsHeader = "📝 <b>Comments for this post:</b>"
	msgCommentsEmpty  = "No comments yet. Be the first to comment!"
	msgCommentsInvite = "💬 Want to add your own comment?"

	msgCommentStored = "✅ Your anonymous comment was added! Others can view it by clicking 'View comments' on the channel post."
	msgCommentBadType = "❌ Unsupported message type for comment. Please send text, photo, or media with caption."

	msgDeliveredToAdmins  = "Your message was delivered anonymously."
	msgDeliveredToChannel = "✅ Your message was posted to the channel."

	msgGroupGuard = "To post anonymously here, DM your message to me and I'll share it in this group."

	msgReplyNoID       = "Could not find original user ID in the replied message."
	msgReplyBadType    = "Unsupported message type for reply."
	msgUnsupportedKind = "Unsupported message type. Try sending text or media."

	msgAdminHelp = "Admin help: Reply to a forwarded message to respond anonymously to the user."

	msgAdminOnly = "Admin only command."
)

const previewRunes = 50

// anonHeader renders the identity line prefixed to messages relayed to
// admins. The user ID inside is what reply routing parses back out.
func anonHeader(from User) string {
	name := "<no username>"
	if from.Username != "" {
		name = "@" + from.Username
	}
	return fmt.Sprintf("[anon] From %s (ID %d)", name, from.ID)
}

// ventHeader numbers anonymous channel posts.
func ventHeader(n int64) string {
	return fmt.Sprintf("UnKnown vent (%d)\n\n", n)
}

// placeholder stands in for media that cannot be quoted as text.
func placeholder(in Incoming) string {
	switch in.Media {
	case KindPhoto:
		return "[Photo]"
	case KindDocument:
		name := ""
		if in.Original != nil && in.Original.Document != nil {
			name = in.Original.Document.FileName
		}
		if name == "" {
			return "[Document]"
		}
		return fmt.Sprintf("[Document: %s]", name)
	case KindAudio:
		title := ""
		if in.Original != nil && in.Original.Audio != nil {
			title = in.Original.Audio.Title
		}
		if title == "" {
			return "[Audio]"
		}
		return fmt.Sprintf("[Audio: %s]", title)
	case KindVoice:
		return "[Voice message]"
	case KindVideo:
		return "[Video]"
	case KindSticker:
		return "[Sticker]"
	default:
		return "[Unsupported]"
	}
}

// commentBody is the text stored for a comment: the typed text, the media
// caption, or a placeholder for captionless media.
func commentBody(in Incoming) (string, bool) {
	if in.Media == KindText {
		return in.Text, true
	}
	if in.Media == KindUnsupported {
		return "", false
	}
	if in.Caption != "" {
		return in.Caption, true
	}
	return placeholder(in), true
}

// formatComments renders the numbered HTML list shown to viewers, always
// prefixed by the section header.
func formatComments(list []comments.Comment) string {
	if len(list) == 0 {
		return msgCommentsHeader + "\n\n" + msgCommentsEmpty
	}
	items := make([]string, len(list))
	for i, c := range list {
		when := c.Time().Local().Format("2006-01-02 15:04")
		items[i] = fmt.Sprintf("%d. %s\n   <i>%s</i>", i+1, format.EscapeHTML(c.Text), when)
	}
	return msgCommentsHeader + "\n\n" + strings.Join(items, "\n\n")
}

// preview truncates comment text for admin diagnostics.
func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "..."
}
