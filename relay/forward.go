package relay

import (
	"context"
	"log/slog"
	"strings"

	"ventbot/core/logger"
)

// forwardAnonymous is the default path for private messages: fan out to every
// admin with an identity header, mirror the payload into the group, and post
// it to the channel. Admin and group deliveries go through the dispatcher;
// the channel send stays synchronous because button attachment needs the new
// message ID.
func (e *Engine) forwardAnonymous(ctx context.Context, in Incoming) error {
	if in.Media == KindUnsupported {
		_, err := e.snd.SendText(ctx, in.From.ID, msgUnsupportedKind, nil)
		return err
	}

	e.fanOutToAdmins(ctx, in)

	if e.cfg.GroupID != 0 {
		e.copyToGroup(ctx, in)
	}

	postedToChannel := false
	if e.cfg.ChannelID != 0 {
		postedToChannel = e.postToChannel(ctx, in)
	}

	return e.acknowledge(ctx, in, postedToChannel)
}

func (e *Engine) fanOutToAdmins(ctx context.Context, in Incoming) {
	header := anonHeader(in.From)

	for _, adminID := range e.cfg.AdminIDs {
		adminID := adminID
		switch in.Media {
		case KindText:
			text := header + "\n\n" + in.Text
			e.dispatch(ctx, "relay.admin", func() error {
				_, err := e.snd.SendText(ctx, adminID, text, nil)
				return err
			})
		case KindSticker:
			// Stickers cannot carry the header, so it goes ahead as text.
			e.dispatch(ctx, "relay.admin", func() error {
				if _, err := e.snd.SendText(ctx, adminID, header+"\n\n[sticker]", nil); err != nil {
					return err
				}
				_, err := e.snd.SendCopy(ctx, adminID, in, "")
				return err
			})
		default:
			caption := header
			if in.Caption != "" {
				caption = header + "\n\n" + in.Caption
			}
			e.dispatch(ctx, "relay.admin", func() error {
				_, err := e.snd.SendCopy(ctx, adminID, in, caption)
				return err
			})
		}
	}

	logger.SVCRelay.Debug("fanned out to admins",
		slog.String("event", "relay.forward"),
		slog.Int("admins", len(e.cfg.AdminIDs)),
		slog.String("kind", in.Media.String()),
	)
}

// copyToGroup mirrors the payload into the group verbatim, with no header.
func (e *Engine) copyToGroup(ctx context.Context, in Incoming) {
	groupID := e.cfg.GroupID
	switch in.Media {
	case KindText:
		text := in.Text
		e.dispatch(ctx, "relay.group", func() error {
			_, err := e.snd.SendText(ctx, groupID, text, nil)
			return err
		})
	default:
		e.dispatch(ctx, "relay.group", func() error {
			_, err := e.snd.SendCopy(ctx, groupID, in, in.Caption)
			return err
		})
	}
}

// postToChannel publishes the payload to the channel. Non-admin posts get a
// numbered vent header; the new post then has its comment buttons attached.
// Returns whether a channel message was created.
func (e *Engine) postToChannel(ctx context.Context, in Incoming) bool {
	var prefix string
	if !e.cfg.IsAdmin(in.From.ID) {
		prefix = ventHeader(e.comments.NextVentNumber(ctx))
	}

	var (
		sentID int
		err    error
	)
	switch in.Media {
	case KindText:
		sentID, err = e.snd.SendText(ctx, e.cfg.ChannelID, prefix+in.Text, nil)
	case KindSticker:
		if prefix != "" {
			if _, err = e.snd.SendText(ctx, e.cfg.ChannelID, strings.TrimSpace(prefix), nil); err != nil {
				break
			}
		}
		sentID, err = e.snd.SendCopy(ctx, e.cfg.ChannelID, in, "")
	default:
		caption := ""
		switch {
		case in.Caption != "":
			caption = prefix + in.Caption
		case prefix != "":
			caption = strings.TrimSpace(prefix)
		}
		sentID, err = e.snd.SendCopy(ctx, e.cfg.ChannelID, in, caption)
	}

	if err != nil {
		logger.SVCRelay.Error("channel post failed",
			slog.String("event", "relay.channel"),
			slog.Int64("chat_id", e.cfg.ChannelID),
			slog.String("kind", in.Media.String()),
			slog.String("err", err.Error()),
		)
		return false
	}

	logger.SVCRelay.Info("posted to channel",
		slog.String("event", "relay.channel"),
		slog.Int("post_id", sentID),
		slog.String("kind", in.Media.String()),
		slog.Bool("vented", prefix != ""),
	)

	e.SyncButtons(ctx, sentID)
	return true
}

func (e *Engine) acknowledge(ctx context.Context, in Incoming, postedToChannel bool) error {
	if !e.cfg.IsAdmin(in.From.ID) {
		_, err := e.snd.SendText(ctx, in.From.ID, msgDeliveredToAdmins, nil)
		return err
	}
	if postedToChannel {
		_, err := e.snd.SendText(ctx, in.From.ID, msgDeliveredToChannel, nil)
		return err
	}
	return nil
}
