package router

import (
	"time"

	tg "ventbot/core/telegram"
	"ventbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions configures how non-command messages are routed.
type MessageOptions struct {
	// Handler receives every message update that is not a registered
	// command: text, media, stickers.
	Handler tele.HandlerFunc
}

// messageEndpoints lists every payload kind the relay accepts.
var messageEndpoints = []string{
	tele.OnText,
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnAudio,
	tele.OnVoice,
	tele.OnVideo,
	tele.OnSticker,
}

// MessageRoutes binds text and media endpoints to the relay pipeline.
// Slash-texts that match a registered command are dispatched to that
// command's handler so deep-link payload variants still work.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if opts.Handler != nil {
			return handleWithSummary(c, "relay", start, "", "", func() error {
				return opts.Handler(c)
			})
		}

		logHandlerSummary(c, "relay", start, "skip", "ok", nil)
		return nil
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Handler != nil {
			return handleWithSummary(c, "relay_media", start, "", "", func() error {
				return opts.Handler(c)
			})
		}
		logHandlerSummary(c, "relay_media", start, "skip", "ok", nil)
		return nil
	}

	routes := make([]tg.Route, 0, len(messageEndpoints))
	for _, endpoint := range messageEndpoints {
		h := mediaHandler
		if endpoint == tele.OnText {
			h = textHandler
		}
		routes = append(routes, tg.Route{
			Endpoint: endpoint,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}
	return routes
}
