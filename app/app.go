// Package app assembles the relay bot: configuration, store, routing engine,
// command registry, and the Telegram runtime options consumed by core/cmd.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"ventbot/core/bootstrap"
	"ventbot/core/buildinfo"
	"ventbot/core/cmd"
	coreconfig "ventbot/core/config"
	"ventbot/core/logger"
	"ventbot/core/store"
	coretelegram "ventbot/core/telegram"
	"ventbot/core/telegram/commands"
	"ventbot/core/telegram/router"
	"ventbot/relay"
	"ventbot/relay/comments"
	"ventbot/relay/pending"
)

// Carrier wraps the loaded configuration for core/cmd.
type Carrier struct {
	cfg *coreconfig.Config
}

// CoreConfig returns the embedded core configuration.
func (c *Carrier) CoreConfig() *coreconfig.Config {
	return c.cfg
}

// LoadConfig reads and validates the YAML+env configuration.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &Carrier{cfg: cfg}, nil
}

// App holds the assembled bot.
type App struct {
	cfg      *coreconfig.Config
	kv       store.KV
	engine   *relay.Engine
	handlers *relay.Handlers
}

// Bootstrap initializes logging and the store, then builds the routing engine.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()

	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	logger.L.With("component", "app").Info("starting",
		slog.String("event", "build"),
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	// The engine gets its sender once the bot is connected, in OnStart.
	eng := relay.New(cfg.Relay, nil, comments.NewStore(res.Store), pending.NewMemoryTracker(), nil)

	return &App{
		cfg:      cfg,
		kv:       res.Store,
		engine:   eng,
		handlers: relay.NewHandlers(eng),
	}, nil
}

// TelegramRunOptions wires the registry, middleware chain, and lifecycle
// hooks for the Telegram runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)

	if err := reg.RegisterCallback(relay.CallbackRefreshButtons, a.handlers.RefreshButtons); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: callback wiring failed: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:      a.cfg.Relay.AdminIDs,
		OnAdminReject: relay.AdminOnlyReject,
	})
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Handler: a.handlers.Relay,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      routes,

		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.engine.Bind(relay.NewTeleSender(rt.Bot), rt.Dispatcher)
			a.engine.Init(ctx)
			return nil
		},
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			return a.kv.Close()
		},
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	h := a.handlers

	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Start the bot",
	})
	reg.RegisterCommand("/whoami", commands.Command{
		Handler:     h.Whoami,
		Description: "Show your user ID and username",
	})
	reg.RegisterCommand("/groupid", commands.Command{
		Handler:     h.GroupID,
		Description: "Show the group chat ID",
		Hidden:      true,
	})
	reg.RegisterCommand("/msgid", commands.Command{
		Handler:     h.MsgID,
		Description: "Show the ID of the replied-to message",
		Hidden:      true,
	})
	// /help is not marked AdminOnly: the handler itself stays silent for
	// non-admins instead of sending the shared rejection notice.
	reg.RegisterCommand("/help", commands.Command{
		Handler:     h.Help,
		Description: "Admin reply instructions",
		Hidden:      true,
	})
	reg.RegisterCommand("/testchannel", commands.Command{
		Handler:     h.TestChannel,
		Description: "Probe channel access",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/updatebuttons", commands.Command{
		Handler:     h.UpdateButtons,
		Description: "Resync buttons for a channel post",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/checkcomments", commands.Command{
		Handler:     h.CheckComments,
		Description: "Inspect stored comments for a channel post",
		AdminOnly:   true,
		Hidden:      true,
	})
}
