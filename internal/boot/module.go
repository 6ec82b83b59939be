package boot

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/chatmanager/internal/action"
	"github.com/memohai/chatmanager/internal/annotate"
	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/chat"
	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/format"
	"github.com/memohai/chatmanager/internal/i18n"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/placeholder"
	"github.com/memohai/chatmanager/internal/substitute"
	"github.com/memohai/chatmanager/internal/viewsession"
)

// Module wires the chat pipeline. The caller supplies a ConfigPath and a
// *slog.Logger (see ProvideLogger).
var Module = fx.Options(
	fx.Provide(
		ProvideConfig,
		identity.NewTracker,
		delivery.NewHub,
		provideCatalog,
		provideStore,
		provideSweeper,
		providePermissions,
		provideRenderer,
		provideRegistry,
		provideBuilder,
		provideEngine,
		provideNotifier,
		provideMentions,
		provideHovers,
		provideWatcher,
		provideChatService,
	),
	fx.Invoke(
		startSweeper,
		startNotifier,
		startWatcher,
		wireReload,
	),
)

func provideCatalog() (*i18n.Catalog, error) {
	catalog, err := i18n.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load item names: %w", err)
	}
	return catalog, nil
}

func provideStore() *viewsession.Store {
	return viewsession.NewStore()
}

func provideSweeper(log *slog.Logger, store *viewsession.Store, cfg config.Config) *viewsession.Sweeper {
	return viewsession.NewSweeper(log, store, cfg.ViewSessions.TTL, cfg.ViewSessions.SweepInterval)
}

func providePermissions(cfg config.Config) (*capability.StaticProvider, *capability.StaticDecorator) {
	provider := capability.NewStaticProvider(cfg.Chat.PermissionNamespace, cfg.Permissions.Defaults, cfg.Permissions.Players)
	decorator := capability.NewStaticDecorator(MetaFromConfig(cfg.Permissions))
	return provider, decorator
}

func provideRenderer(provider *capability.StaticProvider, decorator *capability.StaticDecorator, cfg config.Config) *format.Renderer {
	return format.NewRenderer(provider, decorator, format.TemplatesFromConfig(cfg.Formats))
}

func provideRegistry(cfg config.Config) *placeholder.Registry {
	return placeholder.NewRegistry(placeholder.FromConfig(cfg))
}

func provideBuilder(log *slog.Logger, store *viewsession.Store, catalog *i18n.Catalog, cfg config.Config) *action.Builder {
	return action.NewBuilder(log, store, catalog, action.SettingsFromConfig(cfg))
}

func provideEngine(registry *placeholder.Registry, builder *action.Builder) *substitute.Engine {
	return substitute.NewEngine(registry, builder)
}

func provideNotifier(log *slog.Logger, hub *delivery.Hub, cfg config.Config) *annotate.Notifier {
	return annotate.NewNotifier(log, hub, annotate.NotifierConfigFromConfig(cfg.Mentions))
}

func provideMentions(tracker *identity.Tracker, notifier *annotate.Notifier, cfg config.Config) *annotate.Mentions {
	return annotate.NewMentions(tracker, notifier, annotate.MentionSettingsFromConfig(cfg.Mentions))
}

func provideHovers(tracker *identity.Tracker, cfg config.Config) *annotate.Hovers {
	return annotate.NewHovers(tracker, annotate.HoverSettingsFromConfig(cfg.Hover))
}

func provideWatcher(log *slog.Logger, path ConfigPath, cfg config.Config) *config.Watcher {
	return config.NewWatcher(log, ResolvePath(path), cfg.Watch.Debounce)
}

type chatParams struct {
	fx.In

	Logger   *slog.Logger
	Config   config.Config
	Tracker  *identity.Tracker
	Renderer *format.Renderer
	Engine   *substitute.Engine
	Registry *placeholder.Registry
	Store    *viewsession.Store
	Mentions *annotate.Mentions
	Hovers   *annotate.Hovers
	Notifier *annotate.Notifier
	Hub      *delivery.Hub
}

func provideChatService(params chatParams) *chat.Service {
	return chat.NewService(params.Logger, chat.Deps{
		Tracker:  params.Tracker,
		Renderer: params.Renderer,
		Engine:   params.Engine,
		Registry: params.Registry,
		Store:    params.Store,
		Mentions: params.Mentions,
		Hovers:   params.Hovers,
		Notifier: params.Notifier,
		Out:      params.Hub,
	}, chat.SettingsFromConfig(params.Config))
}

func startSweeper(lc fx.Lifecycle, sweeper *viewsession.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return sweeper.Stop(ctx)
		},
	})
}

func startNotifier(lc fx.Lifecycle, notifier *annotate.Notifier) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return notifier.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return notifier.Stop()
		},
	})
}

func startWatcher(lc fx.Lifecycle, watcher *config.Watcher, cfg config.Config, logger *slog.Logger) {
	if !cfg.Watch.Enabled {
		logger.Debug("config watch disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return watcher.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return watcher.Stop()
		},
	})
}

type reloadParams struct {
	fx.In

	Logger    *slog.Logger
	Watcher   *config.Watcher
	Service   *chat.Service
	Registry  *placeholder.Registry
	Renderer  *format.Renderer
	Builder   *action.Builder
	Mentions  *annotate.Mentions
	Hovers    *annotate.Hovers
	Notifier  *annotate.Notifier
	Sweeper   *viewsession.Sweeper
	Provider  *capability.StaticProvider
	Decorator *capability.StaticDecorator
}

// wireReload makes both file changes and the reload subcommand swap every
// reloadable setting. The permission namespace and sweep interval are read
// at startup only.
func wireReload(params reloadParams) {
	logger := params.Logger.With(slog.String("component", "reload"))
	params.Watcher.OnReload(func(ctx context.Context, cfg config.Config) {
		Apply(params.components(), cfg)
		logger.InfoContext(ctx, "configuration reloaded",
			slog.Int("placeholders", params.Registry.Load().Len()))
	})
	params.Service.SetReloader(func(ctx context.Context) error {
		_, err := params.Watcher.Reload(ctx)
		return err
	})
}

func (p reloadParams) components() Components {
	return Components{
		Service:   p.Service,
		Registry:  p.Registry,
		Renderer:  p.Renderer,
		Builder:   p.Builder,
		Mentions:  p.Mentions,
		Hovers:    p.Hovers,
		Notifier:  p.Notifier,
		Sweeper:   p.Sweeper,
		Provider:  p.Provider,
		Decorator: p.Decorator,
	}
}

// Components are the reloadable parts of a running pipeline. Nil fields are
// skipped.
type Components struct {
	Service   *chat.Service
	Registry  *placeholder.Registry
	Renderer  *format.Renderer
	Builder   *action.Builder
	Mentions  *annotate.Mentions
	Hovers    *annotate.Hovers
	Notifier  *annotate.Notifier
	Sweeper   *viewsession.Sweeper
	Provider  *capability.StaticProvider
	Decorator *capability.StaticDecorator
}

// Apply pushes a freshly loaded configuration into running components.
func Apply(c Components, cfg config.Config) {
	if c.Registry != nil {
		c.Registry.Replace(placeholder.FromConfig(cfg))
	}
	if c.Renderer != nil {
		c.Renderer.SetTemplates(format.TemplatesFromConfig(cfg.Formats))
	}
	if c.Builder != nil {
		c.Builder.SetSettings(action.SettingsFromConfig(cfg))
	}
	if c.Mentions != nil {
		c.Mentions.SetSettings(annotate.MentionSettingsFromConfig(cfg.Mentions))
	}
	if c.Hovers != nil {
		c.Hovers.SetSettings(annotate.HoverSettingsFromConfig(cfg.Hover))
	}
	if c.Notifier != nil {
		c.Notifier.SetMessage(cfg.Mentions.Notification)
	}
	if c.Sweeper != nil {
		c.Sweeper.SetTTL(cfg.ViewSessions.TTL)
	}
	if c.Provider != nil {
		c.Provider.Replace(cfg.Permissions.Defaults, cfg.Permissions.Players)
	}
	if c.Decorator != nil {
		c.Decorator.Replace(MetaFromConfig(cfg.Permissions))
	}
	if c.Service != nil {
		c.Service.SetSettings(chat.SettingsFromConfig(cfg))
	}
}
