package main

import (
	"context"
	"errors"
	"fmt"

	"userbot/internal/adapters/generator"
	"userbot/internal/adapters/metrics"
	"userbot/internal/adapters/paste"
	"userbot/internal/adapters/storage"
	"userbot/internal/adapters/telegram"
	"userbot/internal/adapters/translator"
	"userbot/internal/core/dispatch"
	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/middleware"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"
	"userbot/internal/core/service"
	"userbot/internal/core/usergroup"
	"userbot/internal/features"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// modules holds everything that gets subscribed to the transport, in subscription order.
type modules struct {
	commands  *registry.Commands
	shortcuts *registry.Shortcuts
	hooks     *registry.Hooks
}

func buildModules(opts features.Options) (*modules, error) {
	commands, err := features.Commands(opts)
	if err != nil {
		return nil, fmt.Errorf("building commands: %w", err)
	}

	hooks := features.Hooks()
	if err := commands.AddSubmodule(hooks.ToggleCommands()); err != nil {
		return nil, fmt.Errorf("adding hook toggles: %w", err)
	}

	return &modules{commands: commands, shortcuts: features.Shortcuts(), hooks: hooks}, nil
}

func (m *modules) register(source port.EventSource, e *registry.Engine) error {
	if err := m.commands.Register(source, e); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	if err := m.shortcuts.Register(source, e); err != nil {
		return fmt.Errorf("registering shortcuts: %w", err)
	}
	if err := m.hooks.Register(source, e); err != nil {
		return fmt.Errorf("registering hooks: %w", err)
	}

	return nil
}

func featureOptions() (features.Options, error) {
	ttl, err := duration("ask.conversation_ttl")
	if err != nil {
		return features.Options{}, err
	}

	timeout, err := duration("ask.timeout")
	if err != nil {
		return features.Options{}, err
	}

	opts := features.Options{ConversationTTL: ttl, AskTimeout: timeout}

	if key := viper.GetString("openrouter.api_key"); key != "" {
		opts.Generator = generator.NewOpenRouter(key, viper.GetString("openrouter.model"),
			viper.GetString("openrouter.system_prompt"))
	} else {
		log.Info().Msg("no openrouter api key configured, ask command disabled")
	}

	return opts, nil
}

func run(ctx context.Context) error {
	store, err := storage.Open(ctx, viper.GetString("storage.driver"), viper.GetString("storage.path"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed closing store")
		}
	}()

	b, err := bot.New(viper.GetString("telegram.bot_token"), bot.WithDefaultHandler(noOpHandler))
	if err != nil {
		return fmt.Errorf("failed initializing telegram bot: %w", err)
	}

	transport := telegram.NewTransport(b, store)

	me, err := transport.Me(ctx)
	if err != nil {
		return err
	}

	owner := viper.GetInt64("auth.owner")
	if owner == 0 {
		owner = me.ID
	}

	localizer, err := translator.NewCatalog(viper.GetString("bot.language"), viper.GetString("locales.dir"))
	if err != nil {
		return err
	}

	cfg, err := dispatchConfig()
	if err != nil {
		return err
	}

	observer := metrics.New()
	runnerOpts := []dispatch.Option{dispatch.WithObserver(observer)}
	if url := viper.GetString("paste.url"); url != "" {
		runnerOpts = append(runnerOpts, dispatch.WithPaste(paste.NewClient(url)))
	}

	resolver := usergroup.NewResolver(store, store)

	authorizer, err := service.NewAuthorizer(owner, resolver)
	if err != nil {
		return err
	}

	tracker, err := service.NewUsageTracker(owner)
	if err != nil {
		return err
	}

	chain := middleware.NewChain[*inject.Context]()
	if err := errors.Join(
		chain.Use("authorizer", authorizer.Middleware()),
		chain.Use("limits", tracker.Middleware()),
	); err != nil {
		return err
	}

	opts, err := featureOptions()
	if err != nil {
		return err
	}

	mods, err := buildModules(opts)
	if err != nil {
		return err
	}

	engine := &registry.Engine{
		Prefixes:  viper.GetString("bot.prefixes"),
		Runner:    dispatch.NewRunner(transport, cfg, runnerOpts...),
		Chain:     chain,
		Localizer: localizer,
		Icons:     domain.DefaultIcons(),
		Hooks:     store,
		Sender:    transport,
		Values:    []any{store, resolver},
	}

	if err := mods.register(transport, engine); err != nil {
		return err
	}

	b.RegisterHandlerMatchFunc(telegram.MatchMessages, transport.Handle)

	go tracker.Run(ctx)

	if addr := viper.GetString("metrics.listen"); addr != "" {
		go func() {
			if err := observer.Serve(ctx, addr); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	log.Info().Str("username", me.Username).Int64("owner", owner).Msg("bot listening")
	b.Start(ctx)

	return nil
}

// discard is an event source that drops every subscription.
type discard struct{}

func (discard) Listen(string, bool, port.Listener) {}

// validate registers every module against an in-memory setup, which runs all
// registration time checks without connecting anywhere.
func validate(_ context.Context) error {
	opts, err := featureOptions()
	if err != nil {
		return err
	}

	mods, err := buildModules(opts)
	if err != nil {
		return err
	}

	if _, err := dispatchConfig(); err != nil {
		return err
	}

	store := storage.NewMemoryStore()
	engine := &registry.Engine{
		Prefixes: viper.GetString("bot.prefixes"),
		Icons:    domain.DefaultIcons(),
		Hooks:    store,
		Values:   []any{store},
	}

	return mods.register(discard{}, engine)
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
