// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"forum-telegram-relay/internal/application"
	"forum-telegram-relay/internal/config"
	"forum-telegram-relay/internal/domain/model"
	"forum-telegram-relay/internal/infra/api"
	pg "forum-telegram-relay/internal/infra/db/postgres"
	"forum-telegram-relay/internal/infra/i18n"
	"forum-telegram-relay/internal/infra/logging"
	"forum-telegram-relay/internal/infra/metrics"
	red "forum-telegram-relay/internal/infra/redis"
	tele "forum-telegram-relay/internal/infra/telegram"
	"forum-telegram-relay/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	userRepo := pg.NewForumUserRepo(pool)
	topicRepo := pg.NewForumTopicRepo(pool)
	settingsRepo := pg.NewRelaySettingsRepo(pool)

	// ---- Relay settings ----
	store := config.NewStore(settingsRepo, cfg.Bot)
	if err := store.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("relay settings")
	}
	logger.Info().
		Str("credential", logging.Redact(store.Snapshot().BotToken)).
		Int64("room_id", store.Snapshot().RoomID).
		Msg("relay settings loaded")

	// ---- Localization ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Forum.DefaultLanguage)
	if err != nil {
		logger.Fatal().Err(err).Msg("translator")
	}
	langs, err := usecase.NewLanguageResolver(ctx, userRepo, cfg.Forum.DefaultLanguage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("language resolver")
	}

	// ---- Guard and event bus ----
	guard := red.NewReplyGuard(redisClient)
	bus := red.NewBus(redisClient, logger)

	// ---- Core wiring ----
	// The connection manager needs the inbound handler at construction
	// and the dispatcher needs the manager for mention handling, so the
	// handler closes over the relay assembled below.
	var relay *application.Relay
	conn := tele.NewManager(store, cfg.Bot.PollTimeout, func(ctx context.Context, msg model.InboundMessage) {
		relay.HandleInbound(ctx, msg)
	}, logger)

	dispatcher := usecase.NewCommandDispatcher(
		userRepo, topicRepo, guard, bus, translator, langs, conn, cfg.Forum.BaseURL, logger)
	notifications := usecase.NewNotificationRelay(
		userRepo, topicRepo, store, bus, translator, langs, cfg.Forum.BaseURL, logger)
	relay = application.NewRelay(dispatcher, notifications, store, bus, conn, logger)

	go func() {
		if err := conn.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("connection manager stopped")
			cancel()
		}
	}()
	go func() {
		if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("relay stopped")
		}
	}()

	// ---- Admin API ----
	auth := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SessionTTL)
	adminSrv := api.NewServer(store, conn, bus, auth, cfg.Admin.APIKey, logger)
	router := chi.NewRouter()
	adminSrv.Register(router)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: router}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin api server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	conn.Stop()
	cancel()
	_ = server.Shutdown(context.Background())
}
