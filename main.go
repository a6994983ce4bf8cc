package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"campus_marketplace/config"
	"campus_marketplace/handlers"
	"campus_marketplace/internal/eventbus"
	"campus_marketplace/internal/repository"
	"campus_marketplace/internal/service"
	"campus_marketplace/internal/settings"
	"campus_marketplace/internal/ws"
	"campus_marketplace/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(level string) {
	if os.Getenv("APP_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := config.Migrate(db.Gorm); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}
	if cfg.Seed {
		if err := config.SeedUsers(db.Gorm); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed users")
		}
	}

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running without cache and checkout guard")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher eventbus.Publisher = eventbus.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := eventbus.NewRabbitMQPublisher(eventbus.RabbitMQConfig{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.EventsExchange,
		})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, events will be dropped")
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	store := repository.NewGormStore(db.Gorm)

	var cache settings.Cache
	var guard service.CheckoutGuard
	if rdb != nil {
		cache = settings.NewRedisCache(rdb)
		guard = service.NewRedisCheckoutGuard(rdb)
	}
	st := settings.NewService(store.Settings(), cache)

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Close()

	messages := service.NewMessagingService(store, nil)
	messages.SetNotifier(hub)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: "Campus Marketplace Server/1.0",
		ErrorHandler: handlers.ErrorHandler,
	})

	middleware.SetupMiddleware(app, cfg.CORSAllowOrigins)

	handlers.Register(app, handlers.Deps{
		Accounts: service.NewAccountService(store, cfg.JWTSecret, cfg.JWTExpiration),
		Products: service.NewProductService(store, st),
		Carts:    service.NewCartService(store, st),
		Orders:   service.NewOrderService(store, repository.NewStatsRepository(db.SQL), st, guard, publisher),
		Messages: messages,
		Reviews:  service.NewReviewService(store, publisher),
		Reports:  service.NewReportService(store),
		Settings: st,
		Hub:      hub,
	})
	app.Use(middleware.NotFound)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Addr()).Msg("🚀 Server starting")
	if err := app.Listen(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
