package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"

	"productapi/internal/config"
	"productapi/internal/database"
	"productapi/internal/repositories"
	"productapi/internal/server"
	"productapi/internal/services"
	"productapi/internal/telemetry"
	"productapi/pkg/logger"
	"productapi/pkg/rabbitmq"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	// --- Telemetry ---
	if cfg.TelemetryEnabled() {
		shutdown, err := telemetry.Init(context.Background(), cfg.OTelServiceName, cfg.OTLPEndpoint, cfg.Env)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize telemetry")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("failed to shut down telemetry")
			}
		}()
		log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("telemetry enabled")
	}

	// --- Messaging ---
	var publisher services.EventPublisher
	if cfg.MessagingEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		publisher = mqClient

		if err := mqClient.ConsumeEvents(logEvent(log)); err != nil {
			log.Error().Err(err).Msg("failed to start RabbitMQ consumer")
		}
	}

	app, cleanup, err := buildApp(cfg, log, publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}
	defer cleanup()

	// --- Start HTTP Server ---
	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.DBDriver).Msg("starting server")
		if err := app.Listen(cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}

// buildApp opens the configured store and wires repositories, services and
// handlers into a Fiber app. cleanup releases the store.
func buildApp(cfg *config.Config, log *logger.Logger, publisher services.EventPublisher) (*fiber.App, func(), error) {
	var (
		productRepo repositories.ProductRepository
		stockRepo   repositories.StockRepository
		ping        server.Pinger
		cleanup     = func() {}
	)

	switch cfg.DBDriver {
	case config.DriverMemory:
		store := repositories.NewMemoryStore(repositories.WithMemoryIDMaxAttempts(cfg.ProductIDMaxAttempts))
		productRepo, stockRepo = store, store
	default:
		db, err := database.Open(database.Options{
			Driver:       cfg.DBDriver,
			DSN:          cfg.DatabaseDSN,
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
			Tracing:      cfg.TelemetryEnabled(),
		}, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		productRepo = repositories.NewGORMProductRepository(db, repositories.WithIDMaxAttempts(cfg.ProductIDMaxAttempts))
		stockRepo = repositories.NewGORMStockRepository(db)
		ping = func(ctx context.Context) error { return database.Ping(ctx, db) }
		cleanup = func() {
			if err := database.Close(db); err != nil {
				log.Error().Err(err).Msg("failed to close database")
			}
		}
	}

	app := server.NewApp(server.Deps{
		AppName:        cfg.AppName,
		ProductService: services.NewProductService(productRepo, log, publisher),
		StockService:   services.NewStockService(stockRepo, log, publisher),
		Log:            log,
		Ping:           ping,
		Tracing:        cfg.TelemetryEnabled(),
		AccessLog:      cfg.Env == "development",
		DocsFile:       cfg.DocsFile,
	})
	return app, cleanup, nil
}

// logEvent is the consumer for the event queue. It logs every product event
// it receives. Malformed payloads are logged and acked so they are not redelivered.
func logEvent(log *logger.Logger) rabbitmq.MessageHandler {
	return func(msg amqp.Delivery) error {
		var evt services.Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Warn().Err(err).Str("type", msg.Type).Msg("dropping malformed event")
			return nil
		}
		log.Info().
			Str("event", evt.Type).
			Str("event_id", evt.ID).
			Int("product_id", evt.ProductID).
			Int("delta", evt.Delta).
			Msg("product event received")
		return nil
	}
}
