package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appoutbox "rently/internal/app/outbox"
	authsvc "rently/internal/app/services/auth"
	chatsvc "rently/internal/app/services/chat"
	listingssvc "rently/internal/app/services/listings"
	reviewssvc "rently/internal/app/services/reviews"
	domainauth "rently/internal/domain/auth"
	domainchat "rently/internal/domain/chat"
	domainlistings "rently/internal/domain/listings"
	domainreviews "rently/internal/domain/reviews"
	domainuser "rently/internal/domain/user"
	"rently/internal/infra/broker/kafka"
	"rently/internal/infra/config"
	mongostore "rently/internal/infra/db/mongo"
	ginserver "rently/internal/infra/http/gin"
	"rently/internal/infra/obs"
	infraoutbox "rently/internal/infra/outbox"
	"rently/internal/infra/security"
	"rently/internal/infra/storage/memory"
	"rently/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	mongo    *mongostore.Client
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		app      application
		users    domainuser.Repository
		sessions domainauth.SessionStore
		listings domainlistings.Repository
		reviews  domainreviews.Repository
		messages domainchat.Store
		box      appoutbox.Outbox
	)

	sessions = memory.NewSessionStore()

	if cfg.MongoURI != "" {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		app.mongo = client
		users = mongostore.NewUserRepository(client.DB)
		listings = mongostore.NewListingRepository(client.DB)
		reviews = mongostore.NewReviewRepository(client.DB)
		messages = mongostore.NewMessageStore(client.DB)

		outboxStore := mongostore.NewOutboxStore(client.DB)
		box = outboxStore
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			app.worker = &infraoutbox.Worker{
				Store:       outboxStore,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Source:      "rently",
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Info("kafka brokers not configured, outbox events stay queued")
		}
		logger.Info("storage ready", "backend", "mongo", "database", cfg.MongoDB)
	} else {
		users = memory.NewUserRepository()
		listings = memory.NewListingRepository()
		reviews = memory.NewReviewRepository()
		messages = memory.NewMessageStore()
		box = memory.NewOutbox()
		logger.Info("storage ready", "backend", "memory")
	}

	var uploader s3.Uploader = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			return application{}, err
		}
		uploader = client
	}

	encoder := appoutbox.JSONEventEncoder{}

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	listingService := &listingssvc.Service{
		Listings: listings,
		Uploader: uploader,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	}
	reviewService := &reviewssvc.Service{
		Reviews:  reviews,
		Listings: listings,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	}
	chatService := &chatsvc.Service{
		Messages: messages,
		Users:    users,
		Listings: listings,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	}

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Listings:       ginserver.ListingHandler{Service: listingService, Logger: logger},
		Reviews:        ginserver.ReviewHandler{Service: reviewService, Logger: logger},
		Chat:           ginserver.ChatHandler{Service: chatService, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	return app, nil
}

func (a application) ready() error {
	if a.mongo == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return a.mongo.Ping(ctx)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
