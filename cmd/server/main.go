package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dom/socialpedia/internal/api"
	"github.com/dom/socialpedia/internal/cache"
	"github.com/dom/socialpedia/internal/config"
	"github.com/dom/socialpedia/internal/events"
	"github.com/dom/socialpedia/internal/logging"
	"github.com/dom/socialpedia/internal/media"
	"github.com/dom/socialpedia/internal/metrics"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/dom/socialpedia/internal/repository/memory"
	"github.com/dom/socialpedia/internal/repository/mongo"
	"github.com/dom/socialpedia/internal/repository/postgres"
	"github.com/dom/socialpedia/internal/service"
	"github.com/dom/socialpedia/internal/websocket"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	repos, closeStore, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer closeStore()

	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
		repos.Post = cache.NewPostRepository(repos.Post, rdb, cfg.FeedCacheTTL, log)
		log.Info("feed cache enabled")
	}

	hub := websocket.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	m := metrics.New()
	publishers := events.Multi{hub, m}

	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to message broker")
		}
		defer amqpPub.Close()
		publishers = append(publishers, amqpPub)
		log.WithField("exchange", cfg.AMQPExchange).Info("event publishing enabled")
	}

	store, err := openMedia(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open media store")
	}

	services := service.NewServices(repos, cfg, service.Options{
		Publisher: publishers,
		Log:       log,
	})

	router := api.NewRouter(api.Deps{
		Services: services,
		Hub:      hub,
		Media:    store,
		Metrics:  m,
		Log:      log,
		Config:   cfg,
	})

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("Server stopped")
}

// openRepositories picks the store from the DATABASE_URL scheme.
func openRepositories(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*repository.Repositories, func(), error) {
	url := cfg.DatabaseURL
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		db, err := postgres.NewConnection(url)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using postgres store")
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return postgres.NewRepositories(db), closeFn, nil

	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		db, err := mongo.NewConnection(connectCtx, url, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("using mongodb store")
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Client().Disconnect(disconnectCtx)
		}
		return mongo.NewRepositories(db), closeFn, nil

	case strings.HasPrefix(url, "memory://"):
		log.Warn("using in-memory store; data is lost on restart")
		return memory.NewRepositories(memory.NewStore()), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", url)
}

func openMedia(ctx context.Context, cfg *config.Config) (media.Store, error) {
	if cfg.MediaBackend != "s3" {
		return media.NewDiskStore(cfg.MediaDir)
	}

	client, err := media.NewS3Client(ctx, media.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return media.NewS3Store(client, cfg.S3Bucket, ""), nil
}
