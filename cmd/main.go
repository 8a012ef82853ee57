package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/user-avatar-service/internal/blobstore"
	"github.com/weiawesome/user-avatar-service/internal/config"
	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/internal/fetcher"
	"github.com/weiawesome/user-avatar-service/internal/handler"
	"github.com/weiawesome/user-avatar-service/internal/hasher"
	"github.com/weiawesome/user-avatar-service/internal/notify"
	"github.com/weiawesome/user-avatar-service/internal/repository"
	"github.com/weiawesome/user-avatar-service/internal/service"
	"github.com/weiawesome/user-avatar-service/pkg/database"
	"github.com/weiawesome/user-avatar-service/pkg/jwt"
	"github.com/weiawesome/user-avatar-service/pkg/log"
	"github.com/weiawesome/user-avatar-service/pkg/middleware"
	"github.com/weiawesome/user-avatar-service/pkg/pubsub"
	"github.com/weiawesome/user-avatar-service/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log.Init(cfg.Log)
	logger := log.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metadata and user persistence
	avatarRepo, userRepo, closeDB, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open database")
	}
	defer closeDB()

	// Avatar blob storage
	backend, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to initialize storage")
	}
	blobs := blobstore.New(backend)
	if err := blobs.EnsureRootExists(ctx); err != nil {
		// Retried on the first write.
		logger.Warn().Err(err).Msg("avatar storage root not ready")
	}

	// Notifications
	publisher, err := pubsub.NewPublisher(pubsub.Config{
		Driver: cfg.Notify.Driver,
		Redis: pubsub.RedisConfig{
			Address:  cfg.Notify.Redis.Address,
			Password: cfg.Notify.Redis.Password,
			DB:       cfg.Notify.Redis.DB,
			PoolSize: cfg.Notify.Redis.PoolSize,
		},
		Kafka: pubsub.KafkaConfig{
			Brokers:    cfg.Notify.Kafka.Brokers,
			Partitions: cfg.Notify.Kafka.Partitions,
			Topics:     []string{cfg.Notify.Topic},
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Notify.Driver).Msg("failed to initialize publisher")
	}
	defer publisher.Close()

	dispatcher := notify.NewDispatcher(publisher, cfg.Notify.Topic)
	defer dispatcher.Close()
	logger.Info().Str("driver", cfg.Notify.Driver).Str(log.FieldTopic, dispatcher.Topic()).Msg("notifications configured")

	// Upstream profile service
	httpFetcher, err := fetcher.NewHTTPFetcher(fetcher.Config{
		BaseURL:       cfg.Upstream.BaseURL,
		APIKey:        cfg.Upstream.APIKey,
		Timeout:       cfg.Upstream.Timeout,
		MaxImageBytes: cfg.Upstream.MaxImageBytes,
		VerifyImage:   cfg.Upstream.VerifyImage,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize upstream client")
	}
	upstream := fetcher.WithPolicy(httpFetcher, fetcher.Policy{
		Timeout:       cfg.Upstream.Timeout,
		RatePerSecond: cfg.Upstream.RatePerSecond,
		Burst:         cfg.Upstream.Burst,
	})

	tokens, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expires, cfg.JWT.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	// Services
	avatarService := service.NewAvatarService(avatarRepo, blobs, upstream, hasher.SHA256{})
	userService := service.NewUserService(userRepo, upstream, tokens, dispatcher)

	protect := middleware.Optional()
	if cfg.JWT.RequireAuth {
		protect = middleware.NewAuthMiddleware(tokens).RequireAuth()
	}

	// Setup Gin router
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), log.GinMiddleware(logger))
	handler.NewHandler(userService, avatarService, protect).RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", server.Addr).
			Str("database", cfg.Database.Driver).
			Str("storage", cfg.Storage.Driver).
			Str("notify", cfg.Notify.Driver).
			Msg("user avatar service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down user avatar service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
	}

	logger.Info().Msg("user avatar service stopped")
}

// openRepositories connects the configured database and returns the
// repositories plus a function releasing the connection.
func openRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.AvatarRepository, repository.UserRepository, func(), error) {
	if cfg.Database.Driver == "mongo" {
		client, db, err := database.NewMongo(ctx, &database.MongoConfig{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, nil, err
		}

		avatars := repository.NewMongoAvatarRepository(db.Collection(cfg.Mongo.AvatarCollection))
		users := repository.NewMongoUserRepository(db.Collection(cfg.Mongo.UserCollection))
		if err := avatars.EnsureIndexes(ctx); err != nil {
			return nil, nil, nil, err
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, nil, nil, err
		}

		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("failed to disconnect mongo")
			}
		}
		return avatars, users, closeFn, nil
	}

	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if err := database.AutoMigrate(db, &domain.AvatarModel{}, &domain.UserModel{}); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}
	logger.Info().Msg("database migration completed")

	closeFn := func() {
		if err := database.Close(db); err != nil {
			logger.Warn().Err(err).Msg("failed to close database")
		}
	}
	return repository.NewGormAvatarRepository(db), repository.NewGormUserRepository(db), closeFn, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case "s3":
		s3Storage, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("bucket", s3Storage.GetBucket()).Str("prefix", cfg.S3.Prefix).Msg("avatar storage on s3")
		return s3Storage, nil
	case "local":
		localStorage, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: cfg.Local.BasePath})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", localStorage.GetBasePath()).Msg("avatar storage on local disk")
		return localStorage, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
