package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"postboard/internal/auth"
	"postboard/internal/config"
	apphttp "postboard/internal/http"
	"postboard/internal/repository"
	"postboard/internal/repository/postgres"
	"postboard/internal/repository/sqlstore"
	"postboard/internal/service"
	"postboard/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := configureLogger(logger, cfg); err != nil {
		logger.Fatalf("configure logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postRepo, userRepo, closeDB, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer closeDB()

	if err := postRepo.Init(ctx); err != nil {
		logger.Fatalf("init post repository: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	images, err := buildImages(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	revoker, closeRedis := buildRevoker(ctx, cfg, logger)
	defer closeRedis()

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.TokenTTL())
	if err != nil {
		logger.Fatalf("setup tokens: %v", err)
	}
	authn := auth.NewAuthenticator(tokens, revoker, cfg.Auth.CookieName, logger)

	postService := service.NewPostService(postRepo, images, logger)
	userService := service.NewUserService(userRepo, cfg.Auth.RegisterPassword)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		postService,
		userService,
		authn,
		images,
		cfg.Storage.MaxUploadBytes,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.PostRepository, repository.UserRepository, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("using postgres database")
		return postgres.NewPostRepository(pool), postgres.NewUserRepository(pool), pool.Close, nil
	default:
		db, err := sqlstore.Open(sqlstore.Dialect(cfg.Database.Driver), cfg.Database.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using %s database", db.Dialect)
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Warnf("close database: %v", err)
			}
		}
		return sqlstore.NewPostRepository(db), sqlstore.NewUserRepository(db), closeDB, nil
	}
}

// buildRevoker returns a redis-backed revocation list, or a no-op one when
// no redis address is configured.
func buildRevoker(ctx context.Context, cfg config.Config, logger *logrus.Logger) (auth.Revoker, func()) {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, logout will not revoke tokens")
		return auth.NoopRevoker{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis ping %s: %v", cfg.Redis.Addr, err)
	} else {
		logger.Infof("using redis at %s for token revocation", cfg.Redis.Addr)
	}

	return auth.NewRedisRevoker(client), func() {
		if err := client.Close(); err != nil {
			logger.Warnf("close redis: %v", err)
		}
	}
}

// buildImages returns nil when no bucket is configured; image routes then
// answer with an internal error and post deletes skip cleanup.
func buildImages(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*storage.Images, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not configured, image hosting disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)

	return storage.NewImages(storage.NewS3Service(client), storage.ImagesConfig{
		Bucket:        cfg.Storage.Bucket,
		KeyPrefix:     cfg.Storage.KeyPrefix,
		Region:        cfg.Storage.Region,
		Endpoint:      cfg.Storage.Endpoint,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	}), nil
}
