package main

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/rryowa/newsapp/internal/api"
	"github.com/rryowa/newsapp/internal/controller"
	"github.com/rryowa/newsapp/internal/migrations"
	"github.com/rryowa/newsapp/internal/service"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/storage/media"
	"github.com/rryowa/newsapp/internal/storage/memory"
	"github.com/rryowa/newsapp/internal/storage/postgres"
	"github.com/rryowa/newsapp/internal/storage/redis"
	"github.com/rryowa/newsapp/internal/util"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := util.NewZapLogger(util.GetLogLevel())
	defer func() { _ = logger.Sync() }()

	tokenCfg, err := util.NewTokenConfig()
	if err != nil {
		logger.Fatal(err)
	}
	dbCfg, err := util.NewDBConfig()
	if err != nil {
		logger.Fatal(err)
	}
	s3Cfg, err := util.NewS3Config()
	if err != nil {
		logger.Fatal(err)
	}

	db, dbCleanup, err := util.NewDBConnection(ctx, logger, dbCfg)
	if err != nil {
		logger.Fatal(err)
	}
	defer dbCleanup()

	if err := migrations.RunMigrations(db, logger); err != nil {
		logger.Fatal(err)
	}

	var limiter storage.RateLimiter
	rateCfg := util.NewRateLimiterConfig()
	if redisCfg := util.NewRedisConfig(); redisCfg != nil {
		redisClient, redisCleanup, err := util.NewRedisClient(ctx, logger, redisCfg)
		if err != nil {
			logger.Fatal(err)
		}
		defer redisCleanup()
		limiter = redis.NewRateLimiter(redisClient, rateCfg)
	} else {
		logger.Warn("REDIS_ADDR is not set, rate limiting is per process")
		limiter = memory.NewRateLimiter(rateCfg)
	}

	mediaStore, err := media.NewS3Store(ctx, s3Cfg)
	if err != nil {
		logger.Fatal(err)
	}

	store := postgres.NewStorage(db)

	tokenService := service.NewTokenService(tokenCfg)
	webhookService := service.NewWebhookService(logger, util.GetWebhookURL())
	sessionService := service.NewSessionService(tokenService, store, store, webhookService, logger)
	sessionService.StartJanitor(ctx, util.NewSessionConfig().JanitorInterval)

	services := controller.Services{
		Auth:       service.NewAuthService(store, sessionService, service.NewBcryptHasher(bcrypt.DefaultCost), logger),
		Sessions:   sessionService,
		Users:      service.NewUserService(store, logger),
		Categories: service.NewCategoryService(store, logger),
		Posts:      service.NewPostService(store, store, mediaStore, s3Cfg.Folder, logger),
	}

	swagger, err := controller.GetSwagger()
	if err != nil {
		logger.Fatal(err)
	}

	creds := controller.NewCredentialTransport(util.NewAuthHTTPConfig(tokenCfg))
	ctrl := controller.NewController(logger, services, creds, swagger)

	apiServer := api.NewAPI(api.Deps{
		Controller: ctrl,
		Swagger:    swagger,
		Sessions:   sessionService,
		Creds:      creds,
		Limiter:    limiter,
	}, logger, util.NewServerConfig())
	apiServer.Run(ctx)
}
