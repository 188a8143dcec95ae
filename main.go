package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/witcom-dev/ssobridge/gateway"
	"github.com/witcom-dev/ssobridge/identity"
	"github.com/witcom-dev/ssobridge/oidc"
	"github.com/witcom-dev/ssobridge/reconcile"
)

var logrusLogger = logrus.New()

// GetMainEngine assembles all routes.
func GetMainEngine(svc *gateway.Service, auth *gateway.JWTAuth) *gin.Engine {
	route := gin.Default()
	route.Use(gateway.RequestID())

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(route)

	route.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := route.Group("/auth")
	{
		authGroup.POST("/sso", svc.SSOLogin)
		authGroup.Use(auth.AuthMiddleware())
		authGroup.GET("/me", svc.Me)
	}
	return route
}

func purgeLoop(ctx context.Context, store *identity.Store, cfg identity.Config) {
	ticker := time.NewTicker(time.Duration(cfg.PurgeEveryHours) * time.Hour)
	defer ticker.Stop()
	olderThan := time.Duration(cfg.PurgeOlderThanDays) * 24 * time.Hour
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.PurgeUnactivated(ctx, olderThan); err != nil {
				logrusLogger.WithError(err).Warn("purge of unactivated users failed")
			}
		}
	}
}

func main() {
	var cfg identity.Config
	if err := parseConfig(&cfg); err != nil {
		logrusLogger.Fatalf("error in parsing config: %v", err)
	}
	configureLogger(cfg)

	database, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{TranslateError: true})
	if err != nil {
		logrusLogger.Fatalf("error in connecting to db: %v", err)
	}
	store := &identity.Store{Db: database, Logger: logrusLogger}
	if err := store.Migrate(); err != nil {
		logrusLogger.Fatalf("error in migrating db: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddress != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		if err := redisClient.Ping().Err(); err != nil {
			logrusLogger.WithError(err).Warn("redis unreachable, attempt tracking disabled")
			redisClient = nil
		}
	}

	providerName, err := identity.ParseProvider(cfg.SSOProvider)
	if err != nil {
		logrusLogger.Fatalf("invalid sso provider: %v", err)
	}

	fetcher := oidc.NewUserInfoFetcher(time.Duration(cfg.FetchTimeoutMs)*time.Millisecond, logrusLogger)
	chain := reconcile.Chain{
		&reconcile.Provider{
			Name:    providerName,
			Issuer:  cfg.SSOIssuer,
			Fetcher: fetcher,
			Store:   store,
			Logger:  logrusLogger,
			LangKey: cfg.DefaultLangKey,
		},
	}

	key, err := jwtKey(cfg)
	if err != nil {
		logrusLogger.Fatalf("error in jwt key setup: %v", err)
	}
	auth := &gateway.JWTAuth{Key: key, SessionHours: cfg.SessionHours}

	svc := &gateway.Service{
		Chain:    chain,
		Server:   serverConfig(cfg),
		Auth:     auth,
		Attempts: &gateway.Attempts{Redis: redisClient, Logger: logrusLogger},
		Metrics:  gateway.NewMetrics(),
		Logger:   logrusLogger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go purgeLoop(ctx, store, cfg)

	if err := GetMainEngine(svc, auth).Run(cfg.Port); err != nil {
		logrusLogger.Fatalf("server stopped: %v", err)
	}
}
