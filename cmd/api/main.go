package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	authmw "github.com/corvusHold/postal/internal/auth/middleware"
	"github.com/corvusHold/postal/internal/config"
	"github.com/corvusHold/postal/internal/dispatch"
	eventsrepo "github.com/corvusHold/postal/internal/events/repository"
	eventsservice "github.com/corvusHold/postal/internal/events/service"
	"github.com/corvusHold/postal/internal/logger"
	"github.com/corvusHold/postal/internal/metrics"
	"github.com/corvusHold/postal/internal/platform/crypto"
	"github.com/corvusHold/postal/internal/platform/ratelimit"
	"github.com/corvusHold/postal/internal/platform/validation"
	"github.com/corvusHold/postal/internal/queue"
	"github.com/corvusHold/postal/internal/senderconfig"
	"github.com/corvusHold/postal/internal/templates"
	"github.com/corvusHold/postal/internal/version"
)

func main() {
	_ = godotenv.Load()

	if handleCLICommand(os.Args[1:]) {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppEnv)
	log.Info().Str("addr", cfg.AppAddr).Str("version", version.String()).Msg("starting api server")

	// Init Postgres
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DATABASE_URL")
	}
	pgPool, err := pgxpool.NewWithConfig(context.Background(), pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to create pg pool")
	}
	defer pgPool.Close()

	// Init Redis/Valkey
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer redisClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middlewares
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return matchCORSOrigin(origin, cfg.CORSAllowedOrigins), nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(metrics.HTTPMiddleware())

	// Validator
	e.Validator = validation.New()

	// Shared infrastructure for the domain modules
	box := crypto.NewBox(cfg.CredentialKey)
	pub := eventsservice.NewFanout(
		eventsservice.NewLogger(log),
		eventsrepo.NewRecorder(pgPool),
	)
	store := ratelimit.NewRedisStore(redisClient)

	// Register domain routes via factories; everything under /api/v1
	// requires a bearer token.
	g := e.Group("/api/v1", authmw.NewJWT(cfg))
	senders := senderconfig.Register(g, pgPool, box, pub)
	tpls := templates.Register(g, pgPool)
	disp := dispatch.Register(g, pgPool, cfg, log, senders, tpls, pub, store)
	w := queue.Register(g, pgPool, cfg, log, disp)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go w.Start(workerCtx)

	// Health endpoint pings DB and Redis
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
		defer cancel()

		dbStatus := "ok"
		start := time.Now()
		if err := pgPool.Ping(ctx); err != nil {
			dbStatus = "down"
		}
		metrics.SetDBUp(dbStatus == "ok")
		metrics.ObserveDBPing(time.Since(start).Seconds())

		cacheStatus := "ok"
		start = time.Now()
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			cacheStatus = "down"
		}
		metrics.SetRedisUp(cacheStatus == "ok")
		metrics.ObserveRedisPing(time.Since(start).Seconds())

		return c.JSON(http.StatusOK, map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
			"db":     dbStatus,
			"cache":  cacheStatus,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	go func() {
		if err := e.Start(cfg.AppAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	stopWorker()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}
