package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/api"
	"github.com/stampwise/loyalty-platform/internal/api/handler"
	"github.com/stampwise/loyalty-platform/internal/api/session"
	"github.com/stampwise/loyalty-platform/internal/core/service"
	"github.com/stampwise/loyalty-platform/internal/infrastructure/catalog"
	mongodb "github.com/stampwise/loyalty-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/stampwise/loyalty-platform/internal/infrastructure/db/redis"
	"github.com/stampwise/loyalty-platform/internal/infrastructure/notify"
	"github.com/stampwise/loyalty-platform/internal/infrastructure/queue"
	"github.com/stampwise/loyalty-platform/internal/pkg/config"
	"github.com/stampwise/loyalty-platform/pkg/logger"
)

const (
	serviceName     = "loyalty-platform"
	shutdownTimeout = 15 * time.Second
)

// @title                       Loyalty Platform API
// @version                     1.0
// @description                 Accounts, page access, password recovery and subscription pricing for the loyalty-card platform.
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Level: "info"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.ForEnv(cfg.Env, cfg.LogLevel, serviceName))

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     serviceName,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	coupons := mongodb.NewCouponRepository(db)
	if err := coupons.EnsureIndexes(ctx); err != nil {
		return err
	}

	plans, err := catalog.Load(cfg.Coupon.PlansFile)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Code delivery outlives request contexts; it stops once the server has drained.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	sender := notify.NewLogSender(log, cfg.IsDevelopment())
	dispatcher := queue.NewDispatcher(cfg.OTP.Workers, cfg.OTP.QueueSize, sender, log)
	dispatcher.Start(workerCtx)

	if cfg.OTP.Simulate {
		log.Warn().Msg("OTP simulation enabled: any 6-digit code is accepted")
	}

	authService := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL)
	couponService := service.NewCouponService(coupons, plans, loc, log)
	resetService := service.NewPasswordResetService(users, redisdb.NewOTPStore(rdb), dispatcher, service.PasswordResetOptions{
		CodeTTL:       cfg.OTP.CodeTTL,
		ResetTokenTTL: cfg.OTP.ResetTokenTTL,
		MaxAttempts:   cfg.OTP.MaxAttempts,
		Simulate:      cfg.OTP.Simulate,
	}, log)

	e := api.NewRouter(api.Deps{
		JWTSecret: cfg.JWTSecret,
		Cookies: session.Options{
			Domain: cfg.Cookie.Domain,
			Secure: !cfg.IsDevelopment(),
			MaxAge: cfg.JWTTTL,
		},
		Auth:          authService,
		Coupons:       couponService,
		PasswordReset: resetService,
		Readiness: map[string]handler.DependencyCheck{
			"mongo": mongodb.Ping(mongoClient),
			"redis": redisdb.Ping(rdb),
		},
		Logger: log,
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	return nil
}
