// Package app wires configuration, storage, services and transport into a
// runnable HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/redis/go-redis/v9"

	"github.com/lottobill/lottobill-backend/internal/adapter/postgres"
	billrepo "github.com/lottobill/lottobill-backend/internal/adapter/postgres/bill"
	drawrepo "github.com/lottobill/lottobill-backend/internal/adapter/postgres/draw"
	oddsrepo "github.com/lottobill/lottobill-backend/internal/adapter/postgres/odds"
	templaterepo "github.com/lottobill/lottobill-backend/internal/adapter/postgres/template"
	userrepo "github.com/lottobill/lottobill-backend/internal/adapter/postgres/user"
	"github.com/lottobill/lottobill-backend/internal/adapter/provider/aiparse"
	"github.com/lottobill/lottobill-backend/internal/adapter/provider/trainer"
	redisadapter "github.com/lottobill/lottobill-backend/internal/adapter/redis"
	"github.com/lottobill/lottobill-backend/internal/adapter/redis/drawcache"
	"github.com/lottobill/lottobill-backend/internal/auth"
	"github.com/lottobill/lottobill-backend/internal/config"
	authsvc "github.com/lottobill/lottobill-backend/internal/service/auth"
	calibrationsvc "github.com/lottobill/lottobill-backend/internal/service/calibration"
	drawsvc "github.com/lottobill/lottobill-backend/internal/service/draw"
	oddssvc "github.com/lottobill/lottobill-backend/internal/service/odds"
	parsesvc "github.com/lottobill/lottobill-backend/internal/service/parse"
	settlementsvc "github.com/lottobill/lottobill-backend/internal/service/settlement"
	mw "github.com/lottobill/lottobill-backend/internal/transport/middleware"
	"github.com/lottobill/lottobill-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// storage, wires the services and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := postgres.Migrate(pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	var redisClient *redis.Client
	var cache *drawcache.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err = redisadapter.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		cache = drawcache.New(redisClient, cfg.Redis.DrawTTL)
		logger.Info("draw cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	bills := billrepo.New(pool)
	draws := drawrepo.New(pool)
	odds := oddsrepo.New(pool)
	templates := templaterepo.New(pool)
	users := userrepo.New(pool)
	txm := postgres.NewTxManager(pool)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	authService := authsvc.NewService(logger, users, jwtManager)

	var drawService *drawsvc.Service
	if cache != nil {
		drawService = drawsvc.NewService(logger, draws, cache)
	} else {
		drawService = drawsvc.NewService(logger, draws, nil)
	}

	var parseService *parsesvc.Service
	if cfg.Parse.AIFallback {
		client := anthropic.NewClient(option.WithAPIKey(cfg.Anthropic.APIKey))
		ai := aiparse.NewProvider(client, cfg.Anthropic.Model, logger)
		parseService = parsesvc.NewService(logger, templates, bills, ai)
	} else {
		parseService = parsesvc.NewService(logger, templates, bills, nil)
	}

	settlementService := settlementsvc.NewService(logger, bills, drawService, odds)
	oddsService := oddssvc.NewService(logger, odds)

	var calibrationService *calibrationsvc.Service
	if cfg.Trainer.Endpoint != "" {
		tr := trainer.NewProvider(cfg.Trainer.Endpoint, cfg.Trainer.Token, logger)
		calibrationService = calibrationsvc.NewService(logger, txm, bills, drawService, odds, tr)
	} else {
		calibrationService = calibrationsvc.NewService(logger, txm, bills, drawService, odds, nil)
	}

	var healthHandler *rest.HealthHandler
	if redisClient != nil {
		healthHandler = rest.NewHealthHandler(pool, redisPinger{client: redisClient}, BuildVersion())
	} else {
		healthHandler = rest.NewHealthHandler(pool, nil, BuildVersion())
	}

	router := rest.NewRouter(rest.RouterDeps{
		Log:       logger,
		Auth:      rest.NewAuthHandler(authService, logger),
		Bills:     rest.NewBillHandler(parseService, settlementService, calibrationService, logger),
		Draws:     rest.NewDrawHandler(drawService, logger),
		Odds:      rest.NewOddsHandler(oddsService, logger),
		Templates: rest.NewTemplateHandler(parseService, logger),
		Health:    healthHandler,
		Validator: jwtManager,
		CORS:      cfg.CORS,
		Limiter:   mw.NewRateLimiter(time.Minute),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// redisPinger adapts the go-redis client to the health check interface.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
