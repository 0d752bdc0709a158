package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	auth "github.com/phillip/community-platform-go/auth"
	config "github.com/phillip/community-platform-go/config"
	controllers "github.com/phillip/community-platform-go/controllers"
	logging "github.com/phillip/community-platform-go/logging"
	middleware "github.com/phillip/community-platform-go/middleware"
	routes "github.com/phillip/community-platform-go/routes"
	store "github.com/phillip/community-platform-go/store"
	"github.com/phillip/community-platform-go/store/memory"
	"github.com/phillip/community-platform-go/store/mongostore"
	utils "github.com/phillip/community-platform-go/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cfg.MongoClient != nil {
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := cfg.MongoClient.Disconnect(dctx); err != nil {
				logger.Warn("mongo disconnect", zap.Error(err))
			}
		}()
	}

	authSvc, err := auth.NewService(stores.Users, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn), cfg.BcryptCost)
	if err != nil {
		return err
	}
	images, err := utils.NewImageStore(cfg.Cloudinary)
	if err != nil {
		return err
	}
	mailer := utils.NewMailer(cfg.Mail, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	env := controllers.NewEnv(cfg, stores, authSvc, images, mailer, logger)

	general := middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax,
		"Too many requests from this IP, please try again later.", logger)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.AuthRateLimitMax,
		"Too many authentication attempts, please try again later.", logger)
	general.StartCleanup(cfg.RateLimitWindow, ctx.Done())
	authLimiter.StartCleanup(cfg.RateLimitWindow, ctx.Done())

	engine := routes.NewEngine(env, routes.Options{
		Metrics: middleware.NewMetrics(),
		General: general,
		Limits:  routes.Limits{Auth: authLimiter},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.Stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}

	if err := config.ConnectDB(ctx, cfg); err != nil {
		return nil, err
	}
	db := cfg.Database()

	ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongostore.EnsureIndexes(ictx, db); err != nil {
		return nil, err
	}
	logger.Info("mongo connected", zap.String("db", cfg.DBName))
	return mongostore.New(db), nil
}
