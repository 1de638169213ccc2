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

	"github.com/labstack/echo/v4"

	"github.com/njprem/fitcity-auth/internal/config"
	"github.com/njprem/fitcity-auth/internal/logging"
	"github.com/njprem/fitcity-auth/internal/repository/memory"
	mongorepo "github.com/njprem/fitcity-auth/internal/repository/mongo"
	"github.com/njprem/fitcity-auth/internal/repository/ports"
	"github.com/njprem/fitcity-auth/internal/repository/postgres"
	redisrepo "github.com/njprem/fitcity-auth/internal/repository/redis"
	"github.com/njprem/fitcity-auth/internal/service"
	httpx "github.com/njprem/fitcity-auth/internal/transport/http"
	"github.com/njprem/fitcity-auth/internal/transport/mail"
	"github.com/njprem/fitcity-auth/internal/transport/queue"
	"github.com/njprem/fitcity-auth/internal/util"
)

func main() {
	cfg := config.Load()

	logger, logCloser := logging.New("fitcity-auth-api", cfg.LogLevel, cfg.LogstashTCPAddr)
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("open credential store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	mailer, closeMailer, err := openMailer(cfg)
	if err != nil {
		logger.Error("configure mail transport", "transport", cfg.MailTransport, "error", err)
		os.Exit(1)
	}
	defer closeMailer()

	resets := service.NewPasswordResetManager(users, cfg.PasswordResetTTL)
	authSvc := service.NewAuthService(
		users,
		util.NewBcryptHasher(cfg.BcryptCost),
		util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL),
		resets,
		mailer,
		cfg.ResetPageURL(),
		logger,
	)

	rdb, err := redisrepo.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", cfg.RedisAddr, "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := httpx.NewRateLimiter(httpx.RateLimitConfig{
		Enabled:        cfg.RateLimitEnabled,
		Capacity:       cfg.RateLimitCapacity,
		RefillInterval: cfg.RateLimitRefillInterval,
		Prefix:         "auth",
	}, rdb, logger)

	e := httpx.NewRouter(cfg.AllowOrigins, logger)
	httpx.MountAuth(e, httpx.NewAuthHandler(authSvc, logger), limiter)
	httpx.RegisterPages(e)
	if err := httpx.RegisterSwagger(e, cfg.SwaggerSpecPath); err != nil {
		logger.Warn("swagger ui disabled", "error", err)
	}

	serve(ctx, e, ":"+cfg.Port, logger)
	// Let in-flight reset mails finish before the mailer is closed.
	authSvc.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (ports.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewUserRepo(db), func() { db.Close() }, nil
	case config.StoreMemory:
		return memory.NewUserRepo(), func() {}, nil
	default:
		client, err := mongorepo.New(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongorepo.NewUserRepo(client.Database(cfg.MongoDatabase))
		closeFn := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(shutdownCtx)
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil
	}
}

func openMailer(cfg config.Config) (service.PasswordResetSender, func(), error) {
	if cfg.MailTransport == config.MailAMQP {
		pub, err := queue.NewPublisher(cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() { _ = pub.Close() }, nil
	}
	m := mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPUseTLS)
	return m, func() {}, nil
}

func serve(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
