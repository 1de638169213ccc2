package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/njprem/fitcity-auth/internal/config"
	"github.com/njprem/fitcity-auth/internal/logging"
	"github.com/njprem/fitcity-auth/internal/transport/mail"
	"github.com/njprem/fitcity-auth/internal/transport/queue"
)

// mailworker drains the password reset queue filled by the API when
// MAIL_TRANSPORT=amqp and delivers each job over SMTP.
func main() {
	cfg := config.LoadMailWorker()

	logger, logCloser := logging.New("fitcity-auth-mailworker", cfg.LogLevel, cfg.LogstashTCPAddr)
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	smtp := mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPUseTLS)
	consumer := queue.NewConsumer(cfg.RabbitMQURL, smtp, logger)

	logger.Info("mail worker started", "queue", queue.PasswordResetQueue)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mail worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("mail worker stopped")
}
