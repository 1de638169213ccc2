package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/njprem/fitcity-auth/internal/domain"
)

// Deliverer sends a reset email for real, e.g. the SMTP mailer.
type Deliverer interface {
	SendPasswordReset(ctx context.Context, notice domain.PasswordResetNotice) error
}

type Consumer struct {
	url      string
	delivery Deliverer
	logger   *slog.Logger
}

func NewConsumer(url string, delivery Deliverer, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, delivery: delivery, logger: logger}
}

// Run consumes reset email jobs until ctx is cancelled, reconnecting with
// backoff when the broker goes away. Jobs that fail are rejected without
// requeue.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("mail worker: dial broker failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("mail worker: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.logger.Warn("mail worker: set QoS failed", "error", err)
	}
	if _, err := declareQueue(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(PasswordResetQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.logger.Error("mail worker: password reset email failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one job and delivers it.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var job PasswordResetEmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if job.Notice.Email == "" {
		return errors.New("job without recipient")
	}
	if !job.Notice.ExpiresAt.IsZero() && time.Now().After(job.Notice.ExpiresAt) {
		c.logger.Info("mail worker: dropping expired reset email", "email", job.Notice.Email)
		return nil
	}
	if err := c.delivery.SendPasswordReset(ctx, job.Notice); err != nil {
		return fmt.Errorf("deliver to %s: %w", job.Notice.Email, err)
	}
	c.logger.Info("mail worker: password reset email sent", "email", job.Notice.Email)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
