package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/njprem/fitcity-auth/internal/domain"
)

// Publisher enqueues reset emails. It keeps one connection and channel open
// and redials after the broker drops them. Safe for concurrent use.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("queue: empty broker url")
	}
	return &Publisher{url: url}, nil
}

// ErrLinkExpired is returned for a notice whose reset link has already
// expired; such jobs are not published.
var ErrLinkExpired = errors.New("queue: reset link already expired")

// SendPasswordReset publishes the notice as a job. Delivery failures surface
// to the caller; nothing is retried here.
func (p *Publisher) SendPasswordReset(ctx context.Context, notice domain.PasswordResetNotice) error {
	msg, err := newPublishing(notice, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",
		PasswordResetQueue,
		false,
		false,
		msg,
	)
	if err != nil {
		p.closeLocked()
		return err
	}
	return nil
}

// newPublishing builds the message for notice. The reset link carries a live
// token, so the message is transient (kept in broker memory, never written
// to disk) and expires together with the link.
func newPublishing(notice domain.PasswordResetNotice, now time.Time) (amqp.Publishing, error) {
	remaining := notice.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return amqp.Publishing{}, ErrLinkExpired
	}
	body, err := json.Marshal(PasswordResetEmailJob{Notice: notice, EnqueuedAt: now.UTC()})
	if err != nil {
		return amqp.Publishing{}, err
	}
	ttlMillis := remaining.Milliseconds()
	if ttlMillis < 1 {
		ttlMillis = 1
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Expiration:   strconv.FormatInt(ttlMillis, 10),
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := declareQueue(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	p.ch = ch
	return ch, nil
}

func (p *Publisher) closeLocked() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
		p.conn = nil
	}
	return err
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		PasswordResetQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}
