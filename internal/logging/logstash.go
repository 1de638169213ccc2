package logging

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

var (
	ErrEmptyAddr     = errors.New("logstash: empty address")
	errCoolingDown   = errors.New("logstash: waiting before reconnect")
	defaultDialLimit = 2 * time.Second
)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Logstash forwards newline-delimited log records to a Logstash tcp input.
// Writes never fail because of the network: while the peer is unreachable
// records are dropped and a reconnect is attempted once Backoff has passed.
type Logstash struct {
	Addr         string
	WriteTimeout time.Duration
	Backoff      time.Duration

	dial dialFunc

	mu      sync.Mutex
	conn    net.Conn
	retryAt time.Time
	dropped uint64
	closed  bool
}

func NewLogstash(addr string) (*Logstash, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrEmptyAddr
	}
	d := &net.Dialer{Timeout: defaultDialLimit}
	return &Logstash{
		Addr:         addr,
		WriteTimeout: time.Second,
		Backoff:      5 * time.Second,
		dial:         d.DialContext,
	}, nil
}

func (l *Logstash) Write(p []byte) (int, error) {
	n := len(p)
	if n == 0 {
		return 0, nil
	}
	record := p
	if p[n-1] != '\n' {
		record = append(append(make([]byte, 0, n+1), p...), '\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, io.ErrClosedPipe
	}
	if err := l.connectLocked(); err != nil {
		l.dropped++
		return n, nil
	}
	if l.WriteTimeout > 0 {
		_ = l.conn.SetWriteDeadline(time.Now().Add(l.WriteTimeout))
	}
	if _, err := l.conn.Write(record); err != nil {
		l.dropped++
		l.resetLocked()
	}
	return n, nil
}

// Dropped is the number of records discarded while Logstash was unreachable.
func (l *Logstash) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

func (l *Logstash) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}

func (l *Logstash) connectLocked() error {
	if l.conn != nil {
		return nil
	}
	if time.Now().Before(l.retryAt) {
		return errCoolingDown
	}
	conn, err := l.dial(context.Background(), "tcp", l.Addr)
	if err != nil {
		l.retryAt = time.Now().Add(l.Backoff)
		return err
	}
	l.conn = conn
	l.retryAt = time.Time{}
	return nil
}

func (l *Logstash) resetLocked() {
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
	l.retryAt = time.Now().Add(l.Backoff)
}
