// Package console держит исходящее TCP-соединение с консолью оператора.
package console

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"vision-node/internal/domain/port"
)

// ErrClosed возвращается после Close.
var ErrClosed = errors.New("console link closed")

// Framing — как кадры разделяются в потоке.
type Framing string

const (
	FramingRaw    Framing = "raw"    // байты JPEG подряд, как ждёт существующая консоль
	FramingLength Framing = "length" // 4 байта big-endian длины перед каждым кадром
)

// Options — параметры соединения.
type Options struct {
	Addr         string
	Framing      Framing
	DialTimeout  time.Duration
	WriteTimeout time.Duration // 0: без дедлайна
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// Link — соединение с консолью. Write и Reconnect не вызываются параллельно
// (ими владеет стример), Close безопасен из любой горутины.
type Link struct {
	opts   Options
	logger *slog.Logger
	dial   func(ctx context.Context, addr string) (net.Conn, error)

	mu     sync.Mutex
	conn   net.Conn
	closed bool

	attempts atomic.Int64
}

// NewLink создаёт несоединённый Link.
func NewLink(opts Options, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Framing == "" {
		opts.Framing = FramingRaw
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 2 * time.Second
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = 250 * time.Millisecond
	}
	if opts.RetryMax < opts.RetryInitial {
		opts.RetryMax = opts.RetryInitial
	}
	l := &Link{
		opts:   opts,
		logger: logger.With("component", "console", "addr", opts.Addr),
	}
	l.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: l.opts.DialTimeout}
		return d.DialContext(ctx, "tcp", addr)
	}
	return l
}

// Connect подключается с экспоненциальной паузой между попытками.
func (l *Link) Connect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.opts.RetryInitial
	b.MaxInterval = l.opts.RetryMax
	b.MaxElapsedTime = 0

	var conn net.Conn
	op := func() error {
		if l.isClosed() {
			return backoff.Permanent(ErrClosed)
		}
		l.attempts.Add(1)
		c, err := l.dial(ctx, l.opts.Addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		l.logger.Warn("console connection failed, retrying", "error", err, "retry_in", wait)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("connect console: %w", err)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	l.conn = conn
	l.mu.Unlock()

	l.logger.Info("connected to console", "attempts", l.Attempts())
	return nil
}

// Write отправляет один закодированный кадр целиком.
func (l *Link) Write(payload []byte) error {
	l.mu.Lock()
	conn, closed := l.conn, l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if conn == nil {
		return errors.New("console not connected")
	}

	if l.opts.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(l.opts.WriteTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	if l.opts.Framing == FramingLength {
		var hdr [4]byte
		binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
		bufs := net.Buffers{hdr[:], payload}
		if _, err := bufs.WriteTo(conn); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		return nil
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Reconnect закрывает текущее соединение и подключается заново.
func (l *Link) Reconnect(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	old := l.conn
	l.conn = nil
	l.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return l.Connect(ctx)
}

// Close закрывает соединение. Повторный вызов ничего не делает.
func (l *Link) Close() error {
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

// Attempts — число попыток подключения с момента создания.
func (l *Link) Attempts() int64 {
	return l.attempts.Load()
}

func (l *Link) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Проверка реализации интерфейса
var _ port.ConsoleLink = (*Link)(nil)
