package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// ErrReleased возвращается после освобождения устройств.
var ErrReleased = errors.New("camera: devices released")

// SourceConfig — тайминги захвата.
type SourceConfig struct {
	Settle time.Duration // пауза после чтения, блокировка ещё удерживается
	Warmup time.Duration // сколько ждать от создания до первого захвата
}

// Source владеет обеими камерами и пропускает все чтения через одну
// блокировку: драйвер не допускает параллельного доступа.
type Source struct {
	cfg    SourceConfig
	logger *slog.Logger

	mu       sync.Mutex // блокировка захвата
	devices  map[entity.Feed]port.CaptureDevice
	released bool

	createdAt time.Time
	sleep     func(time.Duration)

	reads    [2]atomic.Int64 // primary, secondary
	failures atomic.Int64
}

// NewSource создаёт источник кадров. Устройства уже открыты и настроены.
func NewSource(primary, secondary port.CaptureDevice, cfg SourceConfig, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		cfg:    cfg,
		logger: logger,
		devices: map[entity.Feed]port.CaptureDevice{
			entity.FeedPrimary:   primary,
			entity.FeedSecondary: secondary,
		},
		createdAt: time.Now(),
		sleep:     time.Sleep,
	}
}

// Warmup ждёт окончания стартового периода, чтобы железо успело стабилизироваться.
func (s *Source) Warmup(ctx context.Context) error {
	left := s.cfg.Warmup - time.Since(s.createdAt)
	if left <= 0 {
		return nil
	}
	s.logger.Info("waiting for cameras to settle", "remaining", left)

	timer := time.NewTimer(left)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Capture читает один кадр выбранного фида. Блокировка держится только на время
// чтения и паузы после него. При любой ошибке возвращается пустой кадр.
func (s *Source) Capture(feed entity.Feed) entity.Frame {
	frame, err := s.capture(feed)
	if err != nil {
		s.failures.Add(1)
		s.logger.Debug("capture failed", "feed", feed, "error", err)
		return entity.EmptyFrame(feed)
	}
	return frame
}

func (s *Source) capture(feed entity.Feed) (entity.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return entity.Frame{}, ErrReleased
	}
	dev, ok := s.devices[feed]
	if !ok || dev == nil {
		return entity.Frame{}, fmt.Errorf("camera: unknown feed %q", feed)
	}

	frame, err := dev.Read()
	s.reads[feedIndex(feed)].Add(1)
	if s.cfg.Settle > 0 {
		s.sleep(s.cfg.Settle)
	}
	if err != nil {
		return entity.Frame{}, err
	}
	if frame.Empty() {
		return entity.Frame{}, errors.New("camera: empty frame")
	}

	frame.Feed = feed
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = time.Now()
	}
	return frame, nil
}

// Release закрывает обе камеры. Повторные вызовы ничего не делают.
// Ждёт завершения текущего чтения, поэтому устройство не закрывается посреди Read.
func (s *Source) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true

	var errs []error
	for feed, dev := range s.devices {
		if dev == nil {
			continue
		}
		if err := dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s camera: %w", feed, err))
		}
	}
	s.logger.Info("cameras released")
	return errors.Join(errs...)
}

// Stats — счётчики чтений.
type Stats struct {
	PrimaryReads   int64
	SecondaryReads int64
	Failures       int64
}

// Stats возвращает статистику источника.
func (s *Source) Stats() Stats {
	return Stats{
		PrimaryReads:   s.reads[0].Load(),
		SecondaryReads: s.reads[1].Load(),
		Failures:       s.failures.Load(),
	}
}

func feedIndex(feed entity.Feed) int {
	if feed == entity.FeedSecondary {
		return 1
	}
	return 0
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*Source)(nil)

var _ port.CameraRig = (*Source)(nil)
