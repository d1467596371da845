package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// ErrStreamEnded — камера вернула пустой кадр, трансляция завершается.
var ErrStreamEnded = errors.New("stream ended: empty frame")

// StreamerConfig — параметры трансляции.
type StreamerConfig struct {
	Period    time.Duration // период кадров
	ModeTable string        // таблица флага режима
	ModeKey   string        // true или отсутствует: основная камера
	Reconnect bool          // переподключаться после ошибки записи
}

// StreamStats — счётчики трансляции.
type StreamStats struct {
	Frames       int64
	Bytes        int64
	EncodeErrors int64
	Reconnects   int64
}

// FeedStreamer отправляет кадры активной камеры в консоль оператора.
// Соединение принадлежит только ему.
type FeedStreamer struct {
	source  port.FrameSource
	bus     port.StateBus
	encoder port.FrameEncoder
	link    port.ConsoleLink
	cfg     StreamerConfig
	logger  *slog.Logger

	frames       atomic.Int64
	bytes        atomic.Int64
	encodeErrors atomic.Int64
	reconnects   atomic.Int64
}

// NewFeedStreamer создаёт стример.
func NewFeedStreamer(source port.FrameSource, bus port.StateBus, encoder port.FrameEncoder,
	link port.ConsoleLink, cfg StreamerConfig, logger *slog.Logger) *FeedStreamer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Second / 15
	}
	return &FeedStreamer{
		source:  source,
		bus:     bus,
		encoder: encoder,
		link:    link,
		cfg:     cfg,
		logger:  logger.With("component", "streamer"),
	}
}

// ActiveFeed читает флаг режима. Основная камера, если флаг true или его нет.
func (s *FeedStreamer) ActiveFeed() entity.Feed {
	if s.bus.GetBoolean(s.cfg.ModeTable, s.cfg.ModeKey, true) {
		return entity.FeedPrimary
	}
	return entity.FeedSecondary
}

// StreamCycle отправляет один кадр. ErrStreamEnded означает пустой кадр,
// другая ошибка означает, что соединение потеряно и не восстановлено.
func (s *FeedStreamer) StreamCycle(ctx context.Context) error {
	feed := s.ActiveFeed()
	frame := s.source.Capture(feed)
	if frame.Empty() {
		return ErrStreamEnded
	}

	data, err := s.encoder.Encode(frame)
	if err != nil {
		// кадр пропускаем, поток не рвём
		s.encodeErrors.Add(1)
		s.logger.Debug("failed to encode frame", "feed", feed, "error", err)
		return nil
	}

	if err := s.link.Write(data); err != nil {
		if !s.cfg.Reconnect {
			return fmt.Errorf("write to console: %w", err)
		}
		s.reconnects.Add(1)
		s.logger.Warn("console write failed, reconnecting", "error", err)
		if err := s.link.Reconnect(ctx); err != nil {
			return fmt.Errorf("reconnect to console: %w", err)
		}
		return nil
	}

	s.frames.Add(1)
	s.bytes.Add(int64(len(data)))
	return nil
}

// Run отправляет кадры с периодом Period до остановки run или ctx.
// Пауза отсчитывается от границы периода, а не от конца цикла.
func (s *FeedStreamer) Run(ctx context.Context, run *RunState) error {
	s.logger.Info("streaming loop started", "period", s.cfg.Period)
	defer func() { s.logger.Info("streaming loop stopped", "stats", s.Stats()) }()

	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()

	next := time.Now()
	for run.Running() {
		if ctx.Err() != nil {
			return nil
		}

		if err := s.StreamCycle(ctx); err != nil {
			if ctx.Err() != nil || !run.Running() {
				return nil
			}
			return err
		}

		next = next.Add(s.cfg.Period)
		wait := time.Until(next)
		if wait <= 0 {
			// отстали: не догоняем пачкой кадров
			next = time.Now()
			continue
		}

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return nil
		case <-run.Done():
			return nil
		case <-timer.C:
		}
	}
	return nil
}

// Stats возвращает счётчики трансляции.
func (s *FeedStreamer) Stats() StreamStats {
	return StreamStats{
		Frames:       s.frames.Load(),
		Bytes:        s.bytes.Load(),
		EncodeErrors: s.encodeErrors.Load(),
		Reconnects:   s.reconnects.Load(),
	}
}
