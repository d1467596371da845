package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// MatchEndConfig — флаг конца матча на шине. Пустой Key отключает слежение.
type MatchEndConfig struct {
	Table    string
	Key      string
	Interval time.Duration
}

// Supervisor управляет жизненным циклом узла:
// Idle → Connecting → Running → ShuttingDown → Stopped.
type Supervisor struct {
	cameras   port.CameraRig
	link      port.ConsoleLink
	bus       port.StateBus
	detection *DetectionLoop
	streamer  *FeedStreamer
	run       *RunState
	matchEnd  MatchEndConfig
	logger    *slog.Logger

	mu      sync.Mutex // переход в Running против Shutdown
	state   atomic.Int32
	loops   sync.WaitGroup
	cleanup sync.Once
	errs    error
}

// NewSupervisor собирает супервизор из готовых компонентов.
func NewSupervisor(cameras port.CameraRig, link port.ConsoleLink, bus port.StateBus,
	detection *DetectionLoop, streamer *FeedStreamer, run *RunState,
	matchEnd MatchEndConfig, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if matchEnd.Interval <= 0 {
		matchEnd.Interval = time.Second
	}
	return &Supervisor{
		cameras:   cameras,
		link:      link,
		bus:       bus,
		detection: detection,
		streamer:  streamer,
		run:       run,
		matchEnd:  matchEnd,
		logger:    logger.With("component", "supervisor"),
	}
}

// State возвращает текущее состояние.
func (s *Supervisor) State() entity.SupervisorState {
	return entity.SupervisorState(s.state.Load())
}

func (s *Supervisor) setState(st entity.SupervisorState) {
	s.state.Store(int32(st))
	s.logger.Info("supervisor state changed", "state", st)
}

// Run ждёт прогрева камер, подключается к консоли и запускает оба цикла.
// Возвращается после остановки и очистки ресурсов.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(entity.StateIdle), int32(entity.StateConnecting)) {
		return errors.New("supervisor already started")
	}
	s.logger.Info("supervisor state changed", "state", entity.StateConnecting)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Отмена ctx и сброс флага работы означают одно и то же.
	go func() {
		select {
		case <-ctx.Done():
			s.run.Stop()
		case <-s.run.Done():
			cancel()
		}
	}()

	if err := s.cameras.Warmup(ctx); err != nil {
		return errors.Join(ignoreCanceled(ctx, err), s.Shutdown())
	}
	if err := s.link.Connect(ctx); err != nil {
		return errors.Join(ignoreCanceled(ctx, fmt.Errorf("connect console: %w", err)), s.Shutdown())
	}

	s.mu.Lock()
	if s.State() != entity.StateConnecting {
		s.mu.Unlock()
		return s.Shutdown()
	}
	s.setState(entity.StateRunning)
	s.loops.Add(1)
	s.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		return s.detection.Run(ctx, s.run)
	})
	g.Go(func() error {
		// Конец трансляции не останавливает детекцию.
		if err := s.streamer.Run(ctx, s.run); err != nil {
			s.logger.Warn("streaming loop ended", "error", err)
		}
		return nil
	})
	if s.matchEnd.Key != "" {
		g.Go(func() error {
			s.watchMatchEnd(ctx)
			return nil
		})
	}

	err := g.Wait()
	s.loops.Done()

	return errors.Join(err, s.Shutdown())
}

// watchMatchEnd останавливает узел, когда флаг конца матча меняется на true.
// Значение true, оставшееся с прошлого матча, игнорируется, пока не станет false.
func (s *Supervisor) watchMatchEnd(ctx context.Context) {
	armed := !s.bus.GetBoolean(s.matchEnd.Table, s.matchEnd.Key, false)

	ticker := time.NewTicker(s.matchEnd.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.run.Done():
			return
		case <-ticker.C:
		}

		ended := s.bus.GetBoolean(s.matchEnd.Table, s.matchEnd.Key, false)
		if !ended {
			armed = true
			continue
		}
		if armed {
			s.logger.Info("match ended, stopping")
			s.run.Stop()
			return
		}
	}
}

// Shutdown останавливает циклы и освобождает камеры и соединение ровно один раз.
// Можно вызывать из любой горутины и в любом состоянии.
func (s *Supervisor) Shutdown() error {
	s.cleanup.Do(func() {
		s.mu.Lock()
		s.setState(entity.StateShuttingDown)
		s.mu.Unlock()

		s.run.Stop()

		// Закрытие соединения прерывает зависшую запись, затем ждём циклы.
		linkErr := s.link.Close()
		s.loops.Wait()
		camErr := s.cameras.Release()

		s.errs = errors.Join(linkErr, camErr)
		if s.errs != nil {
			s.logger.Warn("cleanup finished with errors", "error", s.errs)
		}

		s.setState(entity.StateStopped)
		s.logger.Info("node stopped",
			"detection", s.detection.Stats(),
			"stream", s.streamer.Stats())
	})
	return s.errs
}

func ignoreCanceled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
