package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// DetectionStats — счётчики цикла детекции.
type DetectionStats struct {
	Cycles   int64
	Found    int64
	Missed   int64
	Failures int64
	Empty    int64
}

// DetectionLoop захватывает кадры основной камеры, ищет цель и публикует её.
type DetectionLoop struct {
	source    port.FrameSource
	detector  port.TargetDetector
	publisher *StatePublisher
	snapshots *SnapshotStore
	idle      time.Duration // пауза после пустого кадра
	logger    *slog.Logger

	cycles   atomic.Int64
	found    atomic.Int64
	missed   atomic.Int64
	failures atomic.Int64
	empty    atomic.Int64
}

// NewDetectionLoop создаёт цикл детекции. snapshots может быть nil.
func NewDetectionLoop(source port.FrameSource, detector port.TargetDetector, publisher *StatePublisher,
	snapshots *SnapshotStore, idle time.Duration, logger *slog.Logger) *DetectionLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectionLoop{
		source:    source,
		detector:  detector,
		publisher: publisher,
		snapshots: snapshots,
		idle:      idle,
		logger:    logger.With("component", "detection"),
	}
}

// RunOnce выполняет один цикл. Пустой кадр ничего не публикует,
// ошибка детектора публикует (0, 0).
func (l *DetectionLoop) RunOnce() entity.Detection {
	l.cycles.Add(1)

	frame := l.source.Capture(entity.FeedPrimary)
	if frame.Empty() {
		l.empty.Add(1)
		l.logger.Debug("no frame from primary camera, skipping publish")
		return entity.Detection{Outcome: entity.OutcomeEmptyFrame}
	}

	det := l.detect(frame)
	switch det.Outcome {
	case entity.OutcomeFound:
		l.found.Add(1)
		l.publisher.PublishTarget(det.Target)
	case entity.OutcomeFailed:
		l.failures.Add(1)
		l.logger.Debug("detection failed", "error", det.Err)
		l.publisher.PublishTarget(nil)
	default:
		l.missed.Add(1)
		l.publisher.PublishTarget(nil)
	}

	if l.snapshots != nil {
		l.snapshots.Put(frame, det)
	}
	return det
}

// detect не даёт панике детектора остановить цикл.
func (l *DetectionLoop) detect(frame entity.Frame) (det entity.Detection) {
	defer func() {
		if r := recover(); r != nil {
			det = entity.Failed(frame, fmt.Errorf("detector panic: %v", r))
		}
	}()
	return l.detector.Detect(frame)
}

// Run крутит цикл, пока run не сброшен или ctx не отменён.
// Флаг проверяется в начале каждой итерации.
func (l *DetectionLoop) Run(ctx context.Context, run *RunState) error {
	l.logger.Info("detection loop started")
	defer func() { l.logger.Info("detection loop stopped", "stats", l.Stats()) }()

	for run.Running() {
		if ctx.Err() != nil {
			return nil
		}

		det := l.RunOnce()
		if det.Outcome != entity.OutcomeEmptyFrame || l.idle <= 0 {
			continue
		}

		timer := time.NewTimer(l.idle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-run.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
	return nil
}

// Stats возвращает счётчики цикла.
func (l *DetectionLoop) Stats() DetectionStats {
	return DetectionStats{
		Cycles:   l.cycles.Load(),
		Found:    l.found.Load(),
		Missed:   l.missed.Load(),
		Failures: l.failures.Load(),
		Empty:    l.empty.Load(),
	}
}
