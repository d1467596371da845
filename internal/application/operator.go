package app

import (
	"errors"
	"fmt"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// ErrNoSnapshot — ещё не обработано ни одного кадра.
var ErrNoSnapshot = errors.New("no frame processed yet")

// StatusReport — сводка состояния узла для оператора.
type StatusReport struct {
	State      entity.SupervisorState
	ActiveFeed entity.Feed
	Detection  DetectionStats
	Stream     StreamStats
	Publisher  PublisherStats
	LastResult entity.Outcome // итог последнего обработанного кадра, пусто: кадров не было
}

// OperatorService — команды оператора: статус, выбор камеры, диагностический снимок.
type OperatorService struct {
	supervisor *Supervisor
	detection  *DetectionLoop
	streamer   *FeedStreamer
	publisher  *StatePublisher
	snapshots  *SnapshotStore
	detector   port.TargetDetector
	bus        port.StateBus
	modeTable  string
	modeKey    string
}

// NewOperatorService создаёт сервис оператора.
func NewOperatorService(supervisor *Supervisor, detection *DetectionLoop, streamer *FeedStreamer,
	publisher *StatePublisher, snapshots *SnapshotStore, detector port.TargetDetector,
	bus port.StateBus, modeTable, modeKey string) *OperatorService {
	return &OperatorService{
		supervisor: supervisor,
		detection:  detection,
		streamer:   streamer,
		publisher:  publisher,
		snapshots:  snapshots,
		detector:   detector,
		bus:        bus,
		modeTable:  modeTable,
		modeKey:    modeKey,
	}
}

// Status собирает текущую сводку.
func (s *OperatorService) Status() StatusReport {
	r := StatusReport{
		State:      s.supervisor.State(),
		ActiveFeed: s.streamer.ActiveFeed(),
		Detection:  s.detection.Stats(),
		Stream:     s.streamer.Stats(),
		Publisher:  s.publisher.Stats(),
	}
	if _, det, ok := s.snapshots.Latest(); ok {
		r.LastResult = det.Outcome
	}
	return r
}

// SetMode переключает камеру трансляции через флаг режима на шине.
func (s *OperatorService) SetMode(feed entity.Feed) error {
	if !feed.Valid() {
		return fmt.Errorf("unknown feed %q", feed)
	}
	if err := s.bus.PutBoolean(s.modeTable, s.modeKey, feed == entity.FeedPrimary); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	return nil
}

// Snapshot возвращает JPEG последнего кадра детекции с отметками контуров и цели.
func (s *OperatorService) Snapshot() ([]byte, entity.Detection, error) {
	frame, det, ok := s.snapshots.Latest()
	if !ok {
		return nil, entity.Detection{}, ErrNoSnapshot
	}
	img, err := s.detector.Annotate(frame, det)
	if err != nil {
		return nil, det, fmt.Errorf("annotate snapshot: %w", err)
	}
	return img, det, nil
}
