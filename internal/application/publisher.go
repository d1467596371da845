package app

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// StatePublisher публикует нормализованную позицию цели в таблицу шины.
type StatePublisher struct {
	bus    port.StateBus
	table  string
	logger *slog.Logger

	published atomic.Int64
	failures  atomic.Int64
	failing   atomic.Bool

	mu   sync.Mutex
	last entity.Point
}

// PublisherStats — счётчики публикаций.
type PublisherStats struct {
	Published int64
	Failures  int64
	Last      entity.Point // последнее отправленное значение, нормализованное
}

// NewStatePublisher создаёт публикатор для таблицы table.
func NewStatePublisher(bus port.StateBus, table string, logger *slog.Logger) *StatePublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatePublisher{
		bus:    bus,
		table:  table,
		logger: logger.With("component", "publisher"),
	}
}

// PublishTarget отправляет x/width и y/height. Без цели отправляется (0, 0).
// Ошибки шины не повторяются: считаются и пишутся в лог.
func (p *StatePublisher) PublishTarget(est *entity.TargetEstimate) {
	var x, y float64
	if est != nil {
		x, y = est.Normalized()
	}

	p.mu.Lock()
	p.last = entity.Point{X: x, Y: y}
	p.mu.Unlock()

	err := errors.Join(
		p.bus.PutNumber(p.table, "x", x),
		p.bus.PutNumber(p.table, "y", y),
	)
	if err != nil {
		p.failures.Add(1)
		// в лог только переход в ошибку, иначе это каждый кадр
		if !p.failing.Swap(true) {
			p.logger.Warn("failed to publish target", "table", p.table, "error", err)
		}
		return
	}

	p.published.Add(1)
	if p.failing.Swap(false) {
		p.logger.Info("target publishing recovered", "table", p.table)
	}
}

// Stats возвращает счётчики публикатора.
func (p *StatePublisher) Stats() PublisherStats {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	return PublisherStats{
		Published: p.published.Load(),
		Failures:  p.failures.Load(),
		Last:      last,
	}
}
