package app

import (
	"sync"

	"vision-node/internal/domain/entity"
)

// SnapshotStore хранит последний обработанный кадр и его результат.
// Одна ячейка: каждый новый кадр заменяет предыдущий.
type SnapshotStore struct {
	mu    sync.RWMutex
	frame entity.Frame
	det   entity.Detection
	ok    bool
}

// NewSnapshotStore создаёт пустое хранилище.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Put заменяет снимок.
func (s *SnapshotStore) Put(frame entity.Frame, det entity.Detection) {
	s.mu.Lock()
	s.frame, s.det, s.ok = frame, det, true
	s.mu.Unlock()
}

// Latest возвращает последний снимок, если он есть.
func (s *SnapshotStore) Latest() (entity.Frame, entity.Detection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.det, s.ok
}
