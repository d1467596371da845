package bus

import (
	"sync"

	"vision-node/internal/domain/port"
)

// MemoryBus in-memory шина состояния. Используется без брокера (стенд) и в тестах.
type MemoryBus struct {
	mu      sync.RWMutex
	numbers map[string]float64
	flags   map[string]bool
}

// NewMemoryBus создаёт пустую шину
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		numbers: make(map[string]float64),
		flags:   make(map[string]bool),
	}
}

func key(table, name string) string {
	return table + "/" + name
}

// PutNumber сохраняет число
func (m *MemoryBus) PutNumber(table, name string, value float64) error {
	m.mu.Lock()
	m.numbers[key(table, name)] = value
	m.mu.Unlock()
	return nil
}

// PutBoolean сохраняет флаг
func (m *MemoryBus) PutBoolean(table, name string, value bool) error {
	m.mu.Lock()
	m.flags[key(table, name)] = value
	m.mu.Unlock()
	return nil
}

// GetBoolean возвращает флаг или def, если его нет
func (m *MemoryBus) GetBoolean(table, name string, def bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.flags[key(table, name)]; ok {
		return v
	}
	return def
}

// GetNumber возвращает число и признак наличия
func (m *MemoryBus) GetNumber(table, name string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.numbers[key(table, name)]
	return v, ok
}

// Проверка реализации интерфейса
var _ port.StateBus = (*MemoryBus)(nil)
