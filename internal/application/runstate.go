package app

import (
	"sync"
	"sync/atomic"
)

// RunState — общий флаг работы обоих циклов. Устанавливается при создании,
// сбрасывается один раз через Stop.
type RunState struct {
	running atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewRunState создаёт флаг в состоянии «работаем».
func NewRunState() *RunState {
	r := &RunState{done: make(chan struct{})}
	r.running.Store(true)
	return r
}

// Running сообщает, должны ли циклы продолжать работу.
func (r *RunState) Running() bool {
	return r.running.Load()
}

// Stop сбрасывает флаг. Повторные вызовы ничего не делают.
func (r *RunState) Stop() {
	r.once.Do(func() {
		r.running.Store(false)
		close(r.done)
	})
}

// Done закрывается после Stop.
func (r *RunState) Done() <-chan struct{} {
	return r.done
}
