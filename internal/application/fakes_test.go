package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"vision-node/internal/domain/entity"
)

func testFrame(feed entity.Feed) entity.Frame {
	return entity.Frame{Feed: feed, Width: 4, Height: 2, Pix: make([]byte, 4*2*3)}
}

// fakeSource возвращает кадры нужного фида или пустой кадр, если empty.
type fakeSource struct {
	mu    sync.Mutex
	empty map[entity.Feed]bool
	calls map[entity.Feed]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{empty: map[entity.Feed]bool{}, calls: map[entity.Feed]int{}}
}

func (s *fakeSource) Capture(feed entity.Feed) entity.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[feed]++
	if s.empty[feed] {
		return entity.EmptyFrame(feed)
	}
	return testFrame(feed)
}

func (s *fakeSource) setEmpty(feed entity.Feed) {
	s.mu.Lock()
	s.empty[feed] = true
	s.mu.Unlock()
}

func (s *fakeSource) count(feed entity.Feed) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[feed]
}

// fakeDetector возвращает заданный результат или паникует.
type fakeDetector struct {
	det       entity.Detection
	panics    bool
	annErr    error
	annotated atomic.Int32
}

func (d *fakeDetector) Detect(frame entity.Frame) entity.Detection {
	if d.panics {
		panic("bad frame")
	}
	return d.det
}

func (d *fakeDetector) Annotate(frame entity.Frame, det entity.Detection) ([]byte, error) {
	d.annotated.Add(1)
	if d.annErr != nil {
		return nil, d.annErr
	}
	return []byte("jpeg:" + string(frame.Feed)), nil
}

func foundAt(x, y float64) entity.Detection {
	return entity.Detection{
		Outcome: entity.OutcomeFound,
		Target: &entity.TargetEstimate{
			Point:      entity.Point{X: x, Y: y},
			FrameWidth: 360, FrameHeight: 240,
		},
		Contours: 2,
	}
}

type fakeEncoder struct {
	err error
}

func (e fakeEncoder) Encode(frame entity.Frame) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []byte(frame.Feed), nil
}

// fakeLink запоминает записанные кадры.
type fakeLink struct {
	mu         sync.Mutex
	writes     [][]byte
	writeErr   error
	connectErr error
	connects   int
	reconnects int
	closes     int
	blockConn  bool
}

func (l *fakeLink) Connect(ctx context.Context) error {
	l.mu.Lock()
	l.connects++
	block, err := l.blockConn, l.connectErr
	l.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (l *fakeLink) Write(payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return l.writeErr
	}
	l.writes = append(l.writes, append([]byte(nil), payload...))
	return nil
}

func (l *fakeLink) Reconnect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reconnects++
	l.writeErr = nil
	return nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closes++
	return nil
}

func (l *fakeLink) snapshot() (writes [][]byte, reconnects, closes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.writes...), l.reconnects, l.closes
}

type fakeCameras struct {
	warmupErr error
	releases  atomic.Int32
}

func (c *fakeCameras) Warmup(ctx context.Context) error { return c.warmupErr }

func (c *fakeCameras) Release() error {
	c.releases.Add(1)
	return nil
}

// failingBus отклоняет все записи.
type failingBus struct {
	puts atomic.Int32
}

func (b *failingBus) PutNumber(table, key string, value float64) error {
	b.puts.Add(1)
	return errors.New("bus unavailable")
}

func (b *failingBus) PutBoolean(table, key string, value bool) error {
	return errors.New("bus unavailable")
}

func (b *failingBus) GetBoolean(table, key string, def bool) bool { return def }
