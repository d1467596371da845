package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	app "vision-node/internal/application"
	"vision-node/internal/domain/entity"
	"vision-node/internal/log"
)

type fakeOperator struct {
	mode     entity.Feed
	modeErr  error
	snapshot []byte
	det      entity.Detection
	snapErr  error
}

func (o *fakeOperator) Status() app.StatusReport {
	return app.StatusReport{
		State:      entity.StateRunning,
		ActiveFeed: entity.FeedPrimary,
		Detection:  app.DetectionStats{Cycles: 10, Found: 7},
		LastResult: entity.OutcomeFound,
	}
}

func (o *fakeOperator) SetMode(feed entity.Feed) error {
	if o.modeErr != nil {
		return o.modeErr
	}
	o.mode = feed
	return nil
}

func (o *fakeOperator) Snapshot() ([]byte, entity.Detection, error) {
	return o.snapshot, o.det, o.snapErr
}

func TestBot_Status(t *testing.T) {
	b := newBot(nil, &fakeOperator{}, nil, log.Discard())

	r := b.handleCommand(1, "status", "")
	require.Contains(t, r.text, "running")
	require.Contains(t, r.text, "циклов 10, найдено 7")
	require.Contains(t, r.text, "Последний кадр: found")
}

func TestBot_Mode(t *testing.T) {
	ops := &fakeOperator{}
	b := newBot(nil, ops, nil, log.Discard())

	r := b.handleCommand(1, "mode", " Secondary ")
	require.Equal(t, entity.FeedSecondary, ops.mode)
	require.Contains(t, r.text, "secondary")

	r = b.handleCommand(1, "mode", "rear")
	require.Equal(t, msgModeUsage, r.text)

	ops.modeErr = errors.New("mqtt not connected")
	r = b.handleCommand(1, "mode", "primary")
	require.Contains(t, r.text, "mqtt not connected")
}

func TestBot_Snapshot(t *testing.T) {
	ops := &fakeOperator{snapErr: app.ErrNoSnapshot}
	b := newBot(nil, ops, nil, log.Discard())

	require.Equal(t, msgNoSnapshot, b.handleCommand(1, "snapshot", "").text)

	ops.snapErr = errors.New("gocv build tag is not enabled")
	require.Equal(t, msgSnapshotError, b.handleCommand(1, "snapshot", "").text)

	ops.snapErr = nil
	ops.snapshot = []byte{0xFF, 0xD8}
	ops.det = entity.Detection{
		Outcome:  entity.OutcomeFound,
		Target:   &entity.TargetEstimate{Point: entity.Point{X: 180, Y: 60}, FrameWidth: 360, FrameHeight: 240},
		Contours: 3,
	}
	r := b.handleCommand(1, "snapshot", "")
	require.Equal(t, ops.snapshot, r.photo)
	require.Equal(t, "🎯 Цель (180, 60) px, нормировано (0.500, 0.250), контуров 3", r.caption)
}

func TestBot_Allowlist(t *testing.T) {
	ops := &fakeOperator{}
	b := newBot(nil, ops, []int64{42}, log.Discard())

	require.Equal(t, msgForbidden, b.handleCommand(7, "mode", "secondary").text)
	require.Empty(t, ops.mode)

	b.handleCommand(42, "mode", "secondary")
	require.Equal(t, entity.FeedSecondary, ops.mode)
}

func TestBot_UnknownCommand(t *testing.T) {
	b := newBot(nil, &fakeOperator{}, nil, log.Discard())
	require.Equal(t, msgUnknownCommand, b.handleCommand(1, "check", "").text)
	require.Equal(t, msgStart, b.handleCommand(1, "start", "").text)
}

func TestFormatDetection(t *testing.T) {
	require.Equal(t, "Цель не найдена: контуров 1",
		formatDetection(entity.Detection{Outcome: entity.OutcomeNoPair, Contours: 1}))
	require.Equal(t, "Ошибка детекции: bad mat",
		formatDetection(entity.Detection{Outcome: entity.OutcomeFailed, Err: errors.New("bad mat")}))
}
