//go:build gocv
// +build gocv

package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vision-node/internal/domain/entity"
)

// frameWithRects рисует белые прямоугольники на чёрном кадре BGR.
func frameWithRects(w, h int, rects ...[4]int) entity.Frame {
	pix := make([]byte, w*h*3)
	for _, r := range rects {
		for y := r[1]; y < r[3]; y++ {
			for x := r[0]; x < r[2]; x++ {
				i := (y*w + x) * 3
				pix[i], pix[i+1], pix[i+2] = 255, 255, 255
			}
		}
	}
	return entity.Frame{Feed: entity.FeedPrimary, Width: w, Height: h, Pix: pix}
}

func TestGoCVDetector_FindsMidpoint(t *testing.T) {
	d := NewGoCVDetector(DefaultBand(), 127, 0)
	frame := frameWithRects(200, 100, [4]int{40, 40, 61, 61}, [4]int{140, 40, 161, 61})

	det := d.Detect(frame)
	require.True(t, det.Found(), "outcome %s err %v", det.Outcome, det.Err)
	require.InDelta(t, 100, det.Target.X, 1)
	require.InDelta(t, 50, det.Target.Y, 1)
	require.Equal(t, 200, det.Target.FrameWidth)

	jpg, err := d.Annotate(frame, det)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xD8}, jpg[:2])
}

func TestGoCVDetector_SingleRect(t *testing.T) {
	d := NewGoCVDetector(DefaultBand(), 127, 0)
	det := d.Detect(frameWithRects(200, 100, [4]int{40, 40, 61, 61}))
	require.False(t, det.Found())
	require.Equal(t, entity.OutcomeNoPair, det.Outcome)
}

func TestGoCVDetector_DimPixelsIgnored(t *testing.T) {
	frame := frameWithRects(200, 100, [4]int{40, 40, 61, 61}, [4]int{140, 40, 161, 61})
	for i := range frame.Pix {
		if frame.Pix[i] == 255 {
			frame.Pix[i] = 100 // ниже val_min
		}
	}
	det := NewGoCVDetector(DefaultBand(), 127, 0).Detect(frame)
	require.Equal(t, entity.OutcomeNoPair, det.Outcome)
	require.Zero(t, det.Contours)
}

func TestGoCVDetector_EmptyFrame(t *testing.T) {
	det := NewGoCVDetector(DefaultBand(), 127, 0).Detect(entity.EmptyFrame(entity.FeedPrimary))
	require.Equal(t, entity.OutcomeEmptyFrame, det.Outcome)
}

func TestJPEGEncoder_Encode(t *testing.T) {
	jpg, err := NewJPEGEncoder(80).Encode(frameWithRects(64, 48, [4]int{0, 0, 10, 10}))
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xD8}, jpg[:2])

	_, err = NewJPEGEncoder(80).Encode(entity.Frame{})
	require.Error(t, err)
}
