//go:build !gocv
// +build !gocv

package vision

import (
	"errors"

	"vision-node/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// GoCVDetector — заглушка детектора (без OpenCV).
type GoCVDetector struct {
	Band      HSVBand
	Threshold float64
	MinArea   float64
	Quality   int
}

// NewGoCVDetector создаёт детектор-заглушку (без OpenCV).
func NewGoCVDetector(band HSVBand, threshold, minArea float64) *GoCVDetector {
	return &GoCVDetector{Band: band, Threshold: threshold, MinArea: minArea, Quality: 90}
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Detect(frame entity.Frame) entity.Detection {
	if frame.Empty() {
		return entity.Detection{Outcome: entity.OutcomeEmptyFrame}
	}
	return entity.Failed(frame, errNoGoCV)
}

// Annotate возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Annotate(frame entity.Frame, det entity.Detection) ([]byte, error) {
	_ = frame
	_ = det
	return nil, errNoGoCV
}
