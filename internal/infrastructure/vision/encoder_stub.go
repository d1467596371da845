//go:build !gocv
// +build !gocv

package vision

import "vision-node/internal/domain/entity"

// JPEGEncoder — заглушка кодировщика (без OpenCV).
type JPEGEncoder struct {
	Quality int
}

// NewJPEGEncoder создаёт кодировщик-заглушку.
func NewJPEGEncoder(quality int) *JPEGEncoder {
	return &JPEGEncoder{Quality: quality}
}

// Encode возвращает ошибку, если сборка без тега gocv.
func (e *JPEGEncoder) Encode(frame entity.Frame) ([]byte, error) {
	_ = frame
	return nil, errNoGoCV
}
