//go:build gocv
// +build gocv

package vision

import (
	"errors"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// JPEGEncoder кодирует кадры для консоли оператора.
type JPEGEncoder struct {
	Quality int
}

// NewJPEGEncoder создаёт кодировщик с заданным качеством 1..100.
func NewJPEGEncoder(quality int) *JPEGEncoder {
	return &JPEGEncoder{Quality: quality}
}

// Encode возвращает JPEG, который декодируется независимо от соседних кадров.
func (e *JPEGEncoder) Encode(frame entity.Frame) ([]byte, error) {
	if frame.Empty() {
		return nil, errors.New("empty image")
	}
	mat, err := frameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	return encodeJPEG(mat, e.Quality)
}

var _ port.FrameEncoder = (*JPEGEncoder)(nil)
