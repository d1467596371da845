//go:build !gocv
// +build !gocv

package camera

import (
	"errors"

	"vision-node/internal/domain/entity"
)

// DeviceParams — параметры, которые применяются к камере один раз при открытии.
type DeviceParams struct {
	Width    int
	Height   int
	FPS      int
	Exposure float64
}

// VideoDevice — заглушка камеры для сборки без OpenCV.
type VideoDevice struct{}

// OpenVideoDevice возвращает ошибку, если сборка без тега gocv.
func OpenVideoDevice(index int, p DeviceParams) (*VideoDevice, error) {
	_ = index
	_ = p
	return nil, errors.New("gocv build tag is not enabled")
}

// Read возвращает ошибку, если сборка без тега gocv.
func (d *VideoDevice) Read() (entity.Frame, error) {
	return entity.Frame{}, errors.New("gocv build tag is not enabled")
}

// Close ничего не делает.
func (d *VideoDevice) Close() error {
	return nil
}
