//go:build gocv
// +build gocv

package camera

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// DeviceParams — параметры, которые применяются к камере один раз при открытии.
type DeviceParams struct {
	Width    int
	Height   int
	FPS      int
	Exposure float64
}

// VideoDevice — камера V4L, прочитанная через OpenCV.
type VideoDevice struct {
	index int
	cap   *gocv.VideoCapture
	mat   gocv.Mat
}

// OpenVideoDevice открывает камеру по индексу и применяет параметры захвата.
func OpenVideoDevice(index int, p DeviceParams) (*VideoDevice, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(p.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(p.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(p.FPS))
	vc.Set(gocv.VideoCaptureExposure, p.Exposure)

	return &VideoDevice{index: index, cap: vc, mat: gocv.NewMat()}, nil
}

// Read читает кадр и копирует пиксели в Go-память.
func (d *VideoDevice) Read() (entity.Frame, error) {
	if ok := d.cap.Read(&d.mat); !ok || d.mat.Empty() {
		return entity.Frame{}, fmt.Errorf("camera %d: read failed", d.index)
	}
	if d.mat.Channels() != 3 {
		return entity.Frame{}, fmt.Errorf("camera %d: expected 3 channels, got %d", d.index, d.mat.Channels())
	}

	return entity.Frame{
		Width:      d.mat.Cols(),
		Height:     d.mat.Rows(),
		Pix:        d.mat.ToBytes(),
		CapturedAt: time.Now(),
	}, nil
}

// Close освобождает камеру.
func (d *VideoDevice) Close() error {
	return errors.Join(d.mat.Close(), d.cap.Close())
}

var _ port.CaptureDevice = (*VideoDevice)(nil)
