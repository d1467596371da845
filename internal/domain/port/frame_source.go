package port

import "vision-node/internal/domain/entity"

// FrameSource выдаёт последний кадр указанного фида.
type FrameSource interface {
	// Capture возвращает кадр, а при ошибке устройства пустой кадр
	Capture(feed entity.Feed) entity.Frame
}

// CaptureDevice — одна физическая камера. Не потокобезопасна.
type CaptureDevice interface {
	// Read читает один кадр с устройства
	Read() (entity.Frame, error)

	// Close освобождает устройство
	Close() error
}
